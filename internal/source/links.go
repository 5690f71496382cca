// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import "regexp"

// deckPatterns are tried in order; results keep that order.
var deckPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://docsend\.com/view/[a-zA-Z0-9]+`),
	regexp.MustCompile(`https://docs\.google\.com/[^\s<>"]+`),
	regexp.MustCompile(`https://drive\.google\.com/[^\s<>"]+`),
	regexp.MustCompile(`https://www\.dropbox\.com/[^\s<>"]+`),
	regexp.MustCompile(`https://[^\s<>"]*\.pdf`),
}

// ExtractDeckLinks returns the distinct deck links found in free text such
// as an email body.
func ExtractDeckLinks(text string) []string {
	seen := map[string]bool{}
	var links []string
	for _, re := range deckPatterns {
		for _, m := range re.FindAllString(text, -1) {
			if seen[m] {
				continue
			}
			seen[m] = true
			links = append(links, m)
		}
	}
	return links
}
