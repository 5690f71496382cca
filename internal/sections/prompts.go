// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sections

import "text/template"

// SystemPrompt frames every section and synthesis call.
const SystemPrompt = `You are a senior venture capital analyst preparing an investment evaluation for a partner meeting.

Work only from the material provided: the pitch deck data and the web research excerpts. Where the deck is silent, write "Not available from deck - request from founders" instead of inventing figures. Prefer concrete numbers, percentages, and multiples. Label estimates as estimates with a confidence of High, Medium, or Low. Cover strengths and risks in every section, and close each section with two or three specific questions for the founders.

Write clean markdown with headers, bullet points, and bold key figures.`

// PromptData is the input to a task's prompt template.
type PromptData struct {
	Company string

	// Deck is the rendered DeckRecord.
	Deck string

	// Research is the formatted research context, or the no-data marker.
	Research string

	// PriorAnalysis is the transcript of section results. Synthesis only.
	PriorAnalysis string

	Task *Task
}

var sectionTmpl = template.Must(template.New("section").Parse(`Evaluate {{.Company}} for the section "{{.Task.Title}}".

PITCH DECK DATA:
{{.Deck}}

WEB RESEARCH:
{{.Research}}

Write the section under the heading "## {{.Task.Title}}" and address each point:
{{range .Task.Focus}}- {{.}}
{{end}}
{{.Task.Verdict}}
Questions for founders: two or three, specific to this section.
`))

var synthesisTmpl = template.Must(template.New("synthesis").Parse(`You have finished an eleven-part investment analysis of {{.Company}}. The findings follow.

PITCH DECK DATA:
{{.Deck}}

SECTION FINDINGS:
{{.PriorAnalysis}}

Write the closing memo under the heading "## {{.Task.Title}}" with these parts:
{{range .Task.Focus}}- {{.}}
{{end}}
Sections marked "Analysis failed" produced no findings; treat their topics as open diligence items.
`))

// TLDRPrompt condenses the memo into one paragraph. It is rendered with the
// truncated memo text.
var TLDRPrompt = template.Must(template.New("tldr").Parse(`Summarize this investment memo in one paragraph of three to five sentences. Say what the company does, its key traction numbers, the recommendation (invest, pass, or monitor), and the main reason for it.

MEMO:
{{.}}

Reply with the paragraph only, without a label.`))
