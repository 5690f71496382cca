// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files, one
// secret per file: the file name is the key and the trimmed contents are the
// value. Environment variables act as fallbacks.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key file names.
const (
	AnthropicAPIKey    = "anthropic-api-key"
	GeminiAPIKey       = "gemini-api-key"
	BraveSearchAPIKey  = "brave-search-api-key"
	GoogleSearchAPIKey = "google-search-api-key"
)

// Set maps key names to values.
type Set map[string]string

// Load reads all files in dir. A missing directory is not an error and
// yields an empty set. Unreadable files are reported to warn and skipped.
func Load(dir string, warn io.Writer) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if warn != nil {
				fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			}
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// EnvName maps a key file name to its environment variable, e.g.
// "anthropic-api-key" to "ANTHROPIC_API_KEY".
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Lookup returns the value for key from the set, falling back to the
// environment variable EnvName(key) read through getenv.
func (s Set) Lookup(key string, getenv func(string) string) string {
	if v, ok := s[key]; ok {
		return v
	}
	if getenv == nil {
		return ""
	}
	return strings.TrimSpace(getenv(EnvName(key)))
}

// Keys returns the loaded key names, sorted.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
