// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deal-analyzer/internal/fsutil"
)

// ExportEntry is one section in an export, grouped under its evaluation.
type ExportEntry struct {
	Evaluation Evaluation `json:"evaluation" yaml:"evaluation"`
	Sections   []Hit      `json:"sections" yaml:"sections"`
}

const exportLimit = 100000

// Export writes matching sections to path, grouped by evaluation. The
// format follows the extension: .json writes JSON, anything else YAML.
func (s *Store) Export(ctx context.Context, path string, opts QueryOptions) (int, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return 0, err
	}

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = yaml.Marshal(entries)
	}
	if err != nil {
		return 0, fmt.Errorf("encoding export: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ExportYAML is Export with YAML output regardless of extension.
func (s *Store) ExportYAML(ctx context.Context, path string, opts QueryOptions) (int, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return 0, err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return 0, fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	hits, err := s.Search(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	evals, err := s.Evaluations(ctx, exportLimit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	byID := make(map[string]Evaluation, len(evals))
	for _, ev := range evals {
		byID[ev.ID] = ev
	}

	var (
		entries []ExportEntry
		index   = map[string]int{}
	)
	for _, h := range hits {
		i, ok := index[h.EvaluationID]
		if !ok {
			i = len(entries)
			index[h.EvaluationID] = i
			entries = append(entries, ExportEntry{Evaluation: byID[h.EvaluationID]})
		}
		entries[i].Sections = append(entries[i].Sections, h)
	}
	return entries, nil
}
