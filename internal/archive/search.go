// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// QueryOptions holds parameters for archive searches.
type QueryOptions struct {
	// Query is an FTS5 match expression over section text.
	Query string

	// Company filters by company name, case-insensitive.
	Company string

	// SectionID filters by section, e.g. "competitive_landscape".
	SectionID string

	// IncludeFailed keeps sections that hold failure markers.
	IncludeFailed bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Hit is one archived section with its evaluation context.
type Hit struct {
	EvaluationID string    `json:"evaluation_id" yaml:"evaluation_id"`
	Company      string    `json:"company" yaml:"company"`
	SectionID    string    `json:"section_id" yaml:"section_id"`
	Title        string    `json:"title" yaml:"title"`
	Content      string    `json:"content" yaml:"content"`
	Failed       bool      `json:"failed,omitempty" yaml:"failed,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// Search returns archived sections ranked by relevance for text queries,
// or newest evaluation first in registry order otherwise.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]Hit, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = strings.TrimSpace(opts.Query) != ""
	)
	if useFTS {
		qb.WriteString(
			`SELECT e.id, e.company, sec.section_id, sec.title, sec.content, sec.failed, e.created_at
			FROM sections_fts
			JOIN sections sec ON sec.rowid = sections_fts.rowid
			JOIN evaluations e ON e.id = sec.evaluation_id
			WHERE sections_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT e.id, e.company, sec.section_id, sec.title, sec.content, sec.failed, e.created_at
			FROM sections sec
			JOIN evaluations e ON e.id = sec.evaluation_id
			WHERE 1=1`)
	}

	if opts.Company != "" {
		qb.WriteString(` AND lower(e.company) = lower(?)`)
		args = append(args, opts.Company)
	}
	if opts.SectionID != "" {
		qb.WriteString(` AND sec.section_id = ?`)
		args = append(args, opts.SectionID)
	}
	if !opts.IncludeFailed {
		qb.WriteString(` AND sec.failed = 0`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY sections_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.created_at DESC, sec.position`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h       Hit
			created string
		)
		if err := rows.Scan(&h.EvaluationID, &h.Company, &h.SectionID, &h.Title, &h.Content, &h.Failed, &created); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		h.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
