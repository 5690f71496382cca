// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps a local SQLite log of completed evaluations with a
// full-text index over section text.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// ErrNoOutcome is returned when recording a state that has no analysis.
var ErrNoOutcome = errors.New("state has no analysis outcome")

// Evaluation is one archived run.
type Evaluation struct {
	ID             string    `json:"id" yaml:"id"`
	RunID          string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Company        string    `json:"company" yaml:"company"`
	Industry       string    `json:"industry,omitempty" yaml:"industry,omitempty"`
	Source         string    `json:"source,omitempty" yaml:"source,omitempty"`
	TLDR           string    `json:"tldr" yaml:"tldr"`
	Note           string    `json:"note" yaml:"note"`
	FailedSections int       `json:"failed_sections" yaml:"failed_sections"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// Store manages the archive database.
type Store struct {
	db         *sql.DB
	maxResults int
	now        func() time.Time
}

// Open opens or creates the archive at cfg.Path.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	s := &Store{db: db, maxResults: maxResults, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			run_id TEXT,
			company TEXT NOT NULL,
			industry TEXT,
			source TEXT,
			tldr TEXT,
			note TEXT,
			failed_sections INTEGER NOT NULL DEFAULT 0,
			deck_record TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			evaluation_id TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
			section_id TEXT NOT NULL,
			title TEXT,
			content TEXT NOT NULL,
			failed INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_evaluation ON sections(evaluation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_company ON evaluations(company)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sections_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE sections_fts USING fts5(content, content=sections, content_rowid=rowid)`,
		`CREATE TRIGGER sections_ai AFTER INSERT ON sections BEGIN
			INSERT INTO sections_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TRIGGER sections_ad AFTER DELETE ON sections BEGIN
			INSERT INTO sections_fts(sections_fts, rowid, content) VALUES('delete', old.rowid, old.content);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// Record archives a completed run together with its CRM-style note.
func (s *Store) Record(ctx context.Context, state *types.PipelineState, note string) (Evaluation, error) {
	if state == nil || state.Outcome == nil {
		return Evaluation{}, ErrNoOutcome
	}
	rec := state.DeckRecord
	ev := Evaluation{
		ID:             uuid.NewString(),
		RunID:          state.RunID,
		Company:        rec.Company(),
		Source:         state.SourceReference,
		TLDR:           state.Outcome.TLDR,
		Note:           note,
		FailedSections: state.Outcome.FailedCount(),
		CreatedAt:      s.now().UTC(),
	}
	if rec.Industry != nil {
		ev.Industry = *rec.Industry
	}
	deckJSON, err := json.Marshal(rec)
	if err != nil {
		return Evaluation{}, fmt.Errorf("encoding deck record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Evaluation{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO evaluations (id, run_id, company, industry, source, tldr, note, failed_sections, deck_record, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.RunID, ev.Company, ev.Industry, ev.Source, ev.TLDR, ev.Note,
		ev.FailedSections, string(deckJSON), ev.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Evaluation{}, fmt.Errorf("inserting evaluation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (id, evaluation_id, section_id, title, content, failed, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Evaluation{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, sec := range state.Outcome.Sections {
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), ev.ID, sec.SectionID, sec.Title, sec.Text, sec.Failed, i,
		); err != nil {
			return Evaluation{}, fmt.Errorf("inserting section %s: %w", sec.SectionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Evaluation{}, fmt.Errorf("committing evaluation: %w", err)
	}
	return ev, nil
}

// Evaluations lists archived runs, newest first.
func (s *Store) Evaluations(ctx context.Context, limit int) ([]Evaluation, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, company, industry, source, tldr, note, failed_sections, created_at
		 FROM evaluations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing evaluations: %w", err)
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var (
			ev                                   Evaluation
			runID, industry, source, tldr, note sql.NullString
			created                              string
		)
		if err := rows.Scan(&ev.ID, &runID, &ev.Company, &industry, &source, &tldr, &note,
			&ev.FailedSections, &created); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ev.RunID, ev.Industry, ev.Source = runID.String, industry.String, source.String
		ev.TLDR, ev.Note = tldr.String, note.String
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, ev)
	}
	return out, rows.Err()
}
