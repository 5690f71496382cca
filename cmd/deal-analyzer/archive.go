// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deal-analyzer/internal/archive"
	"github.com/pdiddy/deal-analyzer/internal/checkpoint"
	"github.com/pdiddy/deal-analyzer/internal/delivery"
	"github.com/pdiddy/deal-analyzer/internal/lock"
)

// --- log command ---

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record the last evaluation in the local archive",
	Long: `Log reads the last checkpointed evaluation and stores it, with a condensed
CRM-style note, in the SQLite archive where archive search can find it.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	log := progressWriter(cmd)
	report, _ := notifiers(cfg.Notify, log)
	ctx := context.Background()
	say := func(msg string) {
		report.Notify(ctx, cfg.Notify.Target, msg)
	}

	l, err := lock.InDir(cfg.Checkpoint.Dir)
	if err != nil {
		return err
	}
	defer l.Release()

	state, err := checkpoint.New(cfg.Checkpoint.Dir, log).Load()
	if err != nil {
		return err
	}
	if state == nil || state.Outcome == nil {
		say("No recent analysis to log. Run an evaluation first.")
		return errors.New("no recent analysis to log")
	}

	store, err := archive.Open(cfg.Archive)
	if err != nil {
		return err
	}
	defer store.Close()

	company := state.DeckRecord.Company()
	note := delivery.CRMNote(delivery.NewReport(state.DeckRecord, state.Outcome))
	ev, err := store.Record(ctx, state, note)
	if err != nil {
		say("Failed to log the evaluation. Try again or add it manually.")
		return err
	}
	say(fmt.Sprintf("Logged deal evaluation for *%s*.", company))
	fmt.Fprintf(cmd.OutOrStdout(), "logged %s as %s\n", company, ev.ID)
	return nil
}

// --- archive command ---

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Search, list and export archived evaluations",
}

var archiveSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over archived section text",
	Long: `Search runs an FTS5 query over the text of archived analysis sections.
Filter by --company or --section; without a query the newest sections are
listed.`,
	RunE: runArchiveSearch,
}

func runArchiveSearch(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	hits, err := store.Search(context.Background(), archiveOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	fmt.Fprintf(out, "%-4s  %-20s  %-28s  %-10s  %s\n", "Rank", "Company", "Section", "Date", "Content")
	fmt.Fprintln(out, strings.Repeat("-", 110))
	for i, h := range hits {
		content := strings.Join(strings.Fields(h.Content), " ")
		fmt.Fprintf(out, "%-4d  %-20s  %-28s  %-10s  %s\n",
			i+1, clip(h.Company, 20), clip(h.SectionID, 28), h.CreatedAt.Format("2006-01-02"), clip(content, 40))
	}
	fmt.Fprintf(out, "\n%d results\n", len(hits))
	return nil
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived evaluations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		evals, err := store.Evaluations(context.Background(), limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, ev := range evals {
			fmt.Fprintf(out, "%s  %-24s  %-16s  failed=%d  %s\n",
				ev.CreatedAt.Format("2006-01-02 15:04"), clip(ev.Company, 24), clip(ev.Industry, 16), ev.FailedSections, ev.ID)
		}
		return nil
	},
}

var archiveExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export archived evaluations to YAML or JSON",
	Long: `Export writes matching evaluations with their sections to --out. The
format follows the file extension (.json for JSON, YAML otherwise). Supports
the same filters as search.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		path, _ := cmd.Flags().GetString("out")
		n, err := store.Export(context.Background(), path, archiveOptsFromFlags(cmd, args))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d evaluations to %s\n", n, path)
		return nil
	},
}

// --- shared helpers ---

func openArchive() (*archive.Store, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, err
	}
	return archive.Open(cfg.Archive)
}

func archiveOptsFromFlags(cmd *cobra.Command, args []string) archive.QueryOptions {
	company, _ := cmd.Flags().GetString("company")
	section, _ := cmd.Flags().GetString("section")
	limit, _ := cmd.Flags().GetInt("limit")
	failed, _ := cmd.Flags().GetBool("include-failed")
	return archive.QueryOptions{
		Query:         strings.Join(args, " "),
		Company:       company,
		SectionID:     section,
		IncludeFailed: failed,
		MaxResults:    limit,
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	for _, c := range []*cobra.Command{archiveSearchCmd, archiveExportCmd} {
		c.Flags().String("company", "", "filter by company name")
		c.Flags().String("section", "", "filter by section ID (see the sections command)")
		c.Flags().Bool("include-failed", false, "include sections that failed")
	}
	archiveSearchCmd.Flags().Int("limit", 0, "maximum number of results (default from config)")
	archiveSearchCmd.Flags().Bool("json", false, "output results as JSON")
	archiveListCmd.Flags().Int("limit", 0, "maximum number of evaluations (default from config)")
	archiveExportCmd.Flags().String("out", "archive-export.yaml", "output file (.yaml or .json)")

	archiveCmd.AddCommand(archiveSearchCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveExportCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(archiveCmd)
}
