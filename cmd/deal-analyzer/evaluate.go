// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deal-analyzer/internal/delivery"
)

var quickCmd = &cobra.Command{
	Use:   "quick <deck>",
	Short: "Extract a deck's key facts and send a quick summary",
	Long: `Quick loads the deck (a file path or a link to DocSend, Google Docs/Drive,
Dropbox, Papermark, Pitch, Slides or Canva), extracts a structured record,
checkpoints it, and prints or sends a short summary. A following evaluate
within the freshness window reuses the extraction.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuick,
}

func runQuick(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	sender, _ := cmd.Flags().GetString("sender")
	log := progressWriter(cmd)

	ctx := context.Background()
	p, cleanup, err := buildPipeline(ctx, cfg, sender, log)
	if err != nil {
		return err
	}
	defer cleanup()

	rec, err := p.QuickPass(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), delivery.QuickSummary(*rec))
	return nil
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [deck]",
	Short: "Run the full 12-section investment analysis",
	Long: `Evaluate runs extraction, web research, eleven analysis sections, the
investment memo synthesis and a TL;DR, then delivers the report to the output
directory, chat and email as configured.

Without a deck argument the last quick pass is resumed if it is still fresh.
When every section failed the report is not delivered unless --force is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvaluate,
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	sender, _ := cmd.Flags().GetString("sender")
	printReport, _ := cmd.Flags().GetBool("print")
	log := progressWriter(cmd)

	var src string
	if len(args) > 0 {
		src = args[0]
	}

	ctx := context.Background()
	p, cleanup, err := buildPipeline(ctx, cfg, sender, log)
	if err != nil {
		return err
	}
	defer cleanup()
	p.DeliverDegraded = force

	outcome, err := p.FullPass(ctx, src)
	if err != nil {
		return err
	}

	if printReport {
		state, _ := p.Checkpoint.Load()
		if state != nil {
			fmt.Fprintln(cmd.OutOrStdout(), delivery.FullReport(delivery.NewReport(state.DeckRecord, outcome)))
		}
	}

	failed := outcome.FailedCount()
	if outcome.Degraded(cfg.Analysis.DegradedThreshold) && !force {
		return fmt.Errorf("%d of %d sections failed; report withheld (use --force to deliver)", failed, len(outcome.Sections))
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d of %d sections failed\n", failed, len(outcome.Sections))
	}
	return nil
}

func init() {
	quickCmd.Flags().String("sender", "", "email address to present to DocSend")
	evaluateCmd.Flags().String("sender", "", "email address to present to DocSend")
	evaluateCmd.Flags().Bool("force", false, "deliver the report even when every section failed")
	evaluateCmd.Flags().Bool("print", false, "print the full report to stdout")

	rootCmd.AddCommand(quickCmd)
	rootCmd.AddCommand(evaluateCmd)
}
