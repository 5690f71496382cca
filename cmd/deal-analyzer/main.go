// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deal-analyzer CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pdiddy/deal-analyzer/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const secretsDir = ".secrets/"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the deal-analyzer CLI.
var rootCmd = &cobra.Command{
	Use:   "deal-analyzer",
	Short: "Evaluate startup pitch decks with a 12-section investment analysis",
	Long: `deal-analyzer reads a pitch deck (a local file or a link to a deck-hosting
service), extracts the company's key facts, researches the market on the web,
and writes a 12-section investment analysis with a synthesis memo and TL;DR.

Use quick for a fast extraction summary and evaluate for the full report.
Results are checkpointed so that evaluate can reuse a recent quick pass, and
log records the last evaluation in a local searchable archive.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
		}
		s, err := secrets.Load(secretsDir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./deal-analyzer.yaml or ~/.config/deal-analyzer/deal-analyzer.yaml)")
	flags.String("state-dir", "", "directory for the checkpoint and run lock")
	flags.String("target", "", "chat recipient for notifications (e.g. a phone number)")
	flags.String("provider", "", "completion provider: anthropic or gemini")
	flags.BoolP("quiet", "q", false, "suppress progress output")
	bindFlags(flags)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
