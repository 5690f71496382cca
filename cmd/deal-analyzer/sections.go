// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deal-analyzer/internal/sections"
	"github.com/pdiddy/deal-analyzer/internal/source"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Print the analysis section registry as YAML",
	Long: `Sections prints every analysis task in run order with its research
purposes, token budget and focus questions. Section IDs are the values
accepted by archive search --section.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sections.Dump(cmd.OutOrStdout())
	},
}

var linksCmd = &cobra.Command{
	Use:   "links [file]",
	Short: "Find deck links in text such as an email body",
	Long: `Links scans a file (or stdin) for DocSend, Google Docs/Drive, Dropbox and
PDF links and prints each distinct link on its own line, ready for quick or
evaluate.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		links := source.ExtractDeckLinks(string(data))
		if len(links) == 0 {
			return fmt.Errorf("no deck links found")
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(links, "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(linksCmd)
}
