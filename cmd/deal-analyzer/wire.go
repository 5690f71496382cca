// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/pdiddy/deal-analyzer/internal/analysis"
	"github.com/pdiddy/deal-analyzer/internal/checkpoint"
	"github.com/pdiddy/deal-analyzer/internal/command"
	"github.com/pdiddy/deal-analyzer/internal/completion"
	"github.com/pdiddy/deal-analyzer/internal/container"
	"github.com/pdiddy/deal-analyzer/internal/delivery"
	"github.com/pdiddy/deal-analyzer/internal/extract"
	"github.com/pdiddy/deal-analyzer/internal/notify"
	"github.com/pdiddy/deal-analyzer/internal/pipeline"
	"github.com/pdiddy/deal-analyzer/internal/research"
	"github.com/pdiddy/deal-analyzer/internal/source"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// progressWriter returns the writer for progress lines.
func progressWriter(cmd *cobra.Command) io.Writer {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return io.Discard
	}
	return os.Stderr
}

// lazyMarkitdown detects a container runtime on the first PDF only.
type lazyMarkitdown struct {
	run  command.Runner
	once sync.Once
	conv *source.Markitdown
	err  error
}

func (l *lazyMarkitdown) Convert(ctx context.Context, pdf io.Reader) (string, error) {
	l.once.Do(func() {
		rt, err := container.Detect(ctx, l.run)
		if err != nil {
			l.err = err
			return
		}
		l.conv, l.err = source.NewMarkitdown(ctx, rt)
	})
	if l.err != nil {
		return "", l.err
	}
	return l.conv.Convert(ctx, pdf)
}

// notifiers returns the report notifier, which retries, and the progress
// notifier, which sends once.
func notifiers(cfg types.NotifyConfig, log io.Writer) (notify.Notifier, notify.Notifier) {
	if cfg.Target == "" || cfg.Command == "" {
		return notify.Nop{}, notify.Nop{}
	}
	report := notify.NewCommandNotifier(cfg, command.Default, log)
	progress := *report
	progress.Attempts = 1
	return report, &progress
}

// deliverers assembles the configured destinations.
func deliverers(cfg types.Config, n notify.Notifier, log io.Writer) delivery.Multi {
	var m delivery.Multi
	if cfg.Delivery.OutputDir != "" {
		m = append(m, &delivery.FileDeliverer{Dir: cfg.Delivery.OutputDir, Log: log})
	}
	if cfg.Notify.Target != "" || cfg.Delivery.EmailTo != "" {
		m = append(m, delivery.NewMessageDeliverer(n, cfg.Notify, cfg.Delivery, command.Default, log))
	}
	return m
}

// newSearcher returns the configured search backend, or nil when no API key
// is set.
func newSearcher(ctx context.Context, cfg types.ResearchConfig) (research.Searcher, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	if cfg.Backend == types.SearchGoogle {
		return research.NewGoogleSearcher(ctx, cfg.APIKey, cfg.EngineID,
			option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			option.WithUserAgent(cfg.UserAgent))
	}
	return &research.BraveSearcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
	}, nil
}

// buildPipeline wires every phase from configuration. The returned cleanup
// releases provider resources.
func buildPipeline(ctx context.Context, cfg types.Config, senderEmail string, log io.Writer) (*pipeline.Pipeline, func(), error) {
	client, closer, err := completion.NewFromConfig(ctx, cfg.Completion, log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating completion client: %w", err)
	}

	loader := source.NewLoader(cfg.Source, &lazyMarkitdown{run: command.Default}, log)
	loader.SenderEmail = senderEmail

	searcher, err := newSearcher(ctx, cfg.Research)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	if searcher == nil {
		fmt.Fprintln(log, "research: no search API key, sections will run without web research")
	}

	report, progress := notifiers(cfg.Notify, log)
	p := &pipeline.Pipeline{
		Source:     loader,
		Extractor:  extract.New(client, log),
		Researcher: research.NewCoordinator(searcher, cfg.Research, log),
		NewAnalysis: func() *analysis.Orchestrator {
			return analysis.New(client, cfg.Analysis, cfg.Research.ItemsPerPurpose, log)
		},
		Checkpoint:        checkpoint.New(cfg.Checkpoint.Dir, log),
		Freshness:         cfg.Checkpoint.FreshnessWindow,
		LockDir:           cfg.Checkpoint.Dir,
		Notifier:          report,
		Progress:          progress,
		Target:            cfg.Notify.Target,
		Deliverer:         deliverers(cfg, report, log),
		DegradedThreshold: cfg.Analysis.DegradedThreshold,
		Log:               log,
	}
	return p, func() { closer.Close() }, nil
}
