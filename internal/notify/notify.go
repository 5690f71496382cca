// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify sends short chat messages (acknowledgements, progress
// milestones, report summaries) through an external messaging CLI.
package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/deal-analyzer/internal/command"
	"github.com/pdiddy/deal-analyzer/internal/httputil"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// Notifier delivers one message to a recipient. The result reports whether
// delivery succeeded; callers treat it as advisory.
type Notifier interface {
	Notify(ctx context.Context, target, text string) bool
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) bool { return true }

const callTimeout = 15 * time.Second

// CommandNotifier runs
//
//	<command> message send --channel <channel> --target <target> --message <text>
//
// retrying failed sends up to Attempts times.
type CommandNotifier struct {
	Runner     command.Runner
	Command    string
	Channel    string
	Attempts   int
	RetryDelay time.Duration
	Log        io.Writer
}

// NewCommandNotifier creates a notifier from configuration.
func NewCommandNotifier(cfg types.NotifyConfig, run command.Runner, log io.Writer) *CommandNotifier {
	return &CommandNotifier{
		Runner:     run,
		Command:    cfg.Command,
		Channel:    cfg.Channel,
		Attempts:   cfg.Attempts,
		RetryDelay: cfg.RetryDelay,
		Log:        log,
	}
}

// Notify sends text to target. An empty target is a no-op success.
func (n *CommandNotifier) Notify(ctx context.Context, target, text string) bool {
	if target == "" {
		return true
	}
	run := n.Runner
	if run == nil {
		run = command.Default
	}
	log := n.Log
	if log == nil {
		log = io.Discard
	}
	attempts := n.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	args := []string{"message", "send", "--channel", n.Channel, "--target", target, "--message", text}

	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		err := run.Run(callCtx, n.Command, args, nil, nil)
		cancel()
		if err == nil {
			return true
		}
		fmt.Fprintf(log, "notify: %s attempt %d/%d: %v\n", n.Channel, attempt, attempts, err)
		if attempt < attempts {
			if httputil.Sleep(ctx, n.RetryDelay) != nil {
				break
			}
		}
	}
	return false
}
