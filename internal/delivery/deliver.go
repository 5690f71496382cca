// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/deal-analyzer/internal/command"
	"github.com/pdiddy/deal-analyzer/internal/fsutil"
	"github.com/pdiddy/deal-analyzer/internal/notify"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

// Deliverer hands a finished report to its destination.
type Deliverer interface {
	Deliver(ctx context.Context, r Report) error
}

// Multi delivers to every member and joins their errors. One failing
// destination does not stop the others.
type Multi []Deliverer

func (m Multi) Deliver(ctx context.Context, r Report) error {
	var errs []error
	for _, d := range m {
		if err := d.Deliver(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const reportFile = "report.md"

// sectionFilePattern matches per-section files: NN-section_id.md.
var sectionFilePattern = regexp.MustCompile(`^\d{2}-.+\.md$`)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug returns a lowercase, dash-separated form of s.
func Slug(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unknown"
	}
	return s
}

// FileDeliverer writes the report into Dir/<company>-<date>/: report.md plus
// one numbered file per section.
type FileDeliverer struct {
	Dir string
	Log io.Writer
}

// ReportDir returns the directory a report is written to.
func (f *FileDeliverer) ReportDir(r Report) string {
	return filepath.Join(f.Dir, Slug(r.company())+"-"+r.Date.Format("2006-01-02"))
}

func (f *FileDeliverer) Deliver(_ context.Context, r Report) error {
	dir := f.ReportDir(r)
	if err := fsutil.WriteFileAtomic(filepath.Join(dir, reportFile), []byte(FullReport(r)), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if r.Outcome != nil {
		for i, sec := range r.Outcome.Sections {
			name := fmt.Sprintf("%02d-%s.md", i+1, sec.SectionID)
			if err := fsutil.WriteFileAtomic(filepath.Join(dir, name), []byte(sec.Text+"\n"), 0o644); err != nil {
				return fmt.Errorf("writing section %s: %w", sec.SectionID, err)
			}
		}
	}
	if f.Log != nil {
		fmt.Fprintf(f.Log, "delivery: report written to %s\n", dir)
	}
	return nil
}

// SectionFiles returns the ordered per-section file paths in a report
// directory.
func SectionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading report directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && sectionFilePattern.MatchString(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

const emailTimeout = 30 * time.Second

// MessageDeliverer sends the chat summary through a notifier and the full
// report by email through a mail CLI:
//
//	<command> gmail send --to <to> --subject <s> --body-file <f> --account <a> --force --no-input
type MessageDeliverer struct {
	Notifier     notify.Notifier
	Target       string
	Runner       command.Runner
	EmailCommand string
	EmailTo      string
	EmailAccount string
	Log          io.Writer
}

// NewMessageDeliverer creates a deliverer from configuration.
func NewMessageDeliverer(n notify.Notifier, ncfg types.NotifyConfig, dcfg types.DeliveryConfig, run command.Runner, log io.Writer) *MessageDeliverer {
	return &MessageDeliverer{
		Notifier:     n,
		Target:       ncfg.Target,
		Runner:       run,
		EmailCommand: dcfg.EmailCommand,
		EmailTo:      dcfg.EmailTo,
		EmailAccount: dcfg.EmailAccount,
		Log:          log,
	}
}

func (m *MessageDeliverer) Deliver(ctx context.Context, r Report) error {
	var errs []error
	if m.Notifier != nil && m.Target != "" {
		if !m.Notifier.Notify(ctx, m.Target, ChatSummary(r)) {
			errs = append(errs, errors.New("chat summary not delivered"))
		}
	}
	if m.EmailTo != "" {
		if err := m.email(ctx, r.Subject(), FullReport(r)); err != nil {
			errs = append(errs, err)
		} else {
			m.logf("delivery: email sent to %s\n", m.EmailTo)
		}
	}
	if m.Notifier != nil && m.Target != "" {
		m.Notifier.Notify(ctx, m.Target, fmt.Sprintf(
			"Want me to log this analysis under *%s*? Run `deal-analyzer log`.", r.company()))
	}
	return errors.Join(errs...)
}

func (m *MessageDeliverer) email(ctx context.Context, subject, body string) error {
	f, err := os.CreateTemp("", "deal-report-*.txt")
	if err != nil {
		return fmt.Errorf("creating email body: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}

	args := []string{"gmail", "send",
		"--to", m.EmailTo,
		"--subject", subject,
		"--body-file", f.Name(),
	}
	if m.EmailAccount != "" {
		args = append(args, "--account", m.EmailAccount)
	}
	args = append(args, "--force", "--no-input")

	run := m.Runner
	if run == nil {
		run = command.Default
	}
	callCtx, cancel := context.WithTimeout(ctx, emailTimeout)
	defer cancel()
	if err := run.Run(callCtx, m.EmailCommand, args, nil, nil); err != nil {
		m.logf("delivery: email failed: %v\n", err)
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (m *MessageDeliverer) logf(format string, args ...any) {
	if m.Log != nil {
		fmt.Fprintf(m.Log, format, args...)
	}
}
