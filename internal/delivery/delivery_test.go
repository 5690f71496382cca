// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package delivery

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deal-analyzer/internal/command"
	"github.com/pdiddy/deal-analyzer/internal/sections"
	"github.com/pdiddy/deal-analyzer/pkg/types"
)

func testReport(memo string) Report {
	var results []types.SectionResult
	for _, task := range sections.Sections() {
		results = append(results, types.NewSectionResult(task.ID, task.Title, "## "+task.Title+"\nBody of "+task.ID))
	}
	syn := sections.Synthesis()
	results = append(results, types.NewSectionResult(syn.ID, syn.Title, memo))
	return Report{
		Record:  types.DeckRecord{CompanyName: types.Str("Acme Freight, Inc."), Industry: types.Str("logistics")},
		Outcome: &types.AnalysisOutcome{Sections: results, TLDR: "Promising logistics play."},
		Date:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFullReport(t *testing.T) {
	out := FullReport(testReport("## 12. Investment Memo Summary\nRecommendation: DIG DEEPER"))

	assert.True(t, strings.HasPrefix(out, "# Investment Analysis: Acme Freight, Inc.\n*Generated: March 1, 2026"))
	tldr := strings.Index(out, "**TL;DR:** Promising logistics play.")
	first := strings.Index(out, "Body of "+sections.Sections()[0].ID)
	last := strings.Index(out, "Body of "+sections.Sections()[10].ID)
	memo := strings.Index(out, "Recommendation: DIG DEEPER")
	require.True(t, tldr >= 0 && first >= 0 && last >= 0 && memo >= 0)
	assert.True(t, tldr < first && first < last && last < memo, "TL;DR, sections, then memo")
	assert.True(t, strings.HasSuffix(out, "independent due diligence.*"))
}

func TestFullReport_MissingSections(t *testing.T) {
	r := Report{Record: types.DeckRecord{}, Outcome: &types.AnalysisOutcome{}}
	out := FullReport(r)
	assert.Contains(t, out, "# Investment Analysis: Unknown Company")
	assert.Equal(t, 11, strings.Count(out, missingSection))
	assert.Contains(t, out, missingSynthesis)
	assert.NotContains(t, out, "TL;DR")
}

func TestChatSummary_TruncatesMemo(t *testing.T) {
	out := ChatSummary(testReport(strings.Repeat("z", 4000)))
	assert.Contains(t, out, "*Deal Evaluation: Acme Freight, Inc.*")
	assert.Contains(t, out, "*TL;DR:* Promising logistics play.")
	assert.Equal(t, ChatMemoLimit, strings.Count(out, "z"))
}

func TestCRMNote(t *testing.T) {
	short := CRMNote(testReport("Recommendation: PASS"))
	assert.True(t, strings.HasPrefix(short, "DEAL EVALUATION: Acme Freight, Inc. (AI-Generated, Mar 01 2026)"))
	assert.Contains(t, short, "TL;DR: Promising logistics play.")
	assert.Contains(t, short, "Recommendation: PASS")
	assert.NotContains(t, short, "[Full 12-section")

	long := CRMNote(testReport(strings.Repeat("x", 3500)))
	assert.Equal(t, NoteMemoLimit, strings.Count(long, "x"))
	assert.Contains(t, long, "[Full 12-section analysis available in the report]")

	empty := CRMNote(Report{Outcome: &types.AnalysisOutcome{}})
	assert.Contains(t, empty, "No analysis available")
}

func TestQuickSummary(t *testing.T) {
	out := QuickSummary(types.DeckRecord{CompanyName: types.Str("Acme"), Industry: types.Str("logistics")})
	assert.True(t, strings.HasPrefix(out, "*Quick Analysis: Acme*"))
	assert.Contains(t, out, "Industry: logistics")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "acme-freight-inc", Slug("Acme Freight, Inc."))
	assert.Equal(t, "unknown", Slug("!!!"))
}

func TestFileDeliverer(t *testing.T) {
	dir := t.TempDir()
	f := &FileDeliverer{Dir: dir}
	r := testReport("memo")
	require.NoError(t, f.Deliver(context.Background(), r))

	reportDir := filepath.Join(dir, "acme-freight-inc-2026-03-01")
	assert.Equal(t, reportDir, f.ReportDir(r))
	data, err := os.ReadFile(filepath.Join(reportDir, "report.md"))
	require.NoError(t, err)
	assert.Equal(t, FullReport(r), string(data))

	files, err := SectionFiles(reportDir)
	require.NoError(t, err)
	require.Len(t, files, 12)
	assert.Equal(t, "01-"+sections.Sections()[0].ID+".md", filepath.Base(files[0]))
	assert.Equal(t, "12-investment_memo.md", filepath.Base(files[11]))
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
	ok   bool
}

func (n *recordingNotifier) Notify(_ context.Context, _, text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, text)
	return n.ok
}

func TestMessageDeliverer(t *testing.T) {
	var body string
	run := &command.Fake{Handler: func(call command.Call, _ io.Writer) error {
		for i, a := range call.Args {
			if a == "--body-file" {
				b, _ := os.ReadFile(call.Args[i+1])
				body = string(b)
			}
		}
		return nil
	}}
	n := &recordingNotifier{ok: true}
	m := &MessageDeliverer{
		Notifier: n, Target: "+15550100", Runner: run,
		EmailCommand: "gog", EmailTo: "partner@fund.com", EmailAccount: "bot@fund.com",
	}
	r := testReport("memo")
	require.NoError(t, m.Deliver(context.Background(), r))

	require.Len(t, n.msgs, 2)
	assert.Equal(t, ChatSummary(r), n.msgs[0])
	assert.Contains(t, n.msgs[1], "deal-analyzer log")

	calls := run.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "gog", calls[0].Name)
	line := calls[0].Line()
	assert.Contains(t, line, "gmail send --to partner@fund.com --subject Deal Evaluation: Acme Freight, Inc. --body-file")
	assert.True(t, strings.HasSuffix(line, "--account bot@fund.com --force --no-input"))
	assert.Equal(t, FullReport(r), body)
}

func TestMessageDeliverer_Failures(t *testing.T) {
	run := &command.Fake{Handler: func(command.Call, io.Writer) error {
		return &command.ExitError{Name: "gog", Code: 1, Stderr: "auth"}
	}}
	m := &MessageDeliverer{
		Notifier: &recordingNotifier{ok: false}, Target: "+1", Runner: run,
		EmailCommand: "gog", EmailTo: "partner@fund.com",
	}
	err := m.Deliver(context.Background(), testReport("memo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat summary not delivered")
	var exitErr *command.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

type failing struct{ err error }

func (f failing) Deliver(context.Context, Report) error { return f.err }

func TestMulti(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")
	m := Multi{failing{boom}, &FileDeliverer{Dir: dir}, failing{nil}}
	err := m.Deliver(context.Background(), testReport("memo"))
	assert.ErrorIs(t, err, boom)

	_, statErr := os.Stat(filepath.Join(dir, "acme-freight-inc-2026-03-01", "report.md"))
	assert.NoError(t, statErr, "later deliverers still run")
	assert.NoError(t, Multi{}.Deliver(context.Background(), Report{}))
}
