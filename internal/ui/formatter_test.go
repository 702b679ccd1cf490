package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"ptr/internal/domain"
	"ptr/internal/ledger"
	"ptr/internal/replay"
)

func init() {
	color.NoColor = true
}

func TestFormatter_PrintTestList(t *testing.T) {
	h := replay.NewHistory(map[string][]ledger.Entry{
		"gw0": {
			{Kind: ledger.Started, TestID: "tests/ATest.php::testOne"},
			{Kind: ledger.Finished, TestID: "tests/ATest.php::testOne", Outcome: domain.OutcomePassed},
			{Kind: ledger.Started, TestID: "tests/BTest.php::testTwo"},
		},
	})
	ids := []string{
		"tests/ATest.php::testOne",
		"tests/ATest.php::testThree",
		"tests/BTest.php::testTwo",
	}

	var buf bytes.Buffer
	NewFormatter(&buf).PrintTestList(ids, h)

	want := strings.Join([]string{
		"Found 3 test case(s) in 2 file(s):",
		"",
		"├── tests/ATest.php",
		"│   ├── testOne [✓]",
		"│   └── testThree",
		"└── tests/BTest.php",
		"    └── testTwo [!]",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("PrintTestList() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatter_PrintTestList_WithoutHistory(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).PrintTestList([]string{"tests/ATest.php::testOne"}, nil)

	if strings.Contains(buf.String(), "[") {
		t.Errorf("expected no markers without history, got:\n%s", buf.String())
	}
}

func TestFormatter_PrintSelection(t *testing.T) {
	tests := []struct {
		name string
		sel  replay.Selection
		want string
	}{
		{
			name: "all",
			sel:  replay.Selection{Policy: replay.PolicyAll, IDs: []string{"a", "b"}},
			want: "Running 2 test(s)\n",
		},
		{
			name: "resume",
			sel:  replay.Selection{Policy: replay.PolicyResume, IDs: []string{"b"}},
			want: "Resuming: 1 of 3 test(s) left to run\n",
		},
		{
			name: "exact with dropped",
			sel:  replay.Selection{Policy: replay.PolicyExact, IDs: []string{"b", "a"}, Dropped: 1},
			want: "Replaying 2 test(s) in recorded order (1 no longer collected)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewFormatter(&buf).PrintSelection(tt.sel, 3)
			if got := buf.String(); got != tt.want {
				t.Errorf("PrintSelection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatter_PrintReplayDir(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).PrintReplayDir("/tmp/ledgers")
	if got := buf.String(); got != "replay dir: /tmp/ledgers\n" {
		t.Errorf("PrintReplayDir() = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	results := []domain.TestResult{
		{TestID: "a", Outcome: domain.OutcomePassed},
		{TestID: "b", Outcome: domain.OutcomeFailed},
		{TestID: "c", Outcome: domain.OutcomeSkipped},
		{TestID: "d", Crashed: true},
		{TestID: "e", Outcome: domain.OutcomePassed},
	}

	s := Summarize(results, 2*time.Second, 3)
	want := Summary{Total: 5, Passed: 2, Failed: 1, Skipped: 1, Crashed: 1, Duration: 2 * time.Second, Workers: 3}
	if s != want {
		t.Errorf("Summarize() = %+v, want %+v", s, want)
	}
	if s.Success() {
		t.Error("expected summary with failures to be unsuccessful")
	}
}

func TestFormatter_PrintSummary(t *testing.T) {
	t.Run("all passed", func(t *testing.T) {
		var buf bytes.Buffer
		s := NewFormatter(&buf).PrintSummary([]domain.TestResult{{TestID: "a", Outcome: domain.OutcomePassed}}, time.Second, 1)
		if !s.Success() || !strings.Contains(buf.String(), "All tests passed") {
			t.Errorf("unexpected summary:\n%s", buf.String())
		}
	})

	t.Run("lists failed and crashed", func(t *testing.T) {
		var buf bytes.Buffer
		NewFormatter(&buf).PrintSummary([]domain.TestResult{
			{TestID: "tests/BTest.php::testB", Crashed: true},
			{TestID: "tests/ATest.php::testA", Outcome: domain.OutcomeFailed},
		}, time.Second, 2)

		out := buf.String()
		for _, want := range []string{"[failed]  tests/ATest.php::testA", "[crashed] tests/BTest.php::testB", "1 test case(s) failed, 1 crashed"} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q:\n%s", want, out)
			}
		}
		if strings.Index(out, "testA") > strings.Index(out, "testB") {
			t.Errorf("expected failures sorted by test id:\n%s", out)
		}
	})
}

func TestFormatter_PrintLedgers(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	h := replay.NewHistory(map[string][]ledger.Entry{
		"": {
			{Kind: ledger.Started, TestID: "a::t1", Time: t0},
			{Kind: ledger.Finished, TestID: "a::t1", Outcome: domain.OutcomeFailed, Time: t0},
			{Kind: ledger.Started, TestID: "b::t1", Time: t0},
		},
	})

	var buf bytes.Buffer
	NewFormatter(&buf).PrintLedgers(h)

	out := buf.String()
	for _, want := range []string{
		"main (3 entries)",
		"2026-10-16T10:00:00Z  finished (failed) a::t1",
		"1 test(s) started but never finished:\n  b::t1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatter_PrintLedgers_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).PrintLedgers(replay.NewHistory(nil))
	if !strings.Contains(buf.String(), "No ledgers recorded") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFormatEntry(t *testing.T) {
	if got := FormatEntry(ledger.Entry{Kind: ledger.Started, TestID: "a::t"}); got != "started a::t" {
		t.Errorf("FormatEntry(started) = %q", got)
	}
	if got := FormatEntry(ledger.Entry{Kind: ledger.Finished, TestID: "a::t", Outcome: domain.OutcomeSkipped}); got != "finished (skipped) a::t" {
		t.Errorf("FormatEntry(finished) = %q", got)
	}
}

func TestCountOpen(t *testing.T) {
	h := replay.NewHistory(map[string][]ledger.Entry{
		"gw0": {
			{Kind: ledger.Started, TestID: "a"},
			{Kind: ledger.Started, TestID: "b"},
			{Kind: ledger.Started, TestID: "b"},
		},
		"gw1": {
			{Kind: ledger.Finished, TestID: "a", Outcome: domain.OutcomePassed},
		},
	})
	if got := countOpen(h, "gw0"); got != 1 {
		t.Errorf("countOpen() = %d, want 1", got)
	}
}
