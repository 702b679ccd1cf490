package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"ptr/internal/domain"
	"ptr/internal/ledger"
	"ptr/internal/replay"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

// Formatter formats and displays output
type Formatter struct {
	out io.Writer
}

// NewFormatter creates a new Formatter writing to out. A nil out writes to
// the color-aware standard output.
func NewFormatter(out io.Writer) *Formatter {
	if out == nil {
		out = color.Output
	}
	return &Formatter{out: out}
}

// PrintReplayDir announces where ledgers are recorded
func (f *Formatter) PrintReplayDir(dir string) {
	fmt.Fprintf(f.out, "replay dir: %s\n", dir)
}

// PrintSelection describes what the replay selector chose to run
func (f *Formatter) PrintSelection(sel replay.Selection, collected int) {
	switch sel.Policy {
	case replay.PolicyResume:
		yellow.Fprintf(f.out, "Resuming: %d of %d test(s) left to run\n", len(sel.IDs), collected)
	case replay.PolicyExact:
		yellow.Fprintf(f.out, "Replaying %d test(s) in recorded order", len(sel.IDs))
		if sel.Dropped > 0 {
			fmt.Fprintf(f.out, " (%d no longer collected)", sel.Dropped)
		}
		fmt.Fprintln(f.out)
	default:
		cyan.Fprintf(f.out, "Running %d test(s)\n", len(sel.IDs))
	}
}

type fileGroup struct {
	path    string
	methods []string
}

// groupByFile splits test ids by file, keeping first-seen order
func groupByFile(ids []string) []fileGroup {
	var groups []fileGroup
	index := make(map[string]int)
	for _, id := range ids {
		file, method, ok := domain.SplitTestID(id)
		if !ok {
			file, method = id, ""
		}
		i, seen := index[file]
		if !seen {
			i = len(groups)
			index[file] = i
			groups = append(groups, fileGroup{path: file})
		}
		if method != "" {
			groups[i].methods = append(groups[i].methods, method)
		}
	}
	return groups
}

// marker returns the ledger state of a test: [✓] finished, [!] started but
// never finished, nothing when the ledger does not know it.
func marker(h *replay.History, id string) string {
	switch {
	case h.Finished(id):
		return " " + green.Sprint("[✓]")
	case h.Started(id):
		return " " + red.Sprint("[!]")
	}
	return ""
}

// PrintTestList prints collected tests as a tree of files and methods. When
// h is not nil every test is marked with its ledger state.
func (f *Formatter) PrintTestList(ids []string, h *replay.History) {
	groups := groupByFile(ids)
	green.Fprintf(f.out, "Found %d test case(s) in %d file(s):\n\n", len(ids), len(groups))

	for i, group := range groups {
		isLastFile := i == len(groups)-1
		if isLastFile {
			cyan.Fprintf(f.out, "└── %s\n", group.path)
		} else {
			cyan.Fprintf(f.out, "├── %s\n", group.path)
		}

		for j, method := range group.methods {
			isLastCase := j == len(group.methods)-1

			var prefix string
			if isLastFile {
				if isLastCase {
					prefix = "    └── "
				} else {
					prefix = "    ├── "
				}
			} else {
				if isLastCase {
					prefix = "│   └── "
				} else {
					prefix = "│   ├── "
				}
			}

			id := domain.NewTestID(group.path, method)
			fmt.Fprintf(f.out, "%s%s%s\n", prefix, yellow.Sprint(method), marker(h, id))
		}
	}
}

// Summary is the outcome tally of one run
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Crashed  int
	Duration time.Duration
	Workers  int
}

// Summarize tallies results
func Summarize(results []domain.TestResult, duration time.Duration, workers int) Summary {
	s := Summary{Total: len(results), Duration: duration, Workers: workers}
	for _, r := range results {
		switch {
		case r.Crashed:
			s.Crashed++
		case r.Outcome == domain.OutcomeFailed:
			s.Failed++
		case r.Outcome == domain.OutcomeSkipped:
			s.Skipped++
		default:
			s.Passed++
		}
	}
	return s
}

// Success reports whether nothing failed or crashed
func (s Summary) Success() bool {
	return s.Failed == 0 && s.Crashed == 0
}

// PrintSummary prints the run statistics table followed by the failed and
// crashed tests
func (f *Formatter) PrintSummary(results []domain.TestResult, duration time.Duration, workers int) Summary {
	s := Summarize(results, duration, workers)

	fmt.Fprintln(f.out)
	cyan.Fprintln(f.out, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(f.out, "║                    Test Execution Statistics                  ║")
	cyan.Fprintln(f.out, "╚═══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(f.out)

	fmt.Fprintln(f.out, "┌─────────────────────────────────┬─────────────────────────────┐")
	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Total Test Cases", fmt.Sprint(s.Total), white},
		{"Passed", fmt.Sprint(s.Passed), green},
		{"Failed", fmt.Sprint(s.Failed), red},
		{"Skipped", fmt.Sprint(s.Skipped), yellow},
		{"Crashed", fmt.Sprint(s.Crashed), red},
		{"Duration", fmt.Sprintf("%.2fs", s.Duration.Seconds()), white},
		{"Workers", fmt.Sprint(s.Workers), white},
	}
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-31s │ ", row.label)
		row.c.Fprintf(f.out, "%-27s", row.value)
		fmt.Fprintln(f.out, " │")
		if i < len(rows)-1 {
			fmt.Fprintln(f.out, "├─────────────────────────────────┼─────────────────────────────┤")
		}
	}
	fmt.Fprintln(f.out, "└─────────────────────────────────┴─────────────────────────────┘")
	fmt.Fprintln(f.out)

	if s.Success() {
		green.Fprintln(f.out, "✓ All tests passed!")
		return s
	}

	red.Fprintf(f.out, "✗ %d test case(s) failed, %d crashed\n\n", s.Failed, s.Crashed)
	var bad []domain.TestResult
	for _, r := range results {
		if !r.Success() {
			bad = append(bad, r)
		}
	}
	sort.SliceStable(bad, func(i, j int) bool { return bad[i].TestID < bad[j].TestID })
	for _, r := range bad {
		if r.Crashed {
			fmt.Fprintf(f.out, "  %s %s\n", red.Sprint("[crashed]"), r.TestID)
		} else {
			fmt.Fprintf(f.out, "  %s  %s\n", red.Sprint("[failed]"), r.TestID)
		}
	}
	return s
}

// PrintLedgers prints every worker ledger of h as plain text
func (f *Formatter) PrintLedgers(h *replay.History) {
	workers := h.Workers()
	if len(workers) == 0 {
		yellow.Fprintln(f.out, "No ledgers recorded")
		return
	}

	for _, tag := range workers {
		entries := h.Entries(tag)
		cyan.Fprintf(f.out, "%s (%d entries)\n", WorkerLabel(tag), len(entries))
		for _, e := range entries {
			fmt.Fprintf(f.out, "  %s  %s\n", e.Time.Format(time.RFC3339), FormatEntry(e))
		}
	}

	incomplete := h.Incomplete()
	fmt.Fprintln(f.out)
	if len(incomplete) == 0 {
		green.Fprintln(f.out, "✓ Every started test finished")
		return
	}
	red.Fprintf(f.out, "✗ %d test(s) started but never finished:\n", len(incomplete))
	for _, id := range incomplete {
		fmt.Fprintf(f.out, "  %s\n", id)
	}
}

// WorkerLabel names a worker tag for display
func WorkerLabel(tag string) string {
	if tag == "" {
		return "main"
	}
	return tag
}

// FormatEntry renders one ledger entry without color
func FormatEntry(e ledger.Entry) string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Kind == ledger.Finished {
		b.WriteString(" (")
		b.WriteString(string(e.Outcome))
		b.WriteString(")")
	}
	b.WriteString(" ")
	b.WriteString(e.TestID)
	return b.String()
}
