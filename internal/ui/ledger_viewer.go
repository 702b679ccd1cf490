package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"ptr/internal/domain"
	"ptr/internal/ledger"
	"ptr/internal/replay"
)

// LedgerViewer browses worker ledgers in an interactive TUI
type LedgerViewer struct{}

// NewLedgerViewer creates a new LedgerViewer
func NewLedgerViewer() *LedgerViewer {
	return &LedgerViewer{}
}

// View displays the ledgers of h, read from dir: workers on the left,
// entries on the right
func (lv *LedgerViewer) View(dir string, h *replay.History) error {
	workers := h.Workers()
	if len(workers) == 0 {
		color.Yellow("No ledgers recorded in %s", dir)
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	for _, tag := range workers {
		list.AddItem(lv.workerItemText(h, tag), "", 0, nil)
	}
	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	entriesView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 2, 0, false).
		AddItem(entriesView, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 3, false)

	incomplete := len(h.Incomplete())
	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText(fmt.Sprintf(" Ledgers in %s (%d workers, %d entries, [red]%d[white] incomplete) | ↑↓ navigate, → entries, ← back, Ctrl+C exit ",
			dir, len(workers), h.Len(), incomplete))

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index < 0 || index >= len(workers) {
			return
		}
		tag := workers[index]
		statsView.SetText(lv.formatStats(h, tag))
		entriesView.SetText(lv.formatEntries(h, tag))
		entriesView.ScrollToBeginning()
	}

	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})
	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(entriesView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})
	entriesView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func (lv *LedgerViewer) workerItemText(h *replay.History, tag string) string {
	if open := countOpen(h, tag); open > 0 {
		return fmt.Sprintf("[red]![white] %s", WorkerLabel(tag))
	}
	return fmt.Sprintf("[green]✓[white] %s", WorkerLabel(tag))
}

func (lv *LedgerViewer) formatStats(h *replay.History, tag string) string {
	entries := h.Entries(tag)
	started := 0
	for _, e := range entries {
		if e.Kind == ledger.Started {
			started++
		}
	}
	return fmt.Sprintf("[cyan]file:[white] [yellow]%s[white]\n[cyan]started:[white] %d  [cyan]finished:[white] %d  [cyan]incomplete:[white] [red]%d[white]",
		ledger.FileName(tag), started, len(entries)-started, countOpen(h, tag))
}

// formatEntries renders entries using tview color tags
func (lv *LedgerViewer) formatEntries(h *replay.History, tag string) string {
	var b strings.Builder
	for _, e := range h.Entries(tag) {
		ts := e.Time.Local().Format(time.TimeOnly)
		switch {
		case e.Kind == ledger.Started && !h.Finished(e.TestID):
			fmt.Fprintf(&b, "[gray]%s[white] [red]started [white] %s [red](never finished)[white]\n", ts, tview.Escape(e.TestID))
		case e.Kind == ledger.Started:
			fmt.Fprintf(&b, "[gray]%s[white] [cyan]started [white] %s\n", ts, tview.Escape(e.TestID))
		default:
			fmt.Fprintf(&b, "[gray]%s[white] [%s]finished[white] %s [gray](%s)[white]\n", ts, outcomeColor(e), tview.Escape(e.TestID), e.Outcome)
		}
	}
	return b.String()
}

func outcomeColor(e ledger.Entry) string {
	switch e.Outcome {
	case domain.OutcomeFailed:
		return "red"
	case domain.OutcomeSkipped:
		return "yellow"
	}
	return "green"
}

// countOpen counts tests this worker started that no worker finished
func countOpen(h *replay.History, tag string) int {
	seen := make(map[string]bool)
	n := 0
	for _, e := range h.Entries(tag) {
		if e.Kind != ledger.Started || seen[e.TestID] || h.Finished(e.TestID) {
			continue
		}
		seen[e.TestID] = true
		n++
	}
	return n
}
