package replay

import (
	"fmt"
	"os"

	"ptr/internal/domain"
	"ptr/internal/ledger"
)

// History is the merged view of every worker ledger from a prior run. Each
// worker keeps its own order; no order across workers is implied.
type History struct {
	ledgers  map[string][]ledger.Entry
	started  map[string]bool
	finished map[string]bool
	outcomes map[string]ledger.Entry
}

// NewHistory merges per-worker ledgers, keyed by worker tag.
func NewHistory(ledgers map[string][]ledger.Entry) *History {
	h := &History{
		ledgers:  ledgers,
		started:  make(map[string]bool),
		finished: make(map[string]bool),
		outcomes: make(map[string]ledger.Entry),
	}
	for _, entries := range ledgers {
		for _, e := range entries {
			switch e.Kind {
			case ledger.Started:
				h.started[e.TestID] = true
			case ledger.Finished:
				h.finished[e.TestID] = true
				if prev, ok := h.outcomes[e.TestID]; !ok || !e.Time.Before(prev.Time) {
					h.outcomes[e.TestID] = e
				}
			}
		}
	}
	return h
}

// LoadHistory reads every ledger in dir.
func LoadHistory(dir string) (*History, error) {
	ledgers, err := ledger.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return NewHistory(ledgers), nil
}

// LoadLedger reads the single ledger named for an exact replay.
func LoadLedger(path string) ([]ledger.Entry, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNoLedger, path)
	}
	return ledger.ReadFile(path)
}

// Len returns the number of entries across all workers.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	n := 0
	for _, entries := range h.ledgers {
		n += len(entries)
	}
	return n
}

// Workers returns the worker tags present, sorted.
func (h *History) Workers() []string {
	if h == nil {
		return nil
	}
	return ledger.Tags(h.ledgers)
}

// Entries returns the entries of one worker in file order.
func (h *History) Entries(workerTag string) []ledger.Entry {
	if h == nil {
		return nil
	}
	return h.ledgers[workerTag]
}

// Finished reports whether any worker recorded testID as finished.
func (h *History) Finished(testID string) bool {
	return h != nil && h.finished[testID]
}

// Outcome returns the most recently recorded outcome of testID, or "" when
// it never finished.
func (h *History) Outcome(testID string) domain.Outcome {
	if h == nil {
		return ""
	}
	return h.outcomes[testID].Outcome
}

// Started reports whether any worker recorded testID as started.
func (h *History) Started(testID string) bool {
	return h != nil && h.started[testID]
}

// Incomplete returns the tests that were started but never finished, in
// worker tag order and then file order.
func (h *History) Incomplete() []string {
	if h == nil {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, tag := range h.Workers() {
		for _, e := range h.ledgers[tag] {
			if e.Kind != ledger.Started || h.finished[e.TestID] || seen[e.TestID] {
				continue
			}
			seen[e.TestID] = true
			ids = append(ids, e.TestID)
		}
	}
	return ids
}

// LatestEpoch returns the epoch of the most recently written entry, or ""
// when the history is empty or was written without epochs.
func (h *History) LatestEpoch() string {
	if h == nil {
		return ""
	}
	var (
		latest ledger.Entry
		found  bool
	)
	for _, entries := range h.ledgers {
		for _, e := range entries {
			if !found || e.Time.After(latest.Time) {
				latest = e
				found = true
			}
		}
	}
	return latest.Epoch
}

// Epoch returns the part of the history written under epoch. Workers with no
// entries in that epoch are omitted.
func (h *History) Epoch(epoch string) *History {
	if h == nil {
		return nil
	}
	ledgers := make(map[string][]ledger.Entry)
	for tag, entries := range h.ledgers {
		kept := FilterEpoch(entries, epoch)
		if len(kept) > 0 {
			ledgers[tag] = kept
		}
	}
	return NewHistory(ledgers)
}

// FilterEpoch returns the entries written under epoch, in order.
func FilterEpoch(entries []ledger.Entry, epoch string) []ledger.Entry {
	var kept []ledger.Entry
	for _, e := range entries {
		if e.Epoch == epoch {
			kept = append(kept, e)
		}
	}
	return kept
}
