// Package replay decides which of the currently collected tests to run,
// given the ledgers of a prior run.
package replay

import (
	"errors"
	"fmt"
	"sort"

	"ptr/internal/ledger"
)

// ErrNoLedger is returned when an exact replay names a ledger that does not
// exist.
var ErrNoLedger = errors.New("replay ledger not found")

// Policy selects how a prior run maps onto the current collection.
type Policy int

const (
	// PolicyAll runs the whole collection in collection order.
	PolicyAll Policy = iota
	// PolicyResume skips every test recorded as finished.
	PolicyResume
	// PolicyExact runs the started tests of one ledger in recorded order.
	PolicyExact
)

func (p Policy) String() string {
	switch p {
	case PolicyAll:
		return "all"
	case PolicyResume:
		return "resume"
	case PolicyExact:
		return "exact"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Selection is the replay set handed back to the host.
type Selection struct {
	Policy Policy
	IDs    []string
	// Dropped counts ledger tests that are no longer collected.
	Dropped int
}

// Resume returns every collected test without a finished record in h, in
// collection order. Finished wins over started regardless of order. A nil or
// empty history selects the whole collection.
func Resume(collected []string, h *History) []string {
	ids := make([]string, 0, len(collected))
	for _, id := range collected {
		if h.Finished(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Exact returns the tests started in entries, in the order they were
// started, restricted to the collection. When a test was started more than
// once its last start decides its position.
func Exact(collected []string, entries []ledger.Entry) []string {
	ids, _ := exact(collected, entries)
	return ids
}

func exact(collected []string, entries []ledger.Entry) ([]string, int) {
	present := make(map[string]bool, len(collected))
	for _, id := range collected {
		present[id] = true
	}

	last := make(map[string]int)
	for i, e := range entries {
		if e.Kind == ledger.Started {
			last[e.TestID] = i
		}
	}

	type positioned struct {
		id  string
		pos int
	}
	ordered := make([]positioned, 0, len(last))
	dropped := 0
	for id, pos := range last {
		if !present[id] {
			dropped++
			continue
		}
		ordered = append(ordered, positioned{id: id, pos: pos})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].pos < ordered[j].pos
	})

	ids := make([]string, len(ordered))
	for i, p := range ordered {
		ids[i] = p.id
	}
	return ids, dropped
}

// Selector applies a Policy. History is consulted for PolicyResume and
// Entries for PolicyExact.
type Selector struct {
	Policy  Policy
	History *History
	Entries []ledger.Entry
}

// Select computes the replay set for the current collection.
func (s *Selector) Select(collected []string) Selection {
	switch s.Policy {
	case PolicyResume:
		ids := Resume(collected, s.History)
		return Selection{Policy: s.Policy, IDs: ids}
	case PolicyExact:
		ids, dropped := exact(collected, s.Entries)
		return Selection{Policy: s.Policy, IDs: ids, Dropped: dropped}
	default:
		ids := make([]string, len(collected))
		copy(ids, collected)
		return Selection{Policy: PolicyAll, IDs: ids}
	}
}
