// Package recording connects the host's test lifecycle to the ledger. The
// host fires Events; a Recorder per worker writes them down and a Controller
// per invocation decides what to run.
package recording

import (
	"fmt"

	"ptr/internal/domain"
)

// EventKind identifies a lifecycle hook of the host.
type EventKind int

const (
	// CollectionComplete fires once with the ordered collection.
	CollectionComplete EventKind = iota
	// TestWillRun fires immediately before a test executes.
	TestWillRun
	// TestDidRun fires after a test executed without crashing.
	TestDidRun
	// ProcessExit fires at worker or process teardown. It never fires when
	// the process is killed.
	ProcessExit
)

func (k EventKind) String() string {
	switch k {
	case CollectionComplete:
		return "CollectionComplete"
	case TestWillRun:
		return "TestWillRun"
	case TestDidRun:
		return "TestDidRun"
	case ProcessExit:
		return "ProcessExit"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered by the host at a lifecycle point.
type Event struct {
	Kind      EventKind
	TestID    string         // TestWillRun, TestDidRun
	Outcome   domain.Outcome // TestDidRun
	Collected []string       // CollectionComplete
}

// Handler receives lifecycle events. An error from a Handler is fatal to the
// run.
type Handler interface {
	Handle(ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ev Event) error {
	return f(ev)
}

// Handlers fans an event out to several handlers in order, stopping at the
// first error.
type Handlers []Handler

// Handle implements Handler.
func (hs Handlers) Handle(ev Event) error {
	for _, h := range hs {
		if h == nil {
			continue
		}
		if err := h.Handle(ev); err != nil {
			return err
		}
	}
	return nil
}

// WorkerTag returns the ledger tag of worker index (0-based) out of total.
// A lone worker records into the single-process file.
func WorkerTag(index, total int) string {
	if total <= 1 {
		return ""
	}
	return fmt.Sprintf("gw%d", index)
}
