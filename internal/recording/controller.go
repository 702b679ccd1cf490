package recording

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"ptr/internal/domain"
	"ptr/internal/ledger"
	"ptr/internal/replay"
	"ptr/internal/storage"
)

// Mode is the replay configuration the host must honor before running tests.
type Mode struct {
	RecordDir  string // ledger directory; empty disables recording
	ReplayFile string // ledger to replay in exact order
	Resume     bool   // resume from RecordDir
	AutoResume bool   // resume when the previous session did not exit cleanly
	Workers    int
}

// Controller owns one invocation: it selects the tests to run when the
// collection is complete and keeps the session marker up to date.
type Controller struct {
	mode    Mode
	storage storage.Storage
	now     func() time.Time

	mu        sync.Mutex
	prepared  bool
	session   domain.Session
	selection replay.Selection
	pending   map[string]int
}

// NewController creates a Controller. st may be nil when nothing should be
// persisted.
func NewController(mode Mode, st storage.Storage) *Controller {
	return &Controller{
		mode:    mode,
		storage: st,
		now:     time.Now,
		pending: make(map[string]int),
	}
}

// Handle implements Handler for CollectionComplete and ProcessExit. Test
// events are accepted too, see Track.
func (c *Controller) Handle(ev Event) error {
	switch ev.Kind {
	case CollectionComplete:
		return c.collectionComplete(ev.Collected)
	case TestWillRun, TestDidRun:
		return c.Track(ev)
	case ProcessExit:
		return c.processExit()
	}
	return nil
}

// Track follows test events to learn which tests never finished. Workers
// share it, so it is safe for concurrent use.
func (c *Controller) Track(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case TestWillRun:
		c.pending[ev.TestID]++
	case TestDidRun:
		if c.pending[ev.TestID] <= 1 {
			delete(c.pending, ev.TestID)
		} else {
			c.pending[ev.TestID]--
		}
	}
	return nil
}

// Selection returns the tests chosen at CollectionComplete.
func (c *Controller) Selection() replay.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// Session returns a copy of the current session.
func (c *Controller) Session() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Epoch returns the epoch new ledger entries must carry.
func (c *Controller) Epoch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Epoch
}

func (c *Controller) collectionComplete(collected []string) error {
	runID, err := newRunID()
	if err != nil {
		return err
	}

	session := domain.Session{
		RunID:     runID,
		Epoch:     runID,
		StartedAt: c.now().UTC(),
		Workers:   c.mode.Workers,
		Collected: len(collected),
	}

	selector := &replay.Selector{Policy: replay.PolicyAll}
	switch {
	case c.mode.ReplayFile != "":
		entries, err := replay.LoadLedger(c.mode.ReplayFile)
		if err != nil {
			return err
		}
		latest := replay.NewHistory(map[string][]ledger.Entry{"": entries}).LatestEpoch()
		selector = &replay.Selector{Policy: replay.PolicyExact, Entries: replay.FilterEpoch(entries, latest)}
		session.ReplayFile = c.mode.ReplayFile

	case c.mode.RecordDir != "":
		resume, err := c.shouldResume()
		if err != nil {
			return err
		}
		if !resume {
			break
		}
		history, err := replay.LoadHistory(c.mode.RecordDir)
		if err != nil {
			return err
		}
		if history.Len() == 0 {
			slog.Info("nothing to resume, running the full collection", slog.String("dir", c.mode.RecordDir))
			break
		}
		latest := history.LatestEpoch()
		selector = &replay.Selector{Policy: replay.PolicyResume, History: history.Epoch(latest)}
		if latest != "" {
			session.Epoch = latest
		}
	}

	selection := selector.Select(collected)
	session.Policy = selection.Policy.String()
	session.Selected = len(selection.IDs)

	slog.Debug("tests selected",
		slog.String("policy", session.Policy),
		slog.Int("collected", len(collected)),
		slog.Int("selected", len(selection.IDs)),
		slog.Int("dropped", selection.Dropped),
	)

	if c.storage != nil {
		if err := c.storage.Save(&session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}

	c.mu.Lock()
	c.session = session
	c.selection = selection
	c.prepared = true
	c.mu.Unlock()
	return nil
}

func (c *Controller) shouldResume() (bool, error) {
	if c.mode.Resume {
		return true, nil
	}
	if !c.mode.AutoResume || c.storage == nil {
		return false, nil
	}

	prev, err := c.storage.Load()
	if errors.Is(err, storage.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		slog.Warn("ignoring unreadable session", slog.String("error", err.Error()))
		return false, nil
	}
	if prev.CleanExit {
		return false, nil
	}

	slog.Warn("previous run did not exit cleanly, resuming",
		slog.String("run_id", prev.RunID),
		slog.Time("started_at", prev.StartedAt),
	)
	return true, nil
}

func (c *Controller) processExit() error {
	c.mu.Lock()
	if !c.prepared {
		c.mu.Unlock()
		return nil
	}
	crashed := make([]string, 0, len(c.pending))
	for id := range c.pending {
		crashed = append(crashed, id)
	}
	sort.Strings(crashed)

	c.session.FinishedAt = c.now().UTC()
	c.session.Crashed = crashed
	c.session.CleanExit = len(crashed) == 0
	session := c.session
	c.mu.Unlock()

	if c.storage == nil {
		return nil
	}
	if err := c.storage.Save(&session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func newRunID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate run ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}
