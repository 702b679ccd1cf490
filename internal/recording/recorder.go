package recording

import (
	"fmt"
	"log/slog"

	"ptr/internal/ledger"
)

// Recorder writes one worker's lifecycle events to that worker's ledger.
type Recorder struct {
	tag    string
	writer *ledger.Writer
}

// NewRecorder opens the ledger of workerTag in dir.
func NewRecorder(dir, workerTag, epoch string) (*Recorder, error) {
	w, err := ledger.Open(dir, workerTag, ledger.EpochOpt(epoch))
	if err != nil {
		return nil, err
	}
	if n := w.Repaired(); n > 0 {
		slog.Warn("dropped torn ledger line", slog.String("path", w.Path()), slog.Int64("bytes", n))
	}
	slog.Debug("ledger opened", slog.String("worker", workerTag), slog.String("path", w.Path()))
	return &Recorder{tag: workerTag, writer: w}, nil
}

// Tag returns the worker tag.
func (r *Recorder) Tag() string {
	return r.tag
}

// Path returns the ledger path.
func (r *Recorder) Path() string {
	return r.writer.Path()
}

// Handle implements Handler.
func (r *Recorder) Handle(ev Event) error {
	var err error
	switch ev.Kind {
	case TestWillRun:
		err = r.writer.RecordStart(ev.TestID)
	case TestDidRun:
		err = r.writer.RecordFinish(ev.TestID, ev.Outcome)
	case ProcessExit:
		err = r.writer.Close()
	}
	if err != nil {
		return fmt.Errorf("record %s: %w", ev.Kind, err)
	}
	return nil
}
