package ledger

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"ptr/internal/domain"
)

// Writer appends entries to one worker's ledger file. A Writer is owned by a
// single worker and is not safe for concurrent use.
type Writer struct {
	path     string
	epoch    string
	file     *os.File
	now      func() time.Time
	repaired int64
}

// WriterOpt customizes a Writer.
type WriterOpt func(*Writer)

// EpochOpt stamps every entry written with the given epoch.
func EpochOpt(epoch string) WriterOpt {
	return func(w *Writer) {
		w.epoch = epoch
	}
}

// TimeSourceOpt overrides the clock used to timestamp entries.
func TimeSourceOpt(now func() time.Time) WriterOpt {
	return func(w *Writer) {
		w.now = now
	}
}

// Open creates dir if needed and opens the ledger file for workerTag in
// append mode. An existing file is never truncated. The path is resolved to
// an absolute path here, once, so later working directory changes have no
// effect on where entries land.
func Open(dir, workerTag string, opts ...WriterOpt) (*Writer, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not resolve ledger dir %s", dir)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, errors.WithMessagef(err, "could not create ledger dir %s", absDir)
	}

	path := filepath.Join(absDir, FileName(workerTag))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not open ledger %s", path)
	}

	repaired, err := dropTornTail(file)
	if err != nil {
		file.Close()
		return nil, errors.WithMessagef(err, "could not repair ledger %s", path)
	}

	w := &Writer{
		path:     path,
		file:     file,
		now:      time.Now,
		repaired: repaired,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path of the ledger file.
func (w *Writer) Path() string {
	return w.path
}

// Repaired returns how many bytes of a torn trailing line, left behind by a
// crashed writer, were dropped when the file was opened.
func (w *Writer) Repaired() int64 {
	return w.repaired
}

// RecordStart durably records that testID is about to run.
func (w *Writer) RecordStart(testID string) error {
	return w.append(Entry{
		Kind:   Started,
		TestID: testID,
	})
}

// RecordFinish durably records that testID ran to completion with the given
// outcome. Hosts that cannot tell a completed test from a crashed one should
// not call it; the test then stays incomplete.
func (w *Writer) RecordFinish(testID string, outcome domain.Outcome) error {
	if !outcome.Valid() {
		return errors.Errorf("invalid outcome %q for %s", outcome, testID)
	}
	return w.append(Entry{
		Kind:    Finished,
		TestID:  testID,
		Outcome: outcome,
	})
}

// Close releases the file. Every entry was already synced when written.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return errors.WithMessagef(err, "could not close ledger %s", w.path)
	}
	return nil
}

func (w *Writer) append(e Entry) error {
	if w.file == nil {
		return errors.Errorf("ledger %s is closed", w.path)
	}
	if e.TestID == "" {
		return errors.Errorf("empty test id for ledger %s", w.path)
	}
	e.Epoch = w.epoch
	e.Time = w.now().UTC()

	line, err := json.Marshal(e)
	if err != nil {
		return errors.WithMessage(err, "could not marshal ledger entry")
	}
	line = append(line, '\n')

	// One write per entry, see the package doc.
	if _, err := w.file.Write(line); err != nil {
		return errors.WithMessagef(err, "could not append to ledger %s", w.path)
	}
	if err := w.file.Sync(); err != nil {
		return errors.WithMessagef(err, "could not sync ledger %s", w.path)
	}
	return nil
}

// dropTornTail makes sure entries appended by this writer start on a fresh
// line. Complete lines are never touched.
func dropTornTail(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}

	const chunk = 4096
	buf := make([]byte, chunk)
	end := size
	for end > 0 {
		start := end - chunk
		if start < 0 {
			start = 0
		}
		n, err := f.ReadAt(buf[:end-start], start)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if end == size && n > 0 && buf[n-1] == '\n' {
			return 0, nil
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			return terminateTail(f, start+int64(i)+1, size)
		}
		end = start
	}
	return terminateTail(f, 0, size)
}

// terminateTail handles the unterminated bytes between keep and size. An
// entry that decodes but lost its newline is kept and terminated, since the
// reader counts it. Anything else is debris and is truncated.
func terminateTail(f *os.File, keep, size int64) (int64, error) {
	tail := make([]byte, size-keep)
	if _, err := f.ReadAt(tail, keep); err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if line := bytes.TrimSpace(tail); len(line) > 0 {
		if _, err := decode(line); err == nil {
			if _, err := f.Write([]byte{'\n'}); err != nil {
				return 0, err
			}
			return 0, f.Sync()
		}
	}
	return size - keep, truncate(f, keep)
}

func truncate(f *os.File, size int64) error {
	if err := f.Truncate(size); err != nil {
		return err
	}
	return f.Sync()
}
