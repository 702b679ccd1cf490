package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ParseError reports a malformed, newline-terminated line. A torn trailing
// line without a newline is not an error; it is dropped.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: malformed ledger entry: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadFile parses the ledger at path into its entries, in file order.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not read ledger %s", path)
	}
	return parse(path, data)
}

// ReadDir reads every ledger file in dir, keyed by worker tag. The
// single-process file has the empty tag. A missing dir yields an empty map.
func ReadDir(dir string) (map[string][]Entry, error) {
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]Entry, len(paths))
	for tag, path := range paths {
		entries, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		result[tag] = entries
	}
	return result, nil
}

// List returns the path of every ledger file in dir, keyed by worker tag.
func List(dir string) (map[string]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.WithMessagef(err, "could not list ledger dir %s", dir)
	}

	paths := make(map[string]string)
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		tag, ok := ParseFileName(item.Name())
		if !ok {
			continue
		}
		paths[tag] = filepath.Join(dir, item.Name())
	}
	return paths, nil
}

// Tags returns the worker tags of a ReadDir or List result in sorted order,
// the single-process tag first.
func Tags[V any](m map[string]V) []string {
	tags := make([]string, 0, len(m))
	for tag := range m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func parse(path string, data []byte) ([]Entry, error) {
	var entries []Entry

	lineNo := 0
	for len(data) > 0 {
		lineNo++

		var line []byte
		terminated := false
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
			terminated = true
		} else {
			line, data = data, nil
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		entry, err := decode(line)
		if err != nil {
			if !terminated {
				// torn write from a crash
				break
			}
			return nil, &ParseError{Path: path, Line: lineNo, Err: err}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func decode(line []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(line, &e); err != nil {
		return Entry{}, err
	}
	if e.TestID == "" {
		return Entry{}, errors.New("missing nodeid")
	}
	switch e.Kind {
	case Started:
		if e.Outcome != "" {
			return Entry{}, errors.Errorf("started entry with outcome %q", e.Outcome)
		}
	case Finished:
		if !e.Outcome.Valid() {
			return Entry{}, errors.Errorf("finished entry with outcome %q", e.Outcome)
		}
	default:
		return Entry{}, errors.Errorf("unknown event %q", e.Kind)
	}
	return e, nil
}
