// Package ledger records test starts and finishes into append-only files, one
// per worker, so that a later invocation can tell which tests completed even
// if the recording process was killed.
//
// Each file holds JSON Lines. A line is written with a single write call and
// synced before the call returns, so after a hard kill the file ends either
// with a complete line or with a torn fragment that cannot be valid JSON:
//
//	{"event":"started","nodeid":"tests/UserTest.php::testCreate","epoch":"…","time":"…"}
//	{"event":"finished","nodeid":"tests/UserTest.php::testCreate","epoch":"…","time":"…","outcome":"passed"}
//
// The single-process file is named .ptr-replay.jsonl; worker files insert the
// worker tag: .ptr-replay-gw0.jsonl.
package ledger

import (
	"strings"
	"time"

	"ptr/internal/domain"
)

const (
	// BaseName is the fixed prefix of every ledger file
	BaseName = ".ptr-replay"
	// Ext is the extension of every ledger file
	Ext = ".jsonl"
)

// Kind is the lifecycle event an Entry records.
type Kind string

const (
	Started  Kind = "started"
	Finished Kind = "finished"
)

// Entry is one line of a ledger file.
type Entry struct {
	Kind    Kind           `json:"event"`
	TestID  string         `json:"nodeid"`
	Epoch   string         `json:"epoch,omitempty"`
	Time    time.Time      `json:"time"`
	Outcome domain.Outcome `json:"outcome,omitempty"`
}

// FileName returns the ledger file name for a worker tag. The empty tag
// names the single-process file.
func FileName(workerTag string) string {
	if workerTag == "" {
		return BaseName + Ext
	}
	return BaseName + "-" + workerTag + Ext
}

// ParseFileName is the inverse of FileName. It reports false for names that
// do not follow the ledger naming convention.
func ParseFileName(name string) (workerTag string, ok bool) {
	if !strings.HasPrefix(name, BaseName) || !strings.HasSuffix(name, Ext) {
		return "", false
	}
	middle := strings.TrimSuffix(strings.TrimPrefix(name, BaseName), Ext)
	if middle == "" {
		return "", true
	}
	if !strings.HasPrefix(middle, "-") || len(middle) == 1 {
		return "", false
	}
	return middle[1:], true
}
