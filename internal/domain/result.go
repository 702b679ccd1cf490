package domain

import "time"

// Outcome is the verdict of a test that ran to completion
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePassed, OutcomeFailed, OutcomeSkipped:
		return true
	}
	return false
}

// TestResult represents the result of executing a single test case
type TestResult struct {
	TestID   string        // Identifier of the executed test case
	Worker   int           // Index of the worker that ran it
	Outcome  Outcome       // Verdict; empty when Crashed
	Crashed  bool          // PHPUnit died without reporting a verdict
	Output   string        // Raw output from PHPUnit
	Error    error         // Error if execution failed
	Duration time.Duration // Time taken to execute
}

// Success reports whether the test passed or was skipped.
func (r TestResult) Success() bool {
	return !r.Crashed && (r.Outcome == OutcomePassed || r.Outcome == OutcomeSkipped)
}
