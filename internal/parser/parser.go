package parser

import "ptr/internal/domain"

// Parser turns the exit status and output of one test process into a verdict
type Parser interface {
	Classify(exit Exit, output string) (outcome domain.Outcome, crashed bool)
}

// Exit is how a test process terminated
type Exit struct {
	Code     int  // Exit code; meaningless when Signaled
	Signaled bool // Killed by a signal
}
