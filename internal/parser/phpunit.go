package parser

import (
	"regexp"
	"strconv"

	"ptr/internal/domain"
)

// PHPUnit exit codes; anything else means the process died
const (
	phpunitSuccess   = 0
	phpunitFailure   = 1
	phpunitException = 2
)

var (
	okPattern      = regexp.MustCompile(`OK\s*\(\s*(\d+)\s+tests?`)
	testsPattern   = regexp.MustCompile(`Tests:\s*(\d+)`)
	failPattern    = regexp.MustCompile(`Failures:\s*(\d+)`)
	errPattern     = regexp.MustCompile(`Errors:\s*(\d+)`)
	skipPattern    = regexp.MustCompile(`Skipped:\s*(\d+)`)
	incompPattern  = regexp.MustCompile(`Incomplete:\s*(\d+)`)
	noTestsPattern = regexp.MustCompile(`No tests executed!`)
)

// PHPUnitParser parses PHPUnit test output
type PHPUnitParser struct{}

// NewPHPUnitParser creates a new PHPUnitParser
func NewPHPUnitParser() *PHPUnitParser {
	return &PHPUnitParser{}
}

// Classify maps a PHPUnit run of a single test case to its outcome. A signal,
// a PHP fatal error (255) or any other unexpected exit code is a crash: the
// test started but never reported a verdict.
func (p *PHPUnitParser) Classify(exit Exit, output string) (domain.Outcome, bool) {
	if exit.Signaled {
		return "", true
	}

	switch exit.Code {
	case phpunitSuccess:
		passed, _, skipped := p.ParseTestCounts(output)
		if passed == 0 && (skipped > 0 || noTestsPattern.MatchString(output)) {
			return domain.OutcomeSkipped, false
		}
		return domain.OutcomePassed, false
	case phpunitFailure, phpunitException:
		return domain.OutcomeFailed, false
	default:
		return "", true
	}
}

// ParseTestCounts extracts passed, failed and skipped test case counts from
// PHPUnit output. Incomplete tests count as skipped.
func (p *PHPUnitParser) ParseTestCounts(output string) (passed, failed, skipped int) {
	// OK (N tests, ...) - all passed
	if m := okPattern.FindStringSubmatch(output); len(m) >= 2 {
		return atoi(m[1]), 0, 0
	}

	// Tests: N, Assertions: ..., Failures: F, Errors: E, Skipped: S
	total := firstInt(testsPattern, output)
	failed = firstInt(failPattern, output) + firstInt(errPattern, output)
	skipped = firstInt(skipPattern, output) + firstInt(incompPattern, output)
	if total >= failed+skipped {
		passed = total - failed - skipped
	}
	return passed, failed, skipped
}

func firstInt(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0
	}
	return atoi(m[1])
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
