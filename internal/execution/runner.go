package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"time"

	"ptr/internal/config"
	"ptr/internal/domain"
	"ptr/internal/parser"
)

// Runner executes a single PHPUnit test case
type Runner struct {
	config *config.Config
	parser parser.Parser
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, p parser.Parser) *Runner {
	return &Runner{config: cfg, parser: p}
}

// FilterFor returns the --filter expression selecting exactly one test
// method, including all of its data sets
func FilterFor(method string) string {
	return fmt.Sprintf("/::%s( with data set .*)?$/", regexp.QuoteMeta(method))
}

// Run executes PHPUnit for a single test case
func (r *Runner) Run(ctx context.Context, testID string, workerID int) (domain.TestResult, error) {
	file, method, ok := domain.SplitTestID(testID)
	if !ok {
		return domain.TestResult{}, fmt.Errorf("invalid test id %q", testID)
	}

	cmd := exec.CommandContext(ctx, r.config.GetPHPUnitPath(), "--filter", FilterFor(method), file)

	// Set environment variables
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("DB_DATABASE=%s", r.config.GetDatabaseName(workerID)),
		fmt.Sprintf("PTR_WORKER=%d", workerID),
	)

	// Set working directory
	cmd.Dir = r.config.ProjectPath

	start := time.Now()
	output, err := cmd.CombinedOutput()
	result := domain.TestResult{
		TestID:   testID,
		Worker:   workerID,
		Output:   string(output),
		Error:    err,
		Duration: time.Since(start),
	}

	exit := parser.Exit{}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, fmt.Errorf("run %s: %w", testID, err)
		}
		exit.Code = exitErr.ExitCode()
		exit.Signaled = exit.Code == -1
	}

	result.Outcome, result.Crashed = r.parser.Classify(exit, result.Output)
	return result, nil
}
