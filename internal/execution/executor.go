package execution

import (
	"context"

	"ptr/internal/domain"
)

// TestRunner executes one test case on behalf of a worker. An error means
// the test could not be started at all, not that it failed.
type TestRunner interface {
	Run(ctx context.Context, testID string, workerID int) (domain.TestResult, error)
}
