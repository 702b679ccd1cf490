package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ptr/internal/domain"
	"ptr/internal/recording"
)

// Progress receives a tally after every executed test
type Progress interface {
	Update(done, passed, failed, crashed int)
	Finish()
}

// HandlerFactory builds the lifecycle handler owned by worker index out of
// total. It is called once per worker, before the worker runs anything.
type HandlerFactory func(index, total int) (recording.Handler, error)

// Options tunes a single Execute call
type Options struct {
	Workers    int
	FailFast   bool
	NewHandler HandlerFactory
}

// WorkerPool manages a pool of workers for parallel test execution
type WorkerPool struct {
	runner    TestRunner
	scheduler Scheduler
	progress  Progress
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(runner TestRunner, scheduler Scheduler) *WorkerPool {
	return &WorkerPool{
		runner:    runner,
		scheduler: scheduler,
	}
}

// SetProgress sets the progress reporter for the worker pool
func (wp *WorkerPool) SetProgress(progress Progress) {
	wp.progress = progress
}

type tally struct {
	mu      sync.Mutex
	done    int
	passed  int
	failed  int
	crashed int
}

// errStop ends a worker early without failing the run.
var errStop = errors.New("stopped after failure")

// Execute runs tests across opts.Workers workers. Tests are assigned up front
// by the scheduler, so each worker runs its share in a stable order. Every
// worker gets its own handler, even when it has nothing to run, and sees
// TestWillRun before each test, TestDidRun after each test that did not
// crash, and ProcessExit when it stops.
//
// A handler or runner error stops all workers and is returned.
func (wp *WorkerPool) Execute(ctx context.Context, tests []string, opts Options) ([]domain.TestResult, time.Duration, error) {
	workerCount := opts.Workers
	if workerCount <= 0 {
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	assigned := wp.scheduler.Schedule(tests, workerCount)
	results := make(chan domain.TestResult, len(tests))
	counts := &tally{}
	startTime := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			err := wp.work(ctx, index, workerCount, assigned[index], opts, results, counts)
			switch {
			case errors.Is(err, errStop):
				cancel()
			case err != nil:
				fail(err)
			}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var allResults []domain.TestResult
	for result := range results {
		allResults = append(allResults, result)
	}
	if wp.progress != nil {
		wp.progress.Finish()
	}
	return allResults, time.Since(startTime), firstErr
}

func (wp *WorkerPool) work(ctx context.Context, index, total int, tests []string, opts Options, results chan<- domain.TestResult, counts *tally) (err error) {
	var handler recording.Handler = recording.Handlers{}
	if opts.NewHandler != nil {
		handler, err = opts.NewHandler(index, total)
		if err != nil {
			return fmt.Errorf("start worker %d: %w", index, err)
		}
	}
	defer func() {
		if exitErr := handler.Handle(recording.Event{Kind: recording.ProcessExit}); exitErr != nil && err == nil {
			err = fmt.Errorf("stop worker %d: %w", index, exitErr)
		}
	}()

	// Database names are 1-based, ledger tags 0-based.
	workerID := index + 1
	for _, testID := range tests {
		if ctx.Err() != nil {
			return nil
		}

		if err := handler.Handle(recording.Event{Kind: recording.TestWillRun, TestID: testID}); err != nil {
			return err
		}

		result, err := wp.runner.Run(ctx, testID, workerID)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			// killed by cancellation; the test stays incomplete
			return nil
		}

		if !result.Crashed {
			ev := recording.Event{Kind: recording.TestDidRun, TestID: testID, Outcome: result.Outcome}
			if err := handler.Handle(ev); err != nil {
				return err
			}
		}

		results <- result
		wp.count(result, counts)

		if opts.FailFast && !result.Success() {
			return errStop
		}
	}
	return nil
}

func (wp *WorkerPool) count(result domain.TestResult, counts *tally) {
	counts.mu.Lock()
	defer counts.mu.Unlock()

	counts.done++
	switch {
	case result.Crashed:
		counts.crashed++
	case result.Success():
		counts.passed++
	default:
		counts.failed++
	}
	if wp.progress != nil {
		wp.progress.Update(counts.done, counts.passed, counts.failed, counts.crashed)
	}
}
