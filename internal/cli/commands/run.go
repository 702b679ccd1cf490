package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ptr/internal/config"
	"ptr/internal/discovery"
	"ptr/internal/execution"
	"ptr/internal/recording"
	"ptr/internal/storage"
	"ptr/internal/ui"
	"ptr/internal/workerdb"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	collector *discovery.Collector
	filter    *discovery.Filter
	executor  *execution.WorkerPool
	storage   storage.Storage
	formatter *ui.Formatter
	databases *workerdb.DatabaseManager
	progress  bool
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	collector *discovery.Collector,
	filter *discovery.Filter,
	executor *execution.WorkerPool,
	st storage.Storage,
	formatter *ui.Formatter,
	databases *workerdb.DatabaseManager,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		collector: collector,
		filter:    filter,
		executor:  executor,
		storage:   st,
		formatter: formatter,
		databases: databases,
		progress:  true,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Resolved once; later working directory changes must not move the ledgers
	recordDir := rc.config.GetRecordDir()
	replayFile := rc.config.GetReplayFile()
	if recordDir != "" {
		rc.formatter.PrintReplayDir(recordDir)
	}

	workers := rc.config.Processors
	if replayFile != "" && workers != 1 {
		slog.Info("exact replay runs on a single worker", slog.Int("requested", workers))
		workers = 1
	}

	if rc.config.Flags.PrepareDB {
		if _, err := rc.databases.EnsureDatabases(ctx, workers); err != nil {
			return fmt.Errorf("prepare databases: %w", err)
		}
	}

	// Discover tests
	ids, err := rc.collector.CollectIDs(rc.config.GetTestPath())
	if err != nil {
		return err
	}
	ids = rc.filter.FilterByName(ids, rc.config.Flags.NameFilter)

	controller := recording.NewController(recording.Mode{
		RecordDir:  recordDir,
		ReplayFile: replayFile,
		Resume:     rc.config.Flags.Resume,
		AutoResume: rc.config.AutoResume,
		Workers:    workers,
	}, rc.storage)

	if err := controller.Handle(recording.Event{Kind: recording.CollectionComplete, Collected: ids}); err != nil {
		return err
	}
	selection := controller.Selection()
	rc.formatter.PrintSelection(selection, len(ids))

	if len(selection.IDs) == 0 {
		color.Yellow("No tests to execute")
		return controller.Handle(recording.Event{Kind: recording.ProcessExit})
	}

	if rc.progress {
		rc.executor.SetProgress(ui.NewProgressBar(len(selection.IDs), selection.Policy))
	}

	epoch := controller.Epoch()
	newHandler := func(index, total int) (recording.Handler, error) {
		tracker := recording.HandlerFunc(controller.Track)
		if recordDir == "" {
			return tracker, nil
		}
		recorder, err := recording.NewRecorder(recordDir, recording.WorkerTag(index, total), epoch)
		if err != nil {
			return nil, err
		}
		return recording.Handlers{recorder, tracker}, nil
	}

	results, duration, err := rc.executor.Execute(ctx, selection.IDs, execution.Options{
		Workers:    workers,
		FailFast:   rc.config.Flags.FailFast,
		NewHandler: newHandler,
	})
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	}

	if err := controller.Handle(recording.Event{Kind: recording.ProcessExit}); err != nil {
		return err
	}

	summary := rc.formatter.PrintSummary(results, duration, workers)
	if !summary.Success() {
		return fmt.Errorf("%d test(s) failed, %d crashed", summary.Failed, summary.Crashed)
	}
	return nil
}
