package commands

import (
	"io"

	"github.com/spf13/cobra"

	"ptr/internal/cli"
	"ptr/internal/config"
	"ptr/internal/discovery"
	"ptr/internal/execution"
	"ptr/internal/parser"
	"ptr/internal/storage"
	"ptr/internal/ui"
	"ptr/internal/workerdb"
)

// Commands holds all CLI commands
type Commands struct {
	Run       *RunCommand
	List      *ListCommand
	Show      *ShowCommand
	PrepareDB *PrepareDBCommand
}

// NewCommands creates all commands with dependencies. Console output goes to
// out, or to standard output when out is nil.
func NewCommands(cfg *config.Config, out io.Writer) *Commands {
	return newCommands(cfg, out, execution.NewRunner(cfg, parser.NewPHPUnitParser()))
}

func newCommands(cfg *config.Config, out io.Writer, runner execution.TestRunner) *Commands {
	// Initialize dependencies
	scanner := discovery.NewScanner(cfg.PathsToIgnore)
	collector := discovery.NewCollector(cfg.ProjectPath, scanner, discovery.NewParser())
	filter := discovery.NewFilter()
	executor := execution.NewWorkerPool(runner, execution.NewRoundRobinScheduler())
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(out)
	databases := workerdb.NewDatabaseManager(cfg)
	migrator := workerdb.NewArtisanMigrator(cfg)
	viewer := ui.NewLedgerViewer()

	return &Commands{
		Run:       NewRunCommand(cfg, collector, filter, executor, jsonStorage, formatter, databases),
		List:      NewListCommand(cfg, collector, filter, formatter),
		Show:      NewShowCommand(cfg, formatter, viewer),
		PrepareDB: NewPrepareDBCommand(cfg, databases, migrator),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	// Update config with flags after parsing
	applyFlags := func(cmd *cobra.Command, args []string) error {
		cfg.ApplyFlags(flags.ToConfigFlags())
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run PHPUnit tests in parallel, recording every start and finish",
		Long: "Discover and execute PHPUnit test cases using parallel workers. With a record " +
			"directory each worker appends to its own ledger so that a crashed run can be resumed " +
			"or replayed in its exact order.",
		RunE:    c.Run.Execute,
		PreRunE: applyFlags,
	}
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of processors to use")
	runCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where test detection should start")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g., '*UserTest.php*' or '*Payment*')")
	runCmd.Flags().StringVar(&flags.RecordDir, "replay-record-dir", "", "Directory for the per-worker ledgers (enables recording)")
	runCmd.Flags().StringVar(&flags.ReplayFile, "replay", "", "Replay the tests one ledger file started, in recorded order, on a single worker (only entries from the latest run in that file count)")
	runCmd.Flags().BoolVar(&flags.Resume, "resume", false, "Run only the tests the ledgers do not show as finished")
	runCmd.Flags().BoolVar(&flags.NoAutoResume, "no-auto-resume", false, "Do not resume automatically after a run that did not exit cleanly")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on first test failure")
	runCmd.Flags().BoolVar(&flags.PrepareDB, "prepare-db", false, "Create missing worker databases before running")
	runCmd.MarkFlagsMutuallyExclusive("replay", "resume")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List discovered tests",
		Long:    "Scan and list all PHPUnit test cases without executing them, marked with their ledger state",
		RunE:    c.List.Execute,
		PreRunE: applyFlags,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g., '*UserTest.php*' or '*Payment*')")
	listCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where test detection should start")
	listCmd.Flags().StringVar(&flags.RecordDir, "replay-record-dir", "", "Directory of the ledgers to mark tests from")
	rootCmd.AddCommand(listCmd)

	// Show command
	showCmd := &cobra.Command{
		Use:     "show",
		Short:   "Browse recorded ledgers",
		Long:    "Display the per-worker ledgers of the record directory in an interactive viewer",
		RunE:    c.Show.Execute,
		PreRunE: applyFlags,
	}
	showCmd.Flags().StringVar(&flags.RecordDir, "replay-record-dir", "", "Directory of the ledgers to show")
	showCmd.Flags().BoolVar(&flags.Plain, "plain", false, "Print the ledgers as plain text")
	rootCmd.AddCommand(showCmd)

	// Prepare-db command
	prepareCmd := &cobra.Command{
		Use:     "prepare-db",
		Short:   "Create the test databases of all workers",
		Long:    "Create missing per-worker MySQL databases and optionally run migrations in parallel",
		RunE:    c.PrepareDB.Execute,
		PreRunE: applyFlags,
	}
	prepareCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of processors/workers to use")
	prepareCmd.Flags().BoolVarP(&flags.Migrate, "migrate", "m", false, "Run migrations after creating the databases")
	prepareCmd.Flags().BoolVar(&flags.NoFresh, "no-fresh", false, "Run migrations without fresh (only pending migrations)")
	rootCmd.AddCommand(prepareCmd)
}
