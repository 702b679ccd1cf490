package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ptr/internal/config"
	"ptr/internal/workerdb"
)

// PrepareDBCommand handles the prepare-db command
type PrepareDBCommand struct {
	config    *config.Config
	databases *workerdb.DatabaseManager
	migrator  workerdb.Migrator
}

// NewPrepareDBCommand creates a new PrepareDBCommand
func NewPrepareDBCommand(cfg *config.Config, databases *workerdb.DatabaseManager, migrator workerdb.Migrator) *PrepareDBCommand {
	return &PrepareDBCommand{
		config:    cfg,
		databases: databases,
		migrator:  migrator,
	}
}

// Execute runs the command
func (pc *PrepareDBCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	workerCount := pc.config.Processors

	created, err := pc.databases.EnsureDatabases(ctx, workerCount)
	if err != nil {
		return err
	}
	for _, name := range created {
		color.Green("✓ created %s", name)
	}
	color.White("%d worker database(s) ready", workerCount)

	if !pc.config.Flags.Migrate {
		return nil
	}

	color.Cyan("Running migrations for %d worker(s)", workerCount)
	err = workerdb.MigrateAll(ctx, pc.migrator, workerCount, func(workerID int, err error) {
		if err != nil {
			color.Red("✗ worker %d (DB: %s): %v", workerID, pc.config.GetDatabaseName(workerID), err)
			return
		}
		color.Green("✓ worker %d (DB: %s) migrated", workerID, pc.config.GetDatabaseName(workerID))
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
