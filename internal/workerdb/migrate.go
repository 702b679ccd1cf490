package workerdb

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"ptr/internal/config"
)

// Migrator prepares the schema of a worker database
type Migrator interface {
	Migrate(ctx context.Context, workerID int) error
}

// ArtisanMigrator runs Laravel migrations against one worker database
type ArtisanMigrator struct {
	config *config.Config
}

// NewArtisanMigrator creates a new ArtisanMigrator
func NewArtisanMigrator(cfg *config.Config) *ArtisanMigrator {
	return &ArtisanMigrator{config: cfg}
}

// Args returns the artisan invocation. With the no-fresh flag migrations are
// applied on top of the existing schema instead of rebuilding it.
func (m *ArtisanMigrator) Args(projectPath string) []string {
	migrateCmd := "migrate:fresh"
	if m.config.Flags.NoFresh {
		migrateCmd = "migrate"
	}
	return []string{filepath.Join(projectPath, "artisan"), migrateCmd, "--env=testing", "--force"}
}

// Migrate runs migrations for workerID's database
func (m *ArtisanMigrator) Migrate(ctx context.Context, workerID int) error {
	projectAbsPath, err := filepath.Abs(m.config.ProjectPath)
	if err != nil {
		return fmt.Errorf("resolve project path: %w", err)
	}

	cmd := exec.CommandContext(ctx, "php", m.Args(projectAbsPath)...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("DB_DATABASE=%s", m.config.GetDatabaseName(workerID)))
	cmd.Dir = projectAbsPath

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("migrate %s: %w\n%s", m.config.GetDatabaseName(workerID), err, output)
	}
	return nil
}

// MigrateAll migrates the databases of workers 1..workerCount in parallel.
// done is called after each worker, successful or not. The first error is
// returned once every worker has finished.
func MigrateAll(ctx context.Context, m Migrator, workerCount int, done func(workerID int, err error)) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			err := m.Migrate(ctx, workerID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			if done != nil {
				done(workerID, err)
			}
		}(i)
	}
	wg.Wait()
	return firstErr
}
