// Package workerdb provisions the MySQL database each worker runs its tests
// against, so that concurrently running tests never share state.
package workerdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"regexp"

	"github.com/go-sql-driver/mysql"

	"ptr/internal/config"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_$]{1,64}$`)

// DatabaseManager manages per-worker test databases
type DatabaseManager struct {
	config *config.Config
	open   func(dsn string) (*sql.DB, error)
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(cfg *config.Config) *DatabaseManager {
	return &DatabaseManager{
		config: cfg,
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("mysql", dsn)
		},
	}
}

// DSN returns the server DSN, without a database selected
func (dm *DatabaseManager) DSN() string {
	db := dm.config.Database

	mc := mysql.NewConfig()
	mc.User = db.User
	mc.Passwd = db.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(db.Host, db.Port)
	return mc.FormatDSN()
}

// Names returns the database names of workers 1..workerCount
func (dm *DatabaseManager) Names(workerCount int) []string {
	names := make([]string, 0, workerCount)
	for i := 1; i <= workerCount; i++ {
		names = append(names, dm.config.GetDatabaseName(i))
	}
	return names
}

// EnsureDatabases creates the databases of workers 1..workerCount that do not
// exist yet and returns the names it created
func (dm *DatabaseManager) EnsureDatabases(ctx context.Context, workerCount int) ([]string, error) {
	names := dm.Names(workerCount)
	for _, name := range names {
		if !validName.MatchString(name) {
			return nil, fmt.Errorf("invalid database name: %q", name)
		}
	}

	db, err := dm.open(dm.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database server: %w", err)
	}

	var created []string
	for _, name := range names {
		exists, err := databaseExists(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("check database %s: %w", name, err)
		}
		if exists {
			continue
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)); err != nil {
			return nil, fmt.Errorf("create database %s: %w", name, err)
		}
		slog.Debug("database created", slog.String("name", name))
		created = append(created, name)
	}
	return created, nil
}

func databaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}
