package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ptr/internal/cli"
	"ptr/internal/cli/commands"
	"ptr/internal/config"
	"ptr/internal/logger"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:           "ptr",
		Short:         "Parallel PHPUnit test runner with crash-resilient replay",
		Long:          `Run PHPUnit test cases in parallel while every worker records each test start and finish to an append-only ledger. After a crash, resume the tests that never finished or replay a worker's exact order.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Load config: defaults, .env, .ptr.yaml, environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg, nil)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute root command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
