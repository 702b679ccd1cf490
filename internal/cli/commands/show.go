package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"ptr/internal/config"
	"ptr/internal/replay"
	"ptr/internal/ui"
)

// ShowCommand handles the show command
type ShowCommand struct {
	config    *config.Config
	formatter *ui.Formatter
	viewer    ui.Viewer
}

// NewShowCommand creates a new ShowCommand
func NewShowCommand(cfg *config.Config, formatter *ui.Formatter, viewer ui.Viewer) *ShowCommand {
	return &ShowCommand{
		config:    cfg,
		formatter: formatter,
		viewer:    viewer,
	}
}

// Execute runs the command
func (sc *ShowCommand) Execute(cmd *cobra.Command, args []string) error {
	dir := sc.config.GetRecordDir()
	if dir == "" {
		return errors.New("no record directory: pass --replay-record-dir or set PTR_RECORD_DIR")
	}

	history, err := replay.LoadHistory(dir)
	if err != nil {
		return err
	}

	if sc.config.Flags.Plain {
		sc.formatter.PrintReplayDir(dir)
		sc.formatter.PrintLedgers(history)
		return nil
	}
	return sc.viewer.View(dir, history)
}
