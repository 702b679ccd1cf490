package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ptr/internal/config"
	"ptr/internal/discovery"
	"ptr/internal/replay"
	"ptr/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	collector *discovery.Collector
	filter    *discovery.Filter
	formatter *ui.Formatter
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	collector *discovery.Collector,
	filter *discovery.Filter,
	formatter *ui.Formatter,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		collector: collector,
		filter:    filter,
		formatter: formatter,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	ids, err := lc.collector.CollectIDs(lc.config.GetTestPath())
	if err != nil {
		return err
	}

	// Filter tests
	ids = lc.filter.FilterByName(ids, lc.config.Flags.NameFilter)

	if len(ids) == 0 {
		color.Yellow("No tests found")
		return nil
	}

	var history *replay.History
	if dir := lc.config.GetRecordDir(); dir != "" {
		h, err := replay.LoadHistory(dir)
		if err != nil {
			return err
		}
		history = h.Epoch(h.LatestEpoch())
	}

	lc.formatter.PrintTestList(ids, history)
	return nil
}
