package ui

import "ptr/internal/replay"

// Viewer displays recorded ledgers
type Viewer interface {
	View(dir string, h *replay.History) error
}
