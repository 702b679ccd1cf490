package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"ptr/internal/replay"
)

// ProgressBar reports run progress on standard error, leaving standard
// output to the formatter
type ProgressBar struct {
	bar   *progressbar.ProgressBar
	label string
}

// NewProgressBar creates a bar for count tests selected under policy
func NewProgressBar(count int, policy replay.Policy) *ProgressBar {
	return newProgressBar(os.Stderr, count, ProgressLabel(policy))
}

func newProgressBar(w io.Writer, count int, label string) *ProgressBar {
	p := &ProgressBar{label: label}
	p.bar = progressbar.NewOptions(count,
		progressbar.OptionSetDescription(p.describe(0, 0, 0)),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return p
}

// ProgressLabel names what a run under policy is doing
func ProgressLabel(policy replay.Policy) string {
	switch policy {
	case replay.PolicyResume:
		return "Resuming"
	case replay.PolicyExact:
		return "Replaying"
	}
	return "Running"
}

// Update moves the bar to done executed tests and refreshes the tallies
func (p *ProgressBar) Update(done, passed, failed, crashed int) {
	_ = p.bar.Set(done)
	p.bar.Describe(p.describe(passed, failed, crashed))
}

func (p *ProgressBar) describe(passed, failed, crashed int) string {
	return color.CyanString("%s tests: ", p.label) +
		color.GreenString("[passed: %d", passed) +
		" | " +
		color.RedString("failed: %d", failed) +
		" | " +
		color.YellowString("crashed: %d]", crashed)
}

// Finish completes the bar
func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
}
