package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"ffstatic/internal/fetch"
	"ffstatic/internal/install"
	"ffstatic/internal/platform"
)

// InstallReporter forwards pipeline events to a running ProgressModel. Rows
// are keyed by kind name.
type InstallReporter struct {
	send func(tea.Msg)
}

// NewInstallReporter wraps a send function such as the one RunWithWork hands
// to its work function.
func NewInstallReporter(send func(tea.Msg)) *InstallReporter {
	return &InstallReporter{send: send}
}

// Stage implements install.Reporter.
func (r *InstallReporter) Stage(kind platform.Kind, stage string) {
	r.send(RowUpdateMsg{
		Key:    kind.String(),
		Fields: map[string]string{"STATUS": stage},
	})
	if stage == install.StageInstalled {
		r.send(ProgressMsg{Key: kind.String(), Percent: 100})
	}
}

// Progress implements install.Reporter.
func (r *InstallReporter) Progress(kind platform.Kind, p fetch.Progress) {
	r.send(ProgressMsg{Key: kind.String(), Percent: p.Percent})
	r.send(RowUpdateMsg{
		Key:    kind.String(),
		Fields: map[string]string{"DETAIL": FormatTransfer(p)},
	})
}

// FormatTransfer renders "12 MB / 80 MB" or just the received size when the
// total is unknown.
func FormatTransfer(p fetch.Progress) string {
	if p.Total <= 0 {
		return humanize.Bytes(uint64(p.Received))
	}
	return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(p.Received)), humanize.Bytes(uint64(p.Total)))
}

var _ install.Reporter = (*InstallReporter)(nil)
