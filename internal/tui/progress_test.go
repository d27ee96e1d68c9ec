package tui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ffstatic/internal/fetch"
	"ffstatic/internal/install"
	"ffstatic/internal/platform"
)

func installColumns() []Column {
	return []Column{
		{Header: "KIND", Width: 8},
		{Header: "STATUS", Width: 12},
		{Header: "PROGRESS", Width: 10},
		{Header: "DETAIL", Width: 20},
	}
}

func newInstallModel() ProgressModel {
	m := NewProgressModel("linux-x64", installColumns())
	m.AddRow("ffmpeg", []string{"ffmpeg", "queued", "", ""})
	m.AddRow("ffprobe", []string{"ffprobe", "queued", "", ""})
	return m
}

func TestRowUpdateMsg(t *testing.T) {
	m := newInstallModel()

	updated, _ := m.Update(RowUpdateMsg{
		Key:    "ffmpeg",
		Fields: map[string]string{"STATUS": "downloading", "DETAIL": "1.2 MB"},
	})
	m = updated.(ProgressModel)

	if m.rows[0].Fields[1] != "downloading" {
		t.Errorf("expected STATUS=downloading, got %q", m.rows[0].Fields[1])
	}
	if m.rows[0].Fields[3] != "1.2 MB" {
		t.Errorf("expected DETAIL=1.2 MB, got %q", m.rows[0].Fields[3])
	}
	if m.rows[1].Fields[1] != "queued" {
		t.Errorf("expected ffprobe STATUS=queued, got %q", m.rows[1].Fields[1])
	}
}

func TestRowUpdateMsg_UnknownKey(t *testing.T) {
	m := newInstallModel()

	updated, _ := m.Update(RowUpdateMsg{
		Key:    "ffplay",
		Fields: map[string]string{"STATUS": "installed"},
	})
	m = updated.(ProgressModel)

	for _, row := range m.rows {
		if row.Fields[1] != "queued" {
			t.Errorf("expected STATUS unchanged, got %q", row.Fields[1])
		}
	}
}

func TestProgressMsgClamps(t *testing.T) {
	m := newInstallModel()

	updated, _ := m.Update(ProgressMsg{Key: "ffprobe", Percent: 42})
	m = updated.(ProgressModel)
	if m.rows[1].Percent != 42 {
		t.Errorf("expected 42%%, got %v", m.rows[1].Percent)
	}

	updated, _ = m.Update(ProgressMsg{Key: "ffprobe", Percent: 180})
	m = updated.(ProgressModel)
	if m.rows[1].Percent != 100 {
		t.Errorf("expected clamp to 100, got %v", m.rows[1].Percent)
	}
	if m.rows[0].Percent != 0 {
		t.Errorf("ffmpeg row should be untouched, got %v", m.rows[0].Percent)
	}
}

func TestWorkDoneMsg(t *testing.T) {
	m := newInstallModel()

	updated, cmd := m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)

	if !m.Done() {
		t.Error("expected Done() to be true after WorkDoneMsg")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestErrorMsg(t *testing.T) {
	m := newInstallModel()

	updated, cmd := m.Update(ErrorMsg{Err: tea.ErrProgramKilled})
	m = updated.(ProgressModel)

	if !m.Done() || m.Err() == nil {
		t.Error("expected done model carrying the error")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Error("expected error view")
	}
}

func TestView(t *testing.T) {
	m := newInstallModel()
	updated, _ := m.Update(RowUpdateMsg{Key: "ffprobe", Fields: map[string]string{"STATUS": "installed"}})
	m = updated.(ProgressModel)

	view := m.View()
	for _, want := range []string{"linux-x64", "KIND", "STATUS", "PROGRESS", "DETAIL", "ffmpeg", "ffprobe", "queued", "installed"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
	if !strings.Contains(view, "Installing 1/2") {
		t.Errorf("expected footer with 1/2 finished, got:\n%s", view)
	}
}

func TestViewHidesSpinnerWhenDone(t *testing.T) {
	m := newInstallModel()
	updated, _ := m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)

	if strings.Contains(m.View(), "Installing") {
		t.Error("expected view to NOT contain footer when done")
	}
}

func TestTickStopsAfterDone(t *testing.T) {
	m := newInstallModel()

	updated, cmd := m.Update(tickMsg{})
	m = updated.(ProgressModel)
	if m.tick != 1 || cmd == nil {
		t.Fatalf("expected tick=1 with follow-up, got tick=%d cmd=%v", m.tick, cmd)
	}

	updated, _ = m.Update(WorkDoneMsg{})
	m = updated.(ProgressModel)
	_, cmd = m.Update(tickMsg{})
	if cmd != nil {
		t.Error("expected no tick command after done")
	}
}

func TestProgressCounts(t *testing.T) {
	m := NewProgressModel("", installColumns())
	m.AddRow("a", []string{"ffmpeg", "downloading"})
	m.AddRow("b", []string{"ffprobe", "skipped"})
	m.AddRow("c", []string{"ffprobe", "failed"})

	finished, total := m.progressCounts()
	if total != 3 || finished != 2 {
		t.Errorf("expected 2/3, got %d/%d", finished, total)
	}
}

func TestCtrlC(t *testing.T) {
	m := newInstallModel()

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(ProgressModel)

	if !m.Done() {
		t.Error("expected Done() to be true after ctrl+c")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"binaries/linux-x64/ffmpeg", 10, "binarie..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		got := TruncateWithEllipsis(tt.input, tt.max)
		if got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestMarqueeText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		tick  int
		want  string
	}{
		{"short", 10, 0, "short"},
		{"hello world here", 5, 0, "hello"},
		{"hello world here", 5, 1, "ello "},
		{"abcdef", 4, 6, "   a"},
	}
	for _, tt := range tests {
		if got := marqueeText(tt.text, tt.width, tt.tick); got != tt.want {
			t.Errorf("marqueeText(%q, %d, %d) = %q, want %q", tt.text, tt.width, tt.tick, got, tt.want)
		}
	}
}

func TestNonEmptyOrDash(t *testing.T) {
	if NonEmptyOrDash("  ") != "-" || NonEmptyOrDash(" v ") != "v" {
		t.Error("unexpected NonEmptyOrDash result")
	}
}

func TestInstallReporter(t *testing.T) {
	var msgs []tea.Msg
	r := NewInstallReporter(func(msg tea.Msg) { msgs = append(msgs, msg) })

	r.Progress(platform.KindFFmpeg, fetch.Progress{Received: 1000, Total: 4000, Percent: 25})
	r.Stage(platform.KindFFmpeg, install.StageInstalled)

	m := newInstallModel()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(ProgressModel)
	}

	if m.rows[0].Fields[1] != "installed" {
		t.Errorf("expected installed status, got %q", m.rows[0].Fields[1])
	}
	if m.rows[0].Percent != 100 {
		t.Errorf("expected bar full after install, got %v", m.rows[0].Percent)
	}
	if m.rows[0].Fields[3] != "1.0 kB / 4.0 kB" {
		t.Errorf("unexpected detail %q", m.rows[0].Fields[3])
	}
}

func TestFormatTransferUnknownTotal(t *testing.T) {
	if got := FormatTransfer(fetch.Progress{Received: 2_500_000, Total: -1}); got != "2.5 MB" {
		t.Errorf("FormatTransfer = %q", got)
	}
}

func TestStatusReporterWritesLine(t *testing.T) {
	var buf syncBuffer
	sw := NewStatusWriter(&buf)
	r := NewStatusReporter(sw)
	r.Stage(platform.KindFFprobe, install.StageExtracting)
	r.Progress(platform.KindFFprobe, fetch.Progress{Received: 10, Total: -1})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(buf.String(), "ffprobe: downloading 10 B") {
		time.Sleep(20 * time.Millisecond)
	}
	sw.Stop()
	if !strings.Contains(buf.String(), "ffprobe: downloading 10 B") {
		t.Fatalf("status line missing progress: %q", buf.String())
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := map[time.Duration]string{
		250 * time.Millisecond:  "250ms",
		3500 * time.Millisecond: "3.5s",
		42 * time.Second:        "42s",
		125 * time.Second:       "2m05s",
	}
	for d, want := range tests {
		if got := formatElapsed(d); got != want {
			t.Errorf("formatElapsed(%v) = %q, want %q", d, got, want)
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
