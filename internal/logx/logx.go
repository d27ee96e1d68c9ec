package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Options configures New.
type Options struct {
	// Dir receives one timestamped log file per run.
	Dir string
	// Console mirrors log lines at Warn (Debug when Verbose) when non-nil.
	Console io.Writer
	Verbose bool
}

// New creates a logger that writes every level to a timestamped file inside
// opts.Dir. The returned closer should be closed when logging is no longer
// needed.
func New(opts Options) (hclog.Logger, io.Closer, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := time.Now().Format("20060102-150405") + ".log"
	filePath := filepath.Join(opts.Dir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:       "ffstatic",
		Output:     file,
		Level:      hclog.Debug,
		TimeFormat: "2006-01-02 15:04:05.000000",
	})

	if opts.Console != nil {
		level := hclog.Warn
		if opts.Verbose {
			level = hclog.Debug
		}
		logger.RegisterSink(hclog.NewSinkAdapter(&hclog.LoggerOptions{
			Output: opts.Console,
			Level:  level,
			Color:  hclog.AutoColor,
		}))
	}

	return logger, file, nil
}

// Console returns a logger that only writes to w, for commands that run
// without a storage root.
func Console(w io.Writer, verbose bool) hclog.Logger {
	level := hclog.Warn
	if verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "ffstatic",
		Output: w,
		Level:  level,
		Color:  hclog.AutoColor,
	})
}
