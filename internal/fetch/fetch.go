// Package fetch streams remote artefacts to disk with throttled progress
// reporting.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single download including body transfer.
	DefaultTimeout = 10 * time.Minute
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "ffstatic/1.0"
	// DefaultProgressInterval caps progress callbacks at ten per second.
	DefaultProgressInterval = 100 * time.Millisecond
)

// ErrHTTPStatus is wrapped by StatusError.
var ErrHTTPStatus = errors.New("unexpected http status")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %s", e.URL, e.Status)
}

// Unwrap lets errors.Is match ErrHTTPStatus.
func (e *StatusError) Unwrap() error {
	return ErrHTTPStatus
}

// ErrChecksumMismatch is returned by Verify.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Progress is a snapshot of a running transfer. Total is -1 and Percent is 0
// when the remote does not report a length.
type Progress struct {
	Received int64
	Total    int64
	Percent  float64
}

// ProgressFunc receives throttled progress updates.
type ProgressFunc func(Progress)

// Result describes a completed download.
type Result struct {
	Path     string
	Bytes    int64
	Duration time.Duration
}

// Downloader performs HTTP GET downloads.
type Downloader struct {
	client    *http.Client
	userAgent string
	interval  time.Duration
	logger    hclog.Logger
}

// Option customises a Downloader.
type Option func(*Downloader)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithTimeout sets the client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) { d.client.Timeout = timeout }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(d *Downloader) { d.userAgent = ua }
}

// WithProgressInterval sets the minimum gap between progress callbacks. Zero
// reports every chunk.
func WithProgressInterval(interval time.Duration) Option {
	return func(d *Downloader) { d.interval = interval }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(d *Downloader) { d.logger = l }
}

// New creates a downloader.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		interval:  DefaultProgressInterval,
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Downloader) newRequest(ctx context.Context, method, url string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Probe issues a HEAD request and returns the advertised content length, or
// -1 when unknown.
func (d *Downloader) Probe(ctx context.Context, url string, headers map[string]string) (int64, error) {
	req, err := d.newRequest(ctx, http.MethodHead, url, headers)
	if err != nil {
		return -1, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return -1, fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return -1, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp.ContentLength, nil
}

// Download streams url into dest. Bytes land in dest.part first and are only
// renamed to dest after the body has been fully written, so a failed transfer
// never leaves a partial file at dest.
func (d *Downloader) Download(ctx context.Context, url, dest string, headers map[string]string, onProgress ProgressFunc) (Result, error) {
	start := time.Now()

	req, err := d.newRequest(ctx, http.MethodGet, url, headers)
	if err != nil {
		return Result{}, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	total := resp.ContentLength
	if total < 0 && onProgress != nil {
		if probed, err := d.Probe(ctx, url, headers); err == nil {
			total = probed
		} else {
			d.logger.Debug("content length probe failed", "url", url, "error", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, fmt.Errorf("prepare download destination: %w", err)
	}

	partPath := dest + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			out.Close()
			_ = os.Remove(partPath)
		}
	}()

	pw := newProgressWriter(out, total, d.interval, onProgress)
	written, err := io.Copy(pw, resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	if err := out.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp file: %w", err)
	}
	pw.finish()

	if err := os.Rename(partPath, dest); err != nil {
		return Result{}, fmt.Errorf("finalize download: %w", err)
	}
	committed = true

	d.logger.Debug("downloaded", "url", url, "bytes", written, "elapsed", time.Since(start))
	return Result{Path: dest, Bytes: written, Duration: time.Since(start)}, nil
}

type progressWriter struct {
	w         io.Writer
	received  int64
	total     int64
	sometimes *rate.Sometimes
	report    ProgressFunc
}

func newProgressWriter(w io.Writer, total int64, interval time.Duration, report ProgressFunc) *progressWriter {
	s := &rate.Sometimes{Interval: interval}
	if interval <= 0 {
		s = &rate.Sometimes{Every: 1}
	}
	return &progressWriter{w: w, total: total, sometimes: s, report: report}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.received += int64(n)
	if p.report != nil {
		p.sometimes.Do(func() { p.report(p.snapshot()) })
	}
	return n, err
}

func (p *progressWriter) snapshot() Progress {
	prog := Progress{Received: p.received, Total: p.total}
	if p.total > 0 {
		prog.Percent = float64(p.received) / float64(p.total) * 100
		if prog.Percent > 100 {
			prog.Percent = 100
		}
	}
	return prog
}

// finish emits a final unthrottled update.
func (p *progressWriter) finish() {
	if p.report == nil {
		return
	}
	final := p.snapshot()
	if final.Total <= 0 {
		final.Total = final.Received
	}
	final.Percent = 100
	p.report(final)
}

// Verify compares the SHA-256 digest of path against a hex string.
func Verify(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(sum, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: %s has %s", ErrChecksumMismatch, filepath.Base(path), sum)
	}
	return nil
}
