package install

import (
	"errors"
	"fmt"

	"ffstatic/internal/fetch"
	"ffstatic/internal/platform"
)

var (
	// ErrUnsupportedPlatform means the identifier is not in the registry.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrNoSource means the platform is known but has no download source.
	ErrNoSource = errors.New("no download source for platform")
	// ErrBinaryNotFound means the payload did not contain the requested binary.
	ErrBinaryNotFound = errors.New("binary not found in archive")
)

// Status is the final state of one binary kind.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Stage names reported while a kind moves through the pipeline.
const (
	StageQueued      = "queued"
	StageDownloading = "downloading"
	StageExtracting  = "extracting"
	StageLocating    = "locating"
	StageInstalling  = "installing"
	StageInstalled   = "installed"
	StageSkipped     = "skipped"
	StageFailed      = "failed"
)

// Request selects the platform and the kinds to install. An empty Kinds
// installs both.
type Request struct {
	Identifier string
	Kinds      []platform.Kind
}

// Outcome is the result for one kind.
type Outcome struct {
	Kind    platform.Kind `json:"kind"`
	Status  Status        `json:"status"`
	Path    string        `json:"path,omitempty"`
	Version string        `json:"version,omitempty"`
	URL     string        `json:"url,omitempty"`
	Err     error         `json:"-"`
	Error   string        `json:"error,omitempty"`
}

// Report collects the outcomes of one invocation.
type Report struct {
	Identifier string    `json:"identifier"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Failed reports whether any kind failed.
func (r Report) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Err joins the errors of every failed kind.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed && o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Kind, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Outcome returns the entry for kind.
func (r Report) Outcome(kind platform.Kind) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			return o, true
		}
	}
	return Outcome{}, false
}

// Reporter observes pipeline progress. Calls arrive from the goroutine running
// Install.
type Reporter interface {
	Stage(kind platform.Kind, stage string)
	Progress(kind platform.Kind, p fetch.Progress)
}

// NopReporter discards all updates.
type NopReporter struct{}

func (NopReporter) Stage(platform.Kind, string)            {}
func (NopReporter) Progress(platform.Kind, fetch.Progress) {}
