// Package install downloads, unpacks and records ffmpeg and ffprobe for one
// platform.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"ffstatic/internal/archive"
	"ffstatic/internal/fetch"
	"ffstatic/internal/paths"
	"ffstatic/internal/platform"
	"ffstatic/internal/sources"
	"ffstatic/internal/store"
)

// Config wires the pipeline's collaborators.
type Config struct {
	Registry   *platform.Registry
	Sources    sources.Table
	Resolver   *paths.Resolver
	Store      *store.Store
	Downloader *fetch.Downloader
	Logger     hclog.Logger
	Reporter   Reporter
}

// Pipeline installs binaries described by a source table.
type Pipeline struct {
	registry   *platform.Registry
	sources    sources.Table
	resolver   *paths.Resolver
	store      *store.Store
	downloader *fetch.Downloader
	logger     hclog.Logger
	reporter   Reporter
}

// New validates cfg and builds a pipeline. Logger and Reporter are optional.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Registry == nil:
		return nil, errors.New("install: registry is required")
	case cfg.Resolver == nil:
		return nil, errors.New("install: path resolver is required")
	case cfg.Store == nil:
		return nil, errors.New("install: config store is required")
	}
	p := &Pipeline{
		registry:   cfg.Registry,
		sources:    cfg.Sources,
		resolver:   cfg.Resolver,
		store:      cfg.Store,
		downloader: cfg.Downloader,
		logger:     cfg.Logger,
		reporter:   cfg.Reporter,
	}
	if p.downloader == nil {
		p.downloader = fetch.New()
	}
	if p.logger == nil {
		p.logger = hclog.NewNullLogger()
	}
	if p.reporter == nil {
		p.reporter = NopReporter{}
	}
	p.logger = p.logger.Named("install")
	return p, nil
}

// payload is one downloaded artefact, either the primary or the secondary.
type payload struct {
	label   string
	url     string
	format  sources.Format
	sha256  string
	headers map[string]string
}

// fetched is a payload on disk. For binary formats file is the artefact itself;
// otherwise dir holds the extracted tree.
type fetched struct {
	payload
	file string
	dir  string
}

// located is a binary found inside a fetched payload.
type located struct {
	path string
	url  string
}

// Install runs the pipeline for req. Setup failures (unknown platform, no
// source, unwritable storage, cancellation) are returned as the error; per-kind
// failures are recorded in the report and leave sibling kinds untouched.
func (p *Pipeline) Install(ctx context.Context, req Request) (Report, error) {
	report := Report{Identifier: req.Identifier}

	info, ok := p.registry.LookupIdentifier(req.Identifier)
	if !ok {
		return report, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, req.Identifier)
	}
	src, ok := p.sources.Lookup(info.Identifier)
	if !ok {
		return report, fmt.Errorf("%w: %s", ErrNoSource, info.Identifier)
	}

	kinds := normalizeKinds(req.Kinds)
	for _, kind := range kinds {
		p.reporter.Stage(kind, StageQueued)
	}

	if err := p.store.Validate(); err != nil {
		p.logger.Debug("initialising config", "path", p.store.Path(), "reason", err)
		if err := p.store.Init(); err != nil {
			return report, err
		}
	}

	platformDir := p.resolver.PlatformDir(info.Identifier)
	if err := os.MkdirAll(platformDir, 0o755); err != nil {
		return report, fmt.Errorf("create platform dir %s: %w", platformDir, err)
	}

	runDir := filepath.Join(p.resolver.DownloadsDir(), "run-"+uuid.NewString())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return report, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(runDir); err != nil {
			p.logger.Warn("cleanup failed", "dir", runDir, "error", err)
		}
	}()

	p.logger.Info("installing", "platform", info.Identifier, "kinds", kinds, "version", src.Version)

	found := make(map[platform.Kind]located, len(kinds))
	failures := make(map[platform.Kind]error, len(kinds))

	primary := payload{
		label:   "primary",
		url:     src.URL,
		format:  src.Format,
		sha256:  src.SHA256,
		headers: src.Headers(),
	}
	prim, err := p.acquire(ctx, primary, filepath.Join(runDir, "primary"), kinds)
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		p.logger.Error("primary download failed", "url", src.URL, "error", err)
		for _, kind := range kinds {
			failures[kind] = err
		}
	} else {
		for _, kind := range kinds {
			loc, err := p.locatePrimary(prim, src, info, kind)
			if err != nil {
				failures[kind] = err
				continue
			}
			if loc.path != "" {
				found[kind] = loc
			}
		}
	}

	pending := unsatisfied(kinds, found)
	if len(pending) > 0 && src.Secondary != nil {
		secondary := payload{
			label:   "secondary",
			url:     src.Secondary.URL,
			format:  src.Secondary.Format,
			headers: src.Headers(),
		}
		sec, err := p.acquire(ctx, secondary, filepath.Join(runDir, "secondary"), pending)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			p.logger.Error("secondary download failed", "url", secondary.url, "error", err)
			for _, kind := range pending {
				failures[kind] = errors.Join(failures[kind], fmt.Errorf("secondary download: %w", err))
			}
		} else {
			for kind, loc := range p.locateSecondary(sec, src.Secondary, info, pending) {
				found[kind] = loc
				delete(failures, kind)
			}
		}
	}

	for _, kind := range kinds {
		outcome := Outcome{Kind: kind, Version: src.Version}
		loc, ok := found[kind]
		switch {
		case ok:
			outcome.URL = loc.url
			dest, err := p.place(ctx, info, kind, loc)
			if err != nil {
				outcome.Status, outcome.Err = StatusFailed, err
				break
			}
			if _, err := p.store.Upsert(info.Identifier, kind, store.ConfigBinaryInfo{
				Version:      src.Version,
				URL:          loc.url,
				RelativePath: p.resolver.RelativePath(info, kind),
			}); err != nil {
				outcome.Status, outcome.Err = StatusFailed, err
				break
			}
			outcome.Status, outcome.Path = StatusInstalled, dest
		case failures[kind] != nil:
			outcome.Status, outcome.Err = StatusFailed, failures[kind]
		default:
			outcome.Status = StatusSkipped
		}
		if outcome.Err != nil {
			outcome.Error = outcome.Err.Error()
		}
		p.finish(kind, outcome)
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report, nil
}

func (p *Pipeline) finish(kind platform.Kind, o Outcome) {
	switch o.Status {
	case StatusInstalled:
		p.logger.Info("installed", "kind", kind, "path", o.Path, "version", o.Version)
		p.reporter.Stage(kind, StageInstalled)
	case StatusSkipped:
		p.logger.Info("not provided by source", "kind", kind)
		p.reporter.Stage(kind, StageSkipped)
	default:
		p.logger.Error("install failed", "kind", kind, "error", o.Err)
		p.reporter.Stage(kind, StageFailed)
	}
}

// acquire downloads pl into dir and unpacks it when the format is a container.
func (p *Pipeline) acquire(ctx context.Context, pl payload, dir string, kinds []platform.Kind) (fetched, error) {
	out := fetched{payload: pl}

	name, err := fileNameFromURL(pl.url)
	if err != nil {
		return out, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return out, fmt.Errorf("create %s dir: %w", pl.label, err)
	}

	for _, kind := range kinds {
		p.reporter.Stage(kind, StageDownloading)
	}
	dest := filepath.Join(dir, name)
	p.logger.Debug("downloading", "payload", pl.label, "url", pl.url)
	res, err := p.downloader.Download(ctx, pl.url, dest, pl.headers, func(prog fetch.Progress) {
		for _, kind := range kinds {
			p.reporter.Progress(kind, prog)
		}
	})
	if err != nil {
		return out, err
	}
	if pl.sha256 != "" {
		if err := fetch.Verify(res.Path, pl.sha256); err != nil {
			return out, err
		}
	}
	out.file = res.Path

	if !pl.format.NeedsExtraction() {
		return out, nil
	}

	for _, kind := range kinds {
		p.reporter.Stage(kind, StageExtracting)
	}
	out.dir = filepath.Join(dir, "extracted")
	if err := archive.Extract(ctx, pl.format, res.Path, out.dir); err != nil {
		return out, fmt.Errorf("extract %s: %w", name, err)
	}
	return out, nil
}

// locatePrimary finds kind in the primary payload. A zero located with a nil
// error means the payload cannot provide kind and a secondary may be tried.
func (p *Pipeline) locatePrimary(f fetched, src sources.Source, info platform.Info, kind platform.Kind) (located, error) {
	p.reporter.Stage(kind, StageLocating)

	if !f.format.NeedsExtraction() {
		if attribute(filepath.Base(f.file)) == kind {
			return located{path: f.file, url: f.url}, nil
		}
		return located{}, nil
	}

	if rel := src.ArchivePath(kind.String()); rel != "" {
		if exact, err := archive.ResolveExact(f.dir, rel); err == nil {
			return located{path: exact, url: f.url}, nil
		}
		p.logger.Debug("declared path missing, searching", "kind", kind, "path", rel)
	}

	match, err := archive.FindFile(f.dir, info.FileName(kind))
	if err == nil {
		return located{path: match, url: f.url}, nil
	}
	if errors.Is(err, archive.ErrNotFound) {
		return located{}, fmt.Errorf("%w: %s", ErrBinaryNotFound, info.FileName(kind))
	}
	return located{}, err
}

// locateSecondary attributes the secondary artefact to the pending kinds whose
// names its file name contains.
func (p *Pipeline) locateSecondary(f fetched, sec *sources.Secondary, info platform.Info, pending []platform.Kind) map[platform.Kind]located {
	out := make(map[platform.Kind]located)

	var candidates []string
	switch {
	case !f.format.NeedsExtraction():
		candidates = append(candidates, f.file)
	case sec.Path != "":
		if exact, err := archive.ResolveExact(f.dir, sec.Path); err == nil {
			candidates = append(candidates, exact)
			break
		}
		fallthrough
	default:
		for _, kind := range pending {
			if match, err := archive.FindFile(f.dir, info.FileName(kind)); err == nil {
				candidates = append(candidates, match)
			}
		}
	}

	for _, candidate := range candidates {
		kind := attribute(filepath.Base(candidate))
		if !containsKind(pending, kind) {
			p.logger.Debug("secondary file not attributable", "file", candidate, "kind", kind)
			continue
		}
		p.reporter.Stage(kind, StageLocating)
		out[kind] = located{path: candidate, url: f.url}
	}
	return out
}

// place copies loc into the platform directory under the canonical name.
func (p *Pipeline) place(ctx context.Context, info platform.Info, kind platform.Kind, loc located) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.reporter.Stage(kind, StageInstalling)

	dest := p.resolver.BinaryPath(info, kind)
	srcInfo, err := os.Stat(loc.path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", loc.path, err)
	}
	if err := copyFile(loc.path, dest, srcInfo.Mode().Perm()); err != nil {
		return "", fmt.Errorf("install %s: %w", dest, err)
	}
	if !info.IsWindows() {
		if err := os.Chmod(dest, srcInfo.Mode().Perm()|0o755); err != nil {
			return "", fmt.Errorf("chmod %s: %w", dest, err)
		}
	}
	return dest, nil
}

// attribute maps a file name to a kind by substring, defaulting to ffmpeg.
func attribute(name string) platform.Kind {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, string(platform.KindFFprobe)):
		return platform.KindFFprobe
	default:
		return platform.KindFFmpeg
	}
}

func normalizeKinds(kinds []platform.Kind) []platform.Kind {
	if len(kinds) == 0 {
		return platform.Kinds()
	}
	out := make([]platform.Kind, 0, len(kinds))
	for _, want := range platform.Kinds() {
		if containsKind(kinds, want) {
			out = append(out, want)
		}
	}
	return out
}

func unsatisfied(kinds []platform.Kind, found map[platform.Kind]located) []platform.Kind {
	var out []platform.Kind
	for _, kind := range kinds {
		if _, ok := found[kind]; !ok {
			out = append(out, kind)
		}
	}
	return out
}

func containsKind(kinds []platform.Kind, kind platform.Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func fileNameFromURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse download url: %w", err)
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "" || base == "/" {
		return "", fmt.Errorf("infer file name from url: %s", raw)
	}
	return base, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".install-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, source); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, mode|0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, dst)
}
