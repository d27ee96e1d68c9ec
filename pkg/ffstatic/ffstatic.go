// Package ffstatic exposes the ffmpeg and ffprobe binaries installed by the
// ffstatic command to Go programs.
//
//	bins, err := ffstatic.Load(ctx)
//	if err != nil {
//		return err
//	}
//	cmd := exec.CommandContext(ctx, bins.FFmpeg.Path, "-i", input, output)
package ffstatic

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"ffstatic/internal/paths"
	"ffstatic/internal/platform"
	"ffstatic/internal/store"
)

var (
	// ErrUnsupportedPlatform means the host has no registry entry.
	ErrUnsupportedPlatform = errors.New("ffstatic: unsupported platform")
	// ErrNotInstalled means the config file is missing or unreadable. Run the
	// installer first.
	ErrNotInstalled = errors.New("ffstatic: not installed")
	// ErrPlatformNotInstalled means the config has no entry for this platform.
	ErrPlatformNotInstalled = errors.New("ffstatic: platform not installed")
)

// BinaryInfo locates one installed executable.
type BinaryInfo struct {
	Path    string `json:"path"`
	Version string `json:"version"`
	URL     string `json:"url"`
}

// Binaries is the installed set for the current platform. A nil field means
// the kind was never installed or its file has since disappeared.
type Binaries struct {
	FFmpeg     *BinaryInfo `json:"ffmpeg"`
	FFprobe    *BinaryInfo `json:"ffprobe"`
	Platform   string      `json:"platform"`
	Arch       string      `json:"arch"`
	Identifier string      `json:"identifier"`
}

// Get returns the entry for kind.
func (b *Binaries) Get(kind platform.Kind) *BinaryInfo {
	switch kind {
	case platform.KindFFmpeg:
		return b.FFmpeg
	case platform.KindFFprobe:
		return b.FFprobe
	}
	return nil
}

// Path returns the executable path for kind, or "" when it is absent.
func (b *Binaries) Path(kind platform.Kind) string {
	if info := b.Get(kind); info != nil {
		return info.Path
	}
	return ""
}

// Options overrides the defaults used by Load.
type Options struct {
	Registry *platform.Registry
	Resolver *paths.Resolver
	Detector platform.Detector
	// Identifier skips host detection.
	Identifier string
	// Mode picks the storage root when Resolver is nil.
	Mode paths.Mode
}

// Load resolves the binaries for the running host from the default storage
// root.
func Load(ctx context.Context) (*Binaries, error) {
	return LoadWith(ctx, Options{})
}

// LoadWith is Load with explicit collaborators.
func LoadWith(ctx context.Context, opts Options) (*Binaries, error) {
	registry := opts.Registry
	if registry == nil {
		registry = platform.Default()
	}

	info, err := resolvePlatform(ctx, registry, opts)
	if err != nil {
		return nil, err
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver, err = paths.NewResolver(paths.Options{Mode: opts.Mode})
		if err != nil {
			return nil, err
		}
	}

	st := store.New(resolver.ConfigPath())
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}
	cfg := st.Read()
	entry, ok := cfg.Platforms[info.Identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlatformNotInstalled, info.Identifier)
	}

	bins := &Binaries{
		Platform:   info.Platform,
		Arch:       info.Arch,
		Identifier: info.Identifier,
	}
	for _, kind := range platform.Kinds() {
		rec := entry.Get(kind)
		if rec == nil || rec.RelativePath == "" {
			continue
		}
		full := filepath.Join(resolver.BinariesRoot(), filepath.FromSlash(rec.RelativePath))
		if ok, err := paths.FileExists(full); err != nil || !ok {
			continue
		}
		bi := &BinaryInfo{Path: full, Version: rec.Version, URL: rec.URL}
		switch kind {
		case platform.KindFFmpeg:
			bins.FFmpeg = bi
		case platform.KindFFprobe:
			bins.FFprobe = bi
		}
	}
	return bins, nil
}

func resolvePlatform(ctx context.Context, registry *platform.Registry, opts Options) (platform.Info, error) {
	if opts.Identifier != "" {
		info, ok := registry.LookupIdentifier(opts.Identifier)
		if !ok {
			return platform.Info{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, opts.Identifier)
		}
		return info, nil
	}

	detector := opts.Detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	host, err := detector.Detect(ctx)
	if err != nil {
		return platform.Info{}, err
	}
	info, ok := registry.Lookup(host.Platform, host.Arch)
	if !ok {
		return platform.Info{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, host.Identifier())
	}
	return info, nil
}
