package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// Host is the detected operating system and architecture in registry
// vocabulary.
type Host struct {
	Platform string
	Arch     string
	ArchRaw  string
}

// Identifier joins platform and arch the way registry identifiers are built.
func (h Host) Identifier() string {
	return h.Platform + "-" + h.Arch
}

// Detector reports the host platform.
type Detector interface {
	Detect(ctx context.Context) (Host, error)
}

// RealDetector inspects the running machine.
type RealDetector struct {
	goos       string
	goarch     string
	kernelArch func(ctx context.Context) (string, error)
}

// NewDetector returns a detector backed by runtime and gopsutil.
func NewDetector() *RealDetector {
	return &RealDetector{
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
		kernelArch: func(context.Context) (string, error) { return host.KernelArch() },
	}
}

// Detect prefers the kernel architecture over GOARCH so an emulated installer
// (Rosetta, WOW64) still selects the native build. When gopsutil cannot answer
// it falls back to GOARCH.
func (d *RealDetector) Detect(ctx context.Context) (Host, error) {
	if err := ctx.Err(); err != nil {
		return Host{}, fmt.Errorf("platform detection cancelled: %w", err)
	}
	raw := d.goarch
	if d.kernelArch != nil {
		arch, err := d.kernelArch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Host{}, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
		} else if arch != "" {
			raw = arch
		}
	}

	normalized := NormalizeArch(raw)
	if _, known := archAliases[normalized]; !known {
		normalized = NormalizeArch(d.goarch)
	}

	return Host{
		Platform: NormalizeOS(d.goos),
		Arch:     normalized,
		ArchRaw:  raw,
	}, nil
}

// StaticDetector always reports the same host.
type StaticDetector Host

// Detect implements Detector.
func (s StaticDetector) Detect(context.Context) (Host, error) {
	return Host(s), nil
}
