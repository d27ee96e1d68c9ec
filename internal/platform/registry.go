package platform

import (
	"fmt"
)

// Registry is an immutable table of supported platforms.
type Registry struct {
	entries []Info
}

// NewRegistry builds a registry from entries. Identifiers must be unique and
// non-empty.
func NewRegistry(entries ...Info) (*Registry, error) {
	seen := make(map[string]struct{}, len(entries))
	copied := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.Identifier == "" {
			return nil, fmt.Errorf("platform %s/%s has no identifier", entry.Platform, entry.Arch)
		}
		if _, dup := seen[entry.Identifier]; dup {
			return nil, fmt.Errorf("duplicate platform identifier %q", entry.Identifier)
		}
		seen[entry.Identifier] = struct{}{}
		copied = append(copied, entry)
	}
	return &Registry{entries: copied}, nil
}

func entry(os, arch string) Info {
	return Info{
		Platform:   os,
		Arch:       arch,
		Identifier: os + "-" + arch,
		BinaryName: BinaryNames{
			FFmpeg:  DefaultFileName(os, KindFFmpeg),
			FFprobe: DefaultFileName(os, KindFFprobe),
		},
	}
}

var builtin = []Info{
	entry("darwin", "x64"),
	entry("darwin", "arm64"),
	entry("linux", "x64"),
	entry("linux", "ia32"),
	entry("linux", "arm64"),
	entry("linux", "arm"),
	entry("win32", "x64"),
	entry("win32", "ia32"),
	entry("android", "arm64"),
}

// Default returns the built-in registry.
func Default() *Registry {
	reg, err := NewRegistry(builtin...)
	if err != nil {
		panic(err)
	}
	return reg
}

// Lookup finds the entry for an exact (platform, arch) pair.
func (r *Registry) Lookup(platform, arch string) (Info, bool) {
	for _, info := range r.entries {
		if info.Platform == platform && info.Arch == arch {
			return info, true
		}
	}
	return Info{}, false
}

// LookupIdentifier finds the entry whose identifier equals id.
func (r *Registry) LookupIdentifier(id string) (Info, bool) {
	for _, info := range r.entries {
		if info.Identifier == id {
			return info, true
		}
	}
	return Info{}, false
}

// Entries returns a copy of the registry in declaration order.
func (r *Registry) Entries() []Info {
	out := make([]Info, len(r.entries))
	copy(out, r.entries)
	return out
}
