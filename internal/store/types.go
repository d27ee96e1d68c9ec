package store

import (
	"time"

	"ffstatic/internal/platform"
)

// ConfigBinaryInfo is the persisted record of one installed binary.
type ConfigBinaryInfo struct {
	Version      string `json:"version"`
	URL          string `json:"url"`
	RelativePath string `json:"relativePath"`
}

// PlatformEntry groups the installed binaries of one platform identifier.
type PlatformEntry struct {
	FFmpeg  *ConfigBinaryInfo `json:"ffmpeg,omitempty"`
	FFprobe *ConfigBinaryInfo `json:"ffprobe,omitempty"`
}

// Get returns the record for kind, or nil.
func (e PlatformEntry) Get(kind platform.Kind) *ConfigBinaryInfo {
	switch kind {
	case platform.KindFFmpeg:
		return e.FFmpeg
	case platform.KindFFprobe:
		return e.FFprobe
	}
	return nil
}

// Set replaces the record for kind.
func (e *PlatformEntry) Set(kind platform.Kind, info *ConfigBinaryInfo) {
	switch kind {
	case platform.KindFFmpeg:
		e.FFmpeg = info
	case platform.KindFFprobe:
		e.FFprobe = info
	}
}

// ConfigFile is the JSON document recording what is installed.
type ConfigFile struct {
	Platforms   map[string]PlatformEntry `json:"platforms" validate:"required,dive,keys,required,endkeys"`
	LastUpdated time.Time                `json:"lastUpdated"`
}

// Lookup returns the record for (identifier, kind), or nil.
func (c ConfigFile) Lookup(identifier string, kind platform.Kind) *ConfigBinaryInfo {
	entry, ok := c.Platforms[identifier]
	if !ok {
		return nil
	}
	return entry.Get(kind)
}

// Clock provides the current time. Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock implements Clock with a constant time.
type FixedClock struct {
	Time time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time {
	return c.Time
}
