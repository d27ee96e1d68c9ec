package platform

import "strings"

// Kind identifies one of the two managed executables.
type Kind string

const (
	KindFFmpeg  Kind = "ffmpeg"
	KindFFprobe Kind = "ffprobe"
)

// Kinds returns every managed kind in install order.
func Kinds() []Kind {
	return []Kind{KindFFmpeg, KindFFprobe}
}

// ParseKind accepts the kind name case-insensitively.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindFFmpeg:
		return KindFFmpeg, true
	case KindFFprobe:
		return KindFFprobe, true
	}
	return "", false
}

func (k Kind) String() string {
	return string(k)
}

const windowsTag = "win32"

// BinaryNames overrides the on-disk file name of each kind. Empty fields fall
// back to the conventional name for the platform.
type BinaryNames struct {
	FFmpeg  string `json:"ffmpeg,omitempty"`
	FFprobe string `json:"ffprobe,omitempty"`
}

// Info describes one supported (OS, architecture) pair.
type Info struct {
	Platform   string      `json:"platform"`
	Arch       string      `json:"arch"`
	Identifier string      `json:"identifier"`
	BinaryName BinaryNames `json:"binaryName"`
}

// IsWindows reports whether the identifier carries the Windows platform tag.
func (i Info) IsWindows() bool {
	return strings.HasPrefix(i.Identifier, windowsTag)
}

// FileName returns the executable file name for kind on this platform.
func (i Info) FileName(kind Kind) string {
	var explicit string
	switch kind {
	case KindFFmpeg:
		explicit = i.BinaryName.FFmpeg
	case KindFFprobe:
		explicit = i.BinaryName.FFprobe
	}
	if explicit != "" {
		return explicit
	}
	return DefaultFileName(i.Identifier, kind)
}

// DefaultFileName is the conventional executable name for kind, with the .exe
// suffix on Windows identifiers.
func DefaultFileName(identifier string, kind Kind) string {
	if strings.HasPrefix(identifier, windowsTag) {
		return string(kind) + ".exe"
	}
	return string(kind)
}
