package sources

// Format is the container type of a downloaded artefact.
type Format string

const (
	FormatZip    Format = "zip"
	FormatTarGz  Format = "tar.gz"
	FormatTarXz  Format = "tar.xz"
	FormatBinary Format = "binary"
	FormatAAR    Format = "aar"
	FormatPkg    Format = "pkg"
)

// NeedsExtraction reports whether the artefact is a container rather than the
// executable itself.
func (f Format) NeedsExtraction() bool {
	return f != FormatBinary
}

// Extractable reports whether an extraction strategy exists for the format.
func (f Format) Extractable() bool {
	switch f {
	case FormatZip, FormatTarGz, FormatTarXz:
		return true
	}
	return false
}

// Secondary describes a second fetch for platforms whose ffmpeg and ffprobe
// ship separately.
type Secondary struct {
	URL    string `json:"url" yaml:"url" toml:"url" validate:"required,url"`
	Format Format `json:"format" yaml:"format" toml:"format" validate:"required,oneof=zip tar.gz tar.xz binary aar pkg"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
}

// Options carries request tweaks for a source.
type Options struct {
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
	Arch    string            `json:"arch,omitempty" yaml:"arch,omitempty" toml:"arch,omitempty"`
}

// Source is the download descriptor for one platform identifier. A nil
// in-archive path means the location is unknown and must be searched for.
type Source struct {
	URL         string     `json:"url" yaml:"url" toml:"url" validate:"required,url"`
	Format      Format     `json:"format" yaml:"format" toml:"format" validate:"required,oneof=zip tar.gz tar.xz binary aar pkg"`
	FFmpegPath  *string    `json:"ffmpegPath" yaml:"ffmpegPath" toml:"ffmpegPath"`
	FFprobePath *string    `json:"ffprobePath" yaml:"ffprobePath" toml:"ffprobePath"`
	Version     string     `json:"version" yaml:"version" toml:"version" validate:"required"`
	Secondary   *Secondary `json:"secondaryDownload,omitempty" yaml:"secondaryDownload,omitempty" toml:"secondaryDownload,omitempty"`
	Options     *Options   `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
	SHA256      string     `json:"sha256,omitempty" yaml:"sha256,omitempty" toml:"sha256,omitempty" validate:"omitempty,len=64,hexadecimal"`
}

// Headers returns the request headers configured for the source.
func (s Source) Headers() map[string]string {
	if s.Options == nil {
		return nil
	}
	return s.Options.Headers
}

// ArchivePath returns the declared in-archive path for a binary kind name
// ("ffmpeg" or "ffprobe").
func (s Source) ArchivePath(kind string) string {
	var p *string
	switch kind {
	case "ffmpeg":
		p = s.FFmpegPath
	case "ffprobe":
		p = s.FFprobePath
	}
	if p == nil {
		return ""
	}
	return *p
}
