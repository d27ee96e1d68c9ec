package sources

import "sort"

// Table maps platform identifiers to download sources. A Table is never
// mutated after construction.
type Table struct {
	entries map[string]Source
}

// NewTable copies entries into a new table.
func NewTable(entries map[string]Source) Table {
	copied := make(map[string]Source, len(entries))
	for id, src := range entries {
		copied[id] = src
	}
	return Table{entries: copied}
}

// Lookup returns the source for id.
func (t Table) Lookup(id string) (Source, bool) {
	src, ok := t.entries[id]
	return src, ok
}

// Identifiers lists the identifiers with a source, sorted.
func (t Table) Identifiers() []string {
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of entries.
func (t Table) Len() int {
	return len(t.entries)
}

// Merge returns a table where entries from other replace entries in t.
func (t Table) Merge(other Table) Table {
	merged := make(map[string]Source, len(t.entries)+len(other.entries))
	for id, src := range t.entries {
		merged[id] = src
	}
	for id, src := range other.entries {
		merged[id] = src
	}
	return Table{entries: merged}
}

func path(p string) *string {
	return &p
}

const (
	vansickleBase = "https://johnvansickle.com/ffmpeg/releases/"
	gyanBase      = "https://github.com/GyanD/codexffmpeg/releases/download/6.1.1/"
	releaseBase   = "https://github.com/ffstatic/ffstatic/releases/download/b6.1.1/"
)

// Default returns the built-in source table. The URLs are operator data: hosts
// move, so callers may overlay their own table with LoadFile and Merge.
func Default() Table {
	return NewTable(map[string]Source{
		"darwin-x64": {
			URL:        "https://evermeet.cx/ffmpeg/ffmpeg-6.1.1.zip",
			Format:     FormatZip,
			FFmpegPath: path("ffmpeg"),
			Version:    "6.1.1",
			Secondary: &Secondary{
				URL:    "https://evermeet.cx/ffmpeg/ffprobe-6.1.1.zip",
				Format: FormatZip,
				Path:   "ffprobe",
			},
		},
		"darwin-arm64": {
			URL:        "https://www.osxexperts.net/ffmpeg611arm.zip",
			Format:     FormatZip,
			FFmpegPath: path("ffmpeg"),
			Version:    "6.1.1",
			Secondary: &Secondary{
				URL:    "https://www.osxexperts.net/ffprobe611arm.zip",
				Format: FormatZip,
				Path:   "ffprobe",
			},
		},
		"linux-x64": {
			URL:     vansickleBase + "ffmpeg-release-amd64-static.tar.xz",
			Format:  FormatTarXz,
			Version: "7.0.2",
		},
		"linux-ia32": {
			URL:     vansickleBase + "ffmpeg-release-i686-static.tar.xz",
			Format:  FormatTarXz,
			Version: "7.0.2",
		},
		"linux-arm64": {
			URL:     vansickleBase + "ffmpeg-release-arm64-static.tar.xz",
			Format:  FormatTarXz,
			Version: "7.0.2",
		},
		"linux-arm": {
			URL:     vansickleBase + "ffmpeg-release-armhf-static.tar.xz",
			Format:  FormatTarXz,
			Version: "7.0.2",
		},
		"win32-x64": {
			URL:         gyanBase + "ffmpeg-6.1.1-essentials_build.zip",
			Format:      FormatZip,
			FFmpegPath:  path("ffmpeg-6.1.1-essentials_build/bin/ffmpeg.exe"),
			FFprobePath: path("ffmpeg-6.1.1-essentials_build/bin/ffprobe.exe"),
			Version:     "6.1.1",
		},
		"win32-ia32": {
			URL:     releaseBase + "ffmpeg-win32-ia32.exe",
			Format:  FormatBinary,
			Version: "6.1.1",
			Secondary: &Secondary{
				URL:    releaseBase + "ffprobe-win32-ia32.exe",
				Format: FormatBinary,
			},
		},
		"android-arm64": {
			URL:     "https://github.com/arthenica/ffmpeg-kit/releases/download/v6.0/ffmpeg-kit-full-6.0-android.aar",
			Format:  FormatAAR,
			Version: "6.0",
			Options: &Options{Arch: "arm64-v8a"},
		},
	})
}
