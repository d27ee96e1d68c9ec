package platform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryIdentifiersUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, info := range Default().Entries() {
		require.False(t, seen[info.Identifier], "duplicate identifier %s", info.Identifier)
		seen[info.Identifier] = true
		assert.Equal(t, info.Platform+"-"+info.Arch, info.Identifier)
	}
	assert.True(t, seen["linux-x64"])
	assert.True(t, seen["win32-x64"])
	assert.False(t, seen["freebsd-x64"])
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(entry("linux", "x64"), entry("linux", "x64"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = NewRegistry(Info{Platform: "linux", Arch: "x64"})
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	reg := Default()

	info, ok := reg.Lookup("darwin", "arm64")
	require.True(t, ok)
	assert.Equal(t, "darwin-arm64", info.Identifier)

	_, ok = reg.Lookup("freebsd", "x64")
	assert.False(t, ok)

	info, ok = reg.LookupIdentifier("win32-ia32")
	require.True(t, ok)
	assert.Equal(t, "ia32", info.Arch)

	_, ok = reg.LookupIdentifier("freebsd-x64")
	assert.False(t, ok)
}

func TestFileNameWindowsSuffix(t *testing.T) {
	for _, info := range Default().Entries() {
		for _, kind := range Kinds() {
			name := info.FileName(kind)
			if strings.HasPrefix(info.Identifier, "win32") {
				assert.True(t, strings.HasSuffix(name, ".exe"), "%s %s", info.Identifier, name)
			} else {
				assert.False(t, strings.HasSuffix(name, ".exe"), "%s %s", info.Identifier, name)
			}
		}
	}
}

func TestFileNameFallsBackWhenUnset(t *testing.T) {
	info := Info{Platform: "win32", Arch: "x64", Identifier: "win32-x64"}
	assert.Equal(t, "ffprobe.exe", info.FileName(KindFFprobe))

	info = Info{Platform: "linux", Arch: "x64", Identifier: "linux-x64", BinaryName: BinaryNames{FFmpeg: "ffmpeg-static"}}
	assert.Equal(t, "ffmpeg-static", info.FileName(KindFFmpeg))
	assert.Equal(t, "ffprobe", info.FileName(KindFFprobe))
}

func TestEntriesIsCopy(t *testing.T) {
	reg := Default()
	entries := reg.Entries()
	entries[0].Identifier = "mutated"
	_, ok := reg.LookupIdentifier("mutated")
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind(" FFprobe ")
	require.True(t, ok)
	assert.Equal(t, KindFFprobe, kind)

	_, ok = ParseKind("ffplay")
	assert.False(t, ok)
}
