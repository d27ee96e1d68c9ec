package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"ffstatic/internal/sources"
)

type entry struct {
	name string
	body string
	link string
}

func writeZip(t *testing.T, path string, entries []entry) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, e.body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func tarBytes(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		if e.link != "" {
			require.NoError(t, tw.WriteHeader(&tar.Header{Name: e.name, Typeflag: tar.TypeSymlink, Linkname: e.link, Mode: 0o777}))
			continue
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: e.name, Typeflag: tar.TypeReg, Mode: 0o755, Size: int64(len(e.body))}))
		_, err := io.WriteString(tw, e.body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func writeTarGz(t *testing.T, path string, entries []entry) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(tarBytes(t, entries))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeTarXz(t *testing.T, path string, entries []entry) {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = xw.Write(tarBytes(t, entries))
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestExtractFormats(t *testing.T) {
	entries := []entry{
		{name: "ffmpeg-7.0/bin/ffmpeg", body: "ffmpeg-bytes"},
		{name: "ffmpeg-7.0/bin/ffprobe", body: "ffprobe-bytes"},
	}
	cases := []struct {
		format sources.Format
		write  func(*testing.T, string, []entry)
	}{
		{sources.FormatZip, writeZip},
		{sources.FormatTarGz, writeTarGz},
		{sources.FormatTarXz, writeTarXz},
	}
	for _, tc := range cases {
		t.Run(string(tc.format), func(t *testing.T) {
			dir := t.TempDir()
			archivePath := filepath.Join(dir, "payload")
			tc.write(t, archivePath, entries)

			dest := filepath.Join(dir, "out")
			require.NoError(t, Extract(context.Background(), tc.format, archivePath, dest))

			assert.Equal(t, "ffmpeg-bytes", readString(t, filepath.Join(dest, "ffmpeg-7.0", "bin", "ffmpeg")))
			assert.Equal(t, "ffprobe-bytes", readString(t, filepath.Join(dest, "ffmpeg-7.0", "bin", "ffprobe")))
		})
	}
}

func TestExtractLegacyRegularEntry(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	body := "old-style"
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "bin/ffmpeg", Typeflag: 0, Mode: 0o755, Size: int64(len(body))}))
	_, err := io.WriteString(tw, body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "payload")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o644))
	dest := filepath.Join(dir, "out")
	require.NoError(t, Extract(context.Background(), sources.FormatTarGz, archivePath, dest))
	assert.Equal(t, body, readString(t, filepath.Join(dest, "bin", "ffmpeg")))
}

func TestExtractManualAndUnknownFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.aar")
	writeZip(t, path, []entry{{name: "jni/arm64-v8a/libffmpeg.so", body: "x"}})

	err := Extract(context.Background(), sources.FormatAAR, path, filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, ErrManualInstall))

	err = Extract(context.Background(), sources.FormatPkg, path, filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, ErrManualInstall))

	err = Extract(context.Background(), sources.Format("rar"), path, filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestExtractRejectsMismatchedPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ffmpeg.zip")
	require.NoError(t, os.WriteFile(path, []byte("<!DOCTYPE html><html><body>Not Found</body></html>"), 0o644))

	err := Extract(context.Background(), sources.FormatZip, path, filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, ErrCorruptArchive))
}

func TestExtractRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evil.tar.gz")
	writeTarGz(t, path, []entry{{name: "../escape", body: "nope"}})

	dest := filepath.Join(dir, "out")
	err := Extract(context.Background(), sources.FormatTarGz, path, dest)
	assert.True(t, errors.Is(err, ErrUnsafePath))
	_, statErr := os.Stat(filepath.Join(dir, "escape"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractSymlinks(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tar.gz")
	writeTarGz(t, good, []entry{
		{name: "pkg/ffmpeg-real", body: "bin"},
		{name: "pkg/ffmpeg", link: "ffmpeg-real"},
	})
	dest := filepath.Join(dir, "out")
	require.NoError(t, Extract(context.Background(), sources.FormatTarGz, good, dest))
	assert.Equal(t, "bin", readString(t, filepath.Join(dest, "pkg", "ffmpeg")))

	bad := filepath.Join(dir, "bad.tar.gz")
	writeTarGz(t, bad, []entry{{name: "pkg/ffmpeg", link: "../../../etc/passwd"}})
	err := Extract(context.Background(), sources.FormatTarGz, bad, filepath.Join(dir, "out2"))
	assert.True(t, errors.Is(err, ErrUnsafePath))
}

func TestExtractHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.zip")
	writeZip(t, path, []entry{{name: "ffmpeg", body: "x"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Extract(ctx, sources.FormatZip, path, filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFindFilePrefersShallowestMatch(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "z"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(deep, "ffmpeg"), []byte("deep"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "z", "FFmpeg"), []byte("shallow"), 0o644))

	got, err := FindFile(root, "ffmpeg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "z", "FFmpeg"), got)
}

func TestFindFileSkipsDirectoriesWithMatchingName(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ffprobe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ffprobe", "ffprobe"), []byte("x"), 0o644))

	got, err := FindFile(root, "ffprobe")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "ffprobe", "ffprobe"), got)
}

func TestFindFileNotFound(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0o644))

	_, err := FindFile(root, "ffmpeg.exe")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResolveExact(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "ffmpeg.exe"), []byte("x"), 0o644))

	got, err := ResolveExact(root, "bin/ffmpeg.exe")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "bin", "ffmpeg.exe"), got)

	_, err = ResolveExact(root, "bin/ffprobe.exe")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = ResolveExact(root, "bin")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = ResolveExact(root, "../outside")
	assert.True(t, errors.Is(err, ErrUnsafePath))
}
