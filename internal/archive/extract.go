// Package archive unpacks downloaded payloads and locates binaries inside them.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ulikunitz/xz"

	"ffstatic/internal/sources"
)

var (
	// ErrManualInstall marks formats that cannot be unpacked automatically.
	ErrManualInstall = errors.New("format requires manual installation")
	// ErrUnsupportedFormat marks an unknown format tag.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrCorruptArchive marks a payload whose content does not match its
	// declared format.
	ErrCorruptArchive = errors.New("payload does not match declared format")
	// ErrUnsafePath marks an entry that would escape the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")
)

var expectedMIME = map[sources.Format]string{
	sources.FormatZip:   "application/zip",
	sources.FormatTarGz: "application/gzip",
	sources.FormatTarXz: "application/x-xz",
}

// Extract unpacks archivePath into destDir according to format.
func Extract(ctx context.Context, format sources.Format, archivePath, destDir string) error {
	switch format {
	case sources.FormatZip, sources.FormatTarGz, sources.FormatTarXz:
	case sources.FormatAAR, sources.FormatPkg:
		return fmt.Errorf("%w: %s", ErrManualInstall, format)
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}

	if err := sniff(format, archivePath); err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("prepare extract dir: %w", err)
	}

	switch format {
	case sources.FormatZip:
		return extractZip(ctx, archivePath, destDir)
	case sources.FormatTarGz:
		return extractTarGz(ctx, archivePath, destDir)
	default:
		return extractTarXz(ctx, archivePath, destDir)
	}
}

func sniff(format sources.Format, archivePath string) error {
	want := expectedMIME[format]
	mt, err := mimetype.DetectFile(archivePath)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", filepath.Base(archivePath), err)
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(want) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is %s, expected %s", ErrCorruptArchive, filepath.Base(archivePath), mt.String(), want)
}

func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare file %s: %w", target, err)
	}
	if mode.Perm() == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}

func extractZip(ctx context.Context, archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open zip: %v", ErrCorruptArchive, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := safeJoin(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", file.Name, err)
		}
		err = writeFile(target, rc, file.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarGz(ctx context.Context, archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("%w: gzip reader: %v", ErrCorruptArchive, err)
	}
	defer gz.Close()

	return untarStream(ctx, gz, dest)
}

func extractTarXz(ctx context.Context, archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	xr, err := xz.NewReader(bufio.NewReader(file))
	if err != nil {
		return fmt.Errorf("%w: xz reader: %v", ErrCorruptArchive, err)
	}
	return untarStream(ctx, xr, dest)
}

func untarStream(ctx context.Context, r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := symlink(dest, target, header.Linkname); err != nil {
				return err
			}
		default:
			// Hard links, devices and fifos are not needed for static builds.
		}
	}
	return nil
}

func symlink(dest, target, linkname string) error {
	resolved := linkname
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(target), linkname)
	}
	rel, err := filepath.Rel(dest, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, target, linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare link %s: %w", target, err)
	}
	_ = os.Remove(target)
	if err := os.Symlink(linkname, target); err != nil {
		return fmt.Errorf("create link %s: %w", target, err)
	}
	return nil
}
