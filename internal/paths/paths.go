package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"ffstatic/internal/platform"
)

// HomeEnv overrides the storage root when set.
const HomeEnv = "FFSTATIC_HOME"

const (
	appName        = "ffstatic"
	configFileName = "config.json"
)

// Mode selects where binaries and the config file live.
type Mode string

const (
	// ModeAppData stores everything in the per-user application data directory.
	ModeAppData Mode = "appdata"
	// ModePackage stores everything beside the running executable.
	ModePackage Mode = "package"
)

// ParseMode validates a mode name; the empty string selects ModeAppData.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeAppData:
		return ModeAppData, nil
	case ModePackage:
		return ModePackage, nil
	}
	return "", fmt.Errorf("unknown storage mode %q (want appdata or package)", value)
}

// Options configures NewResolver. Root, when set, wins over Mode and the
// environment.
type Options struct {
	Mode Mode
	Root string
}

// Resolver derives every on-disk location from a single root chosen once at
// construction. All methods are pure.
type Resolver struct {
	root string
}

// NewResolver picks the storage root: explicit Root, then $FFSTATIC_HOME, then
// the location implied by Mode.
func NewResolver(opts Options) (*Resolver, error) {
	if opts.Root != "" {
		return FromRoot(opts.Root)
	}
	if override, ok := os.LookupEnv(HomeEnv); ok && override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", HomeEnv, err)
		}
		return &Resolver{root: abs}, nil
	}

	switch opts.Mode {
	case ModePackage:
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return &Resolver{root: filepath.Dir(exe)}, nil
	case "", ModeAppData:
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("detect user home: %w", err)
		}
		return &Resolver{root: appDataRoot(runtime.GOOS, home, os.Getenv)}, nil
	default:
		return nil, fmt.Errorf("unknown storage mode %q", opts.Mode)
	}
}

// FromRoot builds a resolver rooted at dir.
func FromRoot(dir string) (*Resolver, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	return &Resolver{root: abs}, nil
}

func appDataRoot(goos, home string, getenv func(string) string) string {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		if local := getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName)
		}
		return filepath.Join(home, "AppData", "Local", appName)
	default:
		if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		return filepath.Join(home, ".local", "share", appName)
	}
}

// Root is the storage root.
func (r *Resolver) Root() string {
	return r.root
}

// BinariesRoot is the base directory holding one subdirectory per platform.
func (r *Resolver) BinariesRoot() string {
	return filepath.Join(r.root, "binaries")
}

// PlatformDir is BinariesRoot/<identifier>.
func (r *Resolver) PlatformDir(identifier string) string {
	return filepath.Join(r.BinariesRoot(), identifier)
}

// BinaryPath is the canonical location of kind for info.
func (r *Resolver) BinaryPath(info platform.Info, kind platform.Kind) string {
	return filepath.Join(r.PlatformDir(info.Identifier), info.FileName(kind))
}

// RelativePath is BinaryPath relative to BinariesRoot, slash separated, as
// recorded in the config file.
func (r *Resolver) RelativePath(info platform.Info, kind platform.Kind) string {
	return info.Identifier + "/" + info.FileName(kind)
}

// ConfigPath is the persisted config file.
func (r *Resolver) ConfigPath() string {
	return filepath.Join(r.root, configFileName)
}

// LogsDir holds installer log files.
func (r *Resolver) LogsDir() string {
	return filepath.Join(r.root, "logs")
}

// DownloadsDir holds per-run scratch directories.
func (r *Resolver) DownloadsDir() string {
	return filepath.Join(r.root, "downloads")
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
