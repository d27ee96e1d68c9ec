package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ffstatic/internal/platform"
)

func TestResolverLayout(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(Options{Root: root})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	info, _ := platform.Default().LookupIdentifier("linux-x64")
	want := filepath.Join(root, "binaries", "linux-x64", "ffmpeg")
	if got := r.BinaryPath(info, platform.KindFFmpeg); got != want {
		t.Fatalf("BinaryPath = %s, want %s", got, want)
	}
	if got := r.ConfigPath(); got != filepath.Join(root, "config.json") {
		t.Fatalf("ConfigPath = %s", got)
	}
	if got := r.RelativePath(info, platform.KindFFprobe); got != "linux-x64/ffprobe" {
		t.Fatalf("RelativePath = %s", got)
	}
	if _, err := os.Stat(r.BinariesRoot()); !os.IsNotExist(err) {
		t.Fatalf("resolver must not create directories")
	}
}

func TestBinaryPathWindowsSuffix(t *testing.T) {
	r, err := FromRoot(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, info := range platform.Default().Entries() {
		for _, kind := range platform.Kinds() {
			p := r.BinaryPath(info, kind)
			isExe := strings.HasSuffix(p, ".exe")
			if info.IsWindows() != isExe {
				t.Errorf("%s %s: path %s", info.Identifier, kind, p)
			}
		}
	}
}

func TestHomeEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	r, err := NewResolver(Options{Mode: ModeAppData})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if r.Root() != dir {
		t.Fatalf("Root = %s, want %s", r.Root(), dir)
	}
}

func TestAppDataRoot(t *testing.T) {
	env := func(values map[string]string) func(string) string {
		return func(key string) string { return values[key] }
	}
	home := filepath.FromSlash("/home/u")

	tests := []struct {
		goos string
		env  map[string]string
		want string
	}{
		{"darwin", nil, filepath.Join(home, "Library", "Application Support", "ffstatic")},
		{"windows", map[string]string{"LOCALAPPDATA": filepath.FromSlash("/appdata")}, filepath.Join(filepath.FromSlash("/appdata"), "ffstatic")},
		{"windows", nil, filepath.Join(home, "AppData", "Local", "ffstatic")},
		{"linux", nil, filepath.Join(home, ".local", "share", "ffstatic")},
		{"linux", map[string]string{"XDG_DATA_HOME": filepath.FromSlash("/xdg")}, filepath.Join(filepath.FromSlash("/xdg"), "ffstatic")},
	}
	for _, tt := range tests {
		if got := appDataRoot(tt.goos, home, env(tt.env)); got != tt.want {
			t.Errorf("appDataRoot(%s) = %s, want %s", tt.goos, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeAppData {
		t.Fatalf("ParseMode(\"\") = %v, %v", m, err)
	}
	if m, err := ParseMode("Package"); err != nil || m != ModePackage {
		t.Fatalf("ParseMode(Package) = %v, %v", m, err)
	}
	if _, err := ParseMode("global"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := FileExists(file); err != nil || !ok {
		t.Fatalf("FileExists(file) = %v, %v", ok, err)
	}
	if ok, _ := FileExists(dir); ok {
		t.Fatal("directory reported as file")
	}
	if ok, _ := FileExists(filepath.Join(dir, "missing")); ok {
		t.Fatal("missing path reported as file")
	}
	if ok, _ := DirExists(dir); !ok {
		t.Fatal("DirExists(dir) = false")
	}
}
