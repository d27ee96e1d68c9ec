package platform

import "strings"

var osAliases = map[string]string{
	"windows": "win32",
	"win32":   "win32",
	"darwin":  "darwin",
	"macos":   "darwin",
	"linux":   "linux",
	"android": "android",
}

var archAliases = map[string]string{
	"amd64":   "x64",
	"x86_64":  "x64",
	"x64":     "x64",
	"386":     "ia32",
	"i386":    "ia32",
	"i686":    "ia32",
	"x86":     "ia32",
	"ia32":    "ia32",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"arm":     "arm",
	"armv6l":  "arm",
	"armv7l":  "arm",
	"armhf":   "arm",
}

// NormalizeOS maps Go and kernel OS names onto registry vocabulary. Unknown
// values are lowercased and returned unchanged so lookups report no match.
func NormalizeOS(goos string) string {
	key := strings.ToLower(strings.TrimSpace(goos))
	if mapped, ok := osAliases[key]; ok {
		return mapped
	}
	return key
}

// NormalizeArch maps GOARCH and uname machine names onto registry vocabulary.
func NormalizeArch(arch string) string {
	key := strings.ToLower(strings.TrimSpace(arch))
	if mapped, ok := archAliases[key]; ok {
		return mapped
	}
	return key
}
