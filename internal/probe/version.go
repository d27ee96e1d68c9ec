// Package probe inspects installed executables.
package probe

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"
)

// VersionSwitch is the flag ffmpeg and ffprobe accept for version output.
const VersionSwitch = "-version"

// Version runs the binary at path with -version and returns the normalised
// version from the first output line.
func Version(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, path, VersionSwitch)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", path, VersionSwitch, err)
	}
	return ParseVersionLine(firstLine(strings.TrimSpace(string(output)))), nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

var versionRegex = regexp.MustCompile(`([0-9]+)(?:\.([0-9]+))?(?:\.([0-9]+))?`)

// ParseVersionLine extracts the dotted version from a line such as
// "ffmpeg version 6.1.1-essentials_build-www.gyan.dev Copyright ...". Git
// snapshot builds ("N-113348-g...") have no release number and come back as
// the first numeric run.
func ParseVersionLine(line string) string {
	if idx := strings.Index(line, "version "); idx >= 0 {
		line = line[idx+len("version "):]
	}
	match := versionRegex.FindString(line)
	if match == "" {
		return line
	}
	return match
}

// Outdated reports whether installed is older than available. Both are parsed
// leniently as semver; when either fails to parse the comparison falls back
// to numeric components and finally to plain inequality.
func Outdated(installed, available string) bool {
	if installed == "" || available == "" {
		return false
	}
	iv, ierr := semver.ParseTolerant(installed)
	av, aerr := semver.ParseTolerant(available)
	if ierr == nil && aerr == nil {
		return iv.LT(av)
	}

	iParts, aParts := numericParts(installed), numericParts(available)
	if len(iParts) == 0 || len(aParts) == 0 {
		return installed != available
	}
	for len(iParts) < len(aParts) {
		iParts = append(iParts, 0)
	}
	for len(aParts) < len(iParts) {
		aParts = append(aParts, 0)
	}
	for i := range iParts {
		if iParts[i] != aParts[i] {
			return iParts[i] < aParts[i]
		}
	}
	return false
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	if current.Len() > 0 {
		val, _ := strconv.Atoi(current.String())
		parts = append(parts, val)
	}
	return parts
}
