package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when a search exhausts the tree.
var ErrNotFound = errors.New("file not found")

// FindFile searches root breadth-first for a regular file whose name matches
// name case-insensitively. Shallower matches win; within a directory entries
// are visited in lexical order.
func FindFile(root, name string) (string, error) {
	queue := []string{root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", dir, err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				queue = append(queue, full)
				continue
			}
			if !strings.EqualFold(entry.Name(), name) {
				continue
			}
			info, err := os.Stat(full)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			return full, nil
		}
	}
	return "", fmt.Errorf("%w: %s under %s", ErrNotFound, name, root)
}

// ResolveExact returns root/rel when it names a regular file.
func ResolveExact(root, rel string) (string, error) {
	target, err := safeJoin(root, rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrNotFound, rel)
	}
	return target, nil
}
