package effector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CreateFolder makes the directory (and parents) and returns its absolute
// path for last-created-item tracking.
func (d *Desktop) CreateFolder(target string) (string, error) {
	target, display := resolveTarget(target)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", display, err)
	}
	return target, nil
}

// CreateFile creates an empty file, defaulting the extension to .txt when
// none was given, and returns its absolute path.
func (d *Desktop) CreateFile(target string) (string, error) {
	target, display := resolveTarget(target)
	if !strings.Contains(filepath.Base(target), ".") {
		target += ".txt"
	}
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", display, err)
	}
	_ = f.Close()
	return target, nil
}

// List returns a short listing of the directory, capped at 20 entries.
func (d *Desktop) List(target string) (string, error) {
	target, display := resolveTarget(target)
	entries, err := os.ReadDir(target)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", display)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	shown := names
	suffix := ""
	if len(names) > 20 {
		shown = names[:20]
		suffix = fmt.Sprintf(" ... and %d more.", len(names)-20)
	}
	return fmt.Sprintf("Files in %s:\n%s%s", display, strings.Join(shown, ", "), suffix), nil
}

func resolveTarget(target string) (path, display string) {
	if target == "" || target == "root" {
		target = "."
	}
	if !filepath.IsAbs(target) {
		if cwd, err := os.Getwd(); err == nil {
			target = filepath.Join(cwd, target)
		}
	}
	display = filepath.Base(target)
	if display == "" || display == "." {
		display = target
	}
	return target, display
}
