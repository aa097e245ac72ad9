// Package filex holds the file primitives behind the file-backed
// identifier: directory creation, reading a single-value file, and
// write-once atomic writes.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates dir (and parents) with owner-only permissions if it
// does not exist yet and returns it.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// ReadValue returns the trimmed content of path. A missing file yields
// ("", nil); any other failure is returned.
func ReadValue(path string) (string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// WriteValueOnce writes value to path unless the file already holds a
// non-empty value, in which case the existing value is returned untouched.
// The write goes through a temp file and a rename so readers never see a
// partial value.
func WriteValueOnce(path, value string) (stored string, err error) {
	existing, err := ReadValue(path)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	dir, err := EnsureDir(filepath.Dir(path))
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return "", fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename to %s: %w", path, err)
	}

	return value, nil
}

// RemoveValue deletes path. It reports whether a file was removed; a
// missing file is not an error.
func RemoveValue(path string) (bool, error) {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return true, nil
}
