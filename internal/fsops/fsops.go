// Package fsops provides the filesystem primitives the scratch runtime is
// built on: idempotent create/remove, atomic unique-directory creation, and
// canonical path resolution.
//
// The FS interface exists so the runtime's memoization, registry, and
// error-tolerance behavior can be tested against injected failures; production
// code uses the OS implementation.
package fsops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the set of filesystem operations the scratch runtime depends on.
// Removal operations treat an already-absent path as success.
type FS interface {
	// EnsureDir creates path and any missing parents. Existing directories
	// are not an error.
	EnsureDir(path string) error

	// RemoveTree removes path and everything below it. Absent paths are
	// not an error.
	RemoveTree(path string) error

	// RemoveFile removes a single file. Absent paths are not an error.
	RemoveFile(path string) error

	// MakeUniqueDir atomically creates a new uniquely-named directory
	// under parent and returns its path. Safe against concurrent callers
	// in this or any other process.
	MakeUniqueDir(parent, prefix string) (string, error)

	// Canonicalize resolves symlinks and relative segments, returning an
	// absolute path.
	Canonicalize(path string) (string, error)
}

// OS implements FS against the real filesystem.
type OS struct{}

func (OS) EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (OS) RemoveTree(path string) error {
	// os.RemoveAll already succeeds on absent paths.
	return os.RemoveAll(path)
}

func (OS) RemoveFile(path string) error {
	err := os.Remove(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (OS) MakeUniqueDir(parent, prefix string) (string, error) {
	return os.MkdirTemp(parent, prefix+"-")
}

func (OS) Canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}
