//go:build unix

package config

import (
	"os"

	"golang.org/x/sys/unix"
)

const rootFallback = "/tmp"

// platformRoot returns the system scratch directory, falling back to /tmp
// when the reported directory is missing or not writable. Some minimal
// environments report a TMPDIR that does not exist.
func platformRoot() string {
	dir := os.TempDir()
	if unix.Access(dir, unix.W_OK) == nil {
		return dir
	}
	return rootFallback
}
