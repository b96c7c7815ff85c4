//go:build unix

package janitor

import (
	"errors"

	"golang.org/x/sys/unix"
)

// pidAlive reports whether pid refers to a running process. Signal 0
// performs permission and existence checks without delivering anything;
// EPERM means the process exists but belongs to someone else.
func pidAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
