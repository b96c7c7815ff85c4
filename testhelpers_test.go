package scratch

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bamsammich/scratch/internal/config"
	"github.com/bamsammich/scratch/internal/fsops"
)

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	return config.Settings{
		Root:           t.TempDir(),
		ExitCleanup:    false,
		CleanupWorkers: config.DefaultCleanupWorkers,
		DirPrefix:      config.DefaultDirPrefix,
	}
}

// newTestRuntime builds a Runtime rooted in a per-test directory with the
// exit hook and ledger disabled.
func newTestRuntime(t *testing.T, opts ...RuntimeOption) *Runtime {
	t.Helper()
	base := []RuntimeOption{
		WithSettings(testSettings(t)),
		WithLedgerPath(""),
	}
	return NewRuntime(append(base, opts...)...)
}

// isRegistered reports registry membership for a manager.
func isRegistered(rt *Runtime, m *Manager) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.managers[m]
	return ok
}

func registrySize(rt *Runtime) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.managers)
}

// countingFS counts MakeUniqueDir calls on top of the real filesystem.
type countingFS struct {
	fsops.OS
	makeUnique atomic.Int32
}

func (c *countingFS) MakeUniqueDir(parent, prefix string) (string, error) {
	c.makeUnique.Add(1)
	return c.OS.MakeUniqueDir(parent, prefix)
}

// flakyFS fails the first n MakeUniqueDir calls.
type flakyFS struct {
	fsops.OS
	failures atomic.Int32
}

var errInjected = errors.New("injected failure")

func (f *flakyFS) MakeUniqueDir(parent, prefix string) (string, error) {
	if f.failures.Add(-1) >= 0 {
		return "", errInjected
	}
	return f.OS.MakeUniqueDir(parent, prefix)
}

// recordingFS records removal order on top of the real filesystem.
type recordingFS struct {
	fsops.OS
	mu      sync.Mutex
	removed []string
}

func (r *recordingFS) record(path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
}

func (r *recordingFS) RemoveFile(path string) error {
	r.record(path)
	return r.OS.RemoveFile(path)
}

func (r *recordingFS) RemoveTree(path string) error {
	r.record(path)
	return r.OS.RemoveTree(path)
}

// failRemoveFS fails removals of one specific path.
type failRemoveFS struct {
	fsops.OS
	failPath string
}

func (f *failRemoveFS) RemoveFile(path string) error {
	if path == f.failPath {
		return errInjected
	}
	return f.OS.RemoveFile(path)
}
