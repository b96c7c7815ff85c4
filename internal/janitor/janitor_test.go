package janitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/scratch/internal/fsops"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestDefaultPath(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	assert.Equal(t, filepath.Join(runtimeDir, "scratch", "ledger.db"), DefaultPath())

	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.Contains(t, DefaultPath(), "scratch-")
}

func TestReapStale_RemovesDeadOwnersDirs(t *testing.T) {
	l := openTestLedger(t)

	dir := filepath.Join(t.TempDir(), "base")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, l.Record(dir))

	// Pretend the recording process died.
	l.alive = func(int) bool { return false }

	reaped, err := l.ReapStale(context.Background(), fsops.OS{})
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)
	assert.NoDirExists(t, dir)

	// Row is gone: a second reap finds nothing.
	reaped, err = l.ReapStale(context.Background(), fsops.OS{})
	require.NoError(t, err)
	assert.Equal(t, 0, reaped)
}

func TestReapStale_KeepsLiveOwnersDirs(t *testing.T) {
	l := openTestLedger(t)

	dir := filepath.Join(t.TempDir(), "base")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, l.Record(dir))

	// Default liveness: our own pid is alive.
	reaped, err := l.ReapStale(context.Background(), fsops.OS{})
	require.NoError(t, err)
	assert.Equal(t, 0, reaped)
	assert.DirExists(t, dir)
}

func TestForget(t *testing.T) {
	l := openTestLedger(t)

	dir := filepath.Join(t.TempDir(), "base")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, l.Record(dir))
	require.NoError(t, l.Forget(dir))

	l.alive = func(int) bool { return false }
	reaped, err := l.ReapStale(context.Background(), fsops.OS{})
	require.NoError(t, err)
	assert.Equal(t, 0, reaped, "forgotten rows are never reaped")
	assert.DirExists(t, dir)
}

func TestRecord_Replaces(t *testing.T) {
	l := openTestLedger(t)

	dir := filepath.Join(t.TempDir(), "base")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, l.Record(dir))
	require.NoError(t, l.Record(dir))

	l.alive = func(int) bool { return false }
	reaped, err := l.ReapStale(context.Background(), fsops.OS{})
	require.NoError(t, err)
	assert.Equal(t, 1, reaped, "re-recording the same path keeps one row")
}

func TestPidAlive_Self(t *testing.T) {
	assert.True(t, pidAlive(os.Getpid()))
}
