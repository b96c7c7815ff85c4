package scratch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bamsammich/scratch/internal/config"
	"github.com/bamsammich/scratch/internal/fsops"
	"github.com/bamsammich/scratch/internal/janitor"
)

// Runtime owns the process-wide scratch state: the resolved settings, the
// shared base directory, and the set of managers with undisposed entries.
// The package-level API operates on a single default Runtime; tests and
// embedding hosts can construct private ones.
type Runtime struct {
	cfg        config.Settings
	fs         fsops.FS
	log        *slog.Logger
	ledgerPath string

	base dirCell

	mu       sync.Mutex
	managers map[*Manager]struct{}

	hookOnce      sync.Once
	hookInstalled atomic.Bool
	shuttingDown  atomic.Bool
}

// RuntimeOption configures a Runtime at construction.
type RuntimeOption func(*Runtime)

// WithSettings replaces the environment-derived settings.
func WithSettings(s config.Settings) RuntimeOption {
	return func(rt *Runtime) { rt.cfg = s }
}

// WithFS replaces the filesystem implementation.
func WithFS(fs fsops.FS) RuntimeOption {
	return func(rt *Runtime) { rt.fs = fs }
}

// WithLogger replaces the diagnostic logger.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(rt *Runtime) { rt.log = l }
}

// WithLedgerPath relocates the janitor ledger. An empty path disables the
// ledger entirely.
func WithLedgerPath(path string) RuntimeOption {
	return func(rt *Runtime) { rt.ledgerPath = path }
}

// NewRuntime builds a Runtime from the environment, the optional defaults
// file, and any overrides.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		cfg:        config.Load(),
		fs:         fsops.OS{},
		log:        slog.Default(),
		ledgerPath: janitor.DefaultPath(),
		managers:   make(map[*Manager]struct{}),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// std backs the package-level convenience API.
var std = NewRuntime()

// Default returns the process-wide Runtime.
func Default() *Runtime { return std }

// register adds a manager to the live set. Idempotent.
func (rt *Runtime) register(m *Manager) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.managers[m] = struct{}{}
}

// deregister removes a manager from the live set, reporting whether it was a
// member and whether the set is now empty.
func (rt *Runtime) deregister(m *Manager) (wasMember, empty bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, wasMember = rt.managers[m]
	delete(rt.managers, m)
	return wasMember, len(rt.managers) == 0
}

// snapshot atomically takes and clears the live set, so a manager can be
// drained at most once and late allocations register into a fresh set.
func (rt *Runtime) snapshot() []*Manager {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	ms := make([]*Manager, 0, len(rt.managers))
	for m := range rt.managers {
		ms = append(ms, m)
	}
	rt.managers = make(map[*Manager]struct{})
	return ms
}

// reportRemoveError routes a disposal error through the error policy:
// already-absent is success, permission errors during shutdown are expected
// races, everything else is a contained diagnostic.
func (rt *Runtime) reportRemoveError(path string, err error) {
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}
	if errors.Is(err, fs.ErrPermission) && rt.shuttingDown.Load() {
		rt.log.Debug("scratch: removal denied during shutdown", "path", path, "error", err)
		return
	}
	rt.log.Warn("scratch: failed to remove temp entry", "path", path, "error", err)
}

// ReapStale removes base directories recorded in the ledger by processes
// that are no longer running. Returns the number of directories removed.
func (rt *Runtime) ReapStale(ctx context.Context) (int, error) {
	if rt.ledgerPath == "" {
		return 0, nil
	}
	l, err := janitor.Open(rt.ledgerPath)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.ReapStale(ctx, rt.fs)
}

// ReapStale removes leftover base directories of crashed processes,
// using the default Runtime.
func ReapStale(ctx context.Context) (int, error) { return std.ReapStale(ctx) }
