package scratch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Disposer is a caller-supplied override for how one entry is removed. It
// replaces default removal entirely.
type Disposer func(path string) error

// entry is one allocated temp path owned by a single manager.
type entry struct {
	path    string
	dir     bool
	dispose Disposer
}

// Manager allocates temp paths under the shared base directory and tracks
// them until cleanup. A manager may be reused after cleanup; it simply
// re-registers on its next allocation. All methods are safe for concurrent
// use.
type Manager struct {
	rt    *Runtime
	label string

	mu         sync.Mutex
	entries    []entry
	registered bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLabel sets a debug label identifying the manager's owner.
func WithLabel(label string) Option {
	return func(m *Manager) { m.label = label }
}

// New creates a Manager on the default Runtime.
func New(opts ...Option) *Manager { return std.NewManager(opts...) }

// NewManager creates a Manager bound to this Runtime.
func (rt *Runtime) NewManager(opts ...Option) *Manager {
	m := &Manager{rt: rt}
	for _, opt := range opts {
		opt(m)
	}
	if m.label == "" {
		m.label = uuid.New().String()[:8]
	}
	return m
}

// Label returns the manager's debug label.
func (m *Manager) Label() string { return m.label }

// pathOpts collects per-allocation options.
type pathOpts struct {
	prefix  string
	suffix  string
	dispose Disposer
}

// PathOption configures a single allocation.
type PathOption func(*pathOpts)

// WithPrefix prepends prefix and "-" to the generated name.
func WithPrefix(prefix string) PathOption {
	return func(o *pathOpts) { o.prefix = prefix }
}

// WithSuffix appends suffix to the generated name. A suffix starting with
// "." is attached directly as an extension; anything else is joined with "-".
func WithSuffix(suffix string) PathOption {
	return func(o *pathOpts) { o.suffix = suffix }
}

// WithDisposer replaces default removal for this entry.
func WithDisposer(d Disposer) PathOption {
	return func(o *pathOpts) { o.dispose = d }
}

// Path reserves a unique path under the shared base directory and records it
// for later disposal. Nothing is created on disk; use [Manager.MkDir] (or
// create the file yourself) when the entry should exist. dir controls how
// default disposal removes the entry: recursively, or as a single file.
func (m *Manager) Path(ctx context.Context, dir bool, opts ...PathOption) (string, error) {
	var o pathOpts
	for _, opt := range opts {
		opt(&o)
	}

	base, err := m.rt.resolveBase(ctx)
	if err != nil {
		return "", err
	}

	name := nextSerial()
	if o.prefix != "" {
		name = o.prefix + "-" + name
	}
	switch {
	case o.suffix == "":
	case strings.HasPrefix(o.suffix, "."):
		name += o.suffix
	default:
		name += "-" + o.suffix
	}
	path := filepath.Join(base, name)

	m.mu.Lock()
	m.entries = append(m.entries, entry{path: path, dir: dir, dispose: o.dispose})
	if !m.registered {
		// Membership must change together with the flag, while m.mu is
		// held: an allocation racing a cleanup's final deregistration
		// would otherwise leave a manager with a pending entry outside
		// the registry, invisible to the exit coordinator.
		m.registered = true
		m.rt.register(m)
	}
	m.mu.Unlock()

	return path, nil
}

// FilePath reserves a path intended for a file.
func (m *Manager) FilePath(ctx context.Context, opts ...PathOption) (string, error) {
	return m.Path(ctx, false, opts...)
}

// DirPath reserves a path intended for a directory without creating it.
func (m *Manager) DirPath(ctx context.Context, opts ...PathOption) (string, error) {
	return m.Path(ctx, true, opts...)
}

// MkDir reserves a directory path and creates it on disk.
func (m *Manager) MkDir(ctx context.Context, opts ...PathOption) (string, error) {
	path, err := m.DirPath(ctx, opts...)
	if err != nil {
		return "", err
	}
	if err := m.rt.fs.EnsureDir(path); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	return path, nil
}

// take atomically claims all recorded entries and resets the manager's
// registered flag, so a concurrent second cleanup sees nothing to do.
func (m *Manager) take() []entry {
	m.mu.Lock()
	entries := m.entries
	m.entries = nil
	m.registered = false
	m.mu.Unlock()
	return entries
}

// finishCleanup deregisters the manager unless an allocation re-registered
// it while disposal was running; that allocation's entries are pending, so
// the manager must stay a member. Reports whether the manager was removed
// and whether the registry is now empty.
func (m *Manager) finishCleanup() (wasMember, empty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registered {
		return false, false
	}
	return m.rt.deregister(m)
}

// CleanupSync disposes every recorded entry in allocation order, one at a
// time, and deregisters the manager. Intended for last-chance shutdown where
// nothing can wait: custom disposers are fired without waiting for them
// (best effort, result ignored), and removal failures are logged, never
// returned.
func (m *Manager) CleanupSync() {
	entries := m.take()
	for _, e := range entries {
		if e.dispose != nil {
			go func(e entry) { _ = e.dispose(e.path) }(e)
			continue
		}
		m.remove(e)
	}
	m.finishCleanup()
}

// Cleanup disposes every recorded entry with bounded concurrency and
// deregisters the manager. Disposal failures are contained per entry and
// logged. If this manager was the last live one, the shared base directory
// itself is removed and reset, so the next allocation anywhere in the
// process starts a fresh directory. Calling Cleanup on an empty manager is
// a no-op.
func (m *Manager) Cleanup(ctx context.Context) {
	m.disposeAll(ctx, m.take())
	if wasMember, empty := m.finishCleanup(); wasMember && empty {
		m.rt.teardownBase()
	}
}

// disposeAll fans entries out to a small fixed pool of workers. Unbounded
// parallel removal can overwhelm the filesystem when a manager holds many
// entries.
func (m *Manager) disposeAll(ctx context.Context, entries []entry) {
	if len(entries) == 0 {
		return
	}
	workers := m.rt.cfg.CleanupWorkers
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, len(entries))

	tasks := make(chan entry)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range tasks {
				m.disposeOne(e)
			}
		}()
	}

feed:
	for _, e := range entries {
		select {
		case tasks <- e:
		case <-ctx.Done():
			// Stop feeding; in-flight disposals finish.
			break feed
		}
	}
	close(tasks)
	wg.Wait()
}

func (m *Manager) disposeOne(e entry) {
	if e.dispose != nil {
		if err := e.dispose(e.path); err != nil {
			m.rt.log.Warn("scratch: custom disposer failed", "path", e.path, "error", err)
		}
		return
	}
	m.remove(e)
}

func (m *Manager) remove(e entry) {
	var err error
	if e.dir {
		err = m.rt.fs.RemoveTree(e.path)
	} else {
		err = m.rt.fs.RemoveFile(e.path)
	}
	m.rt.reportRemoveError(e.path, err)
}
