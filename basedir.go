package scratch

import (
	"context"
	"fmt"
	"sync"

	"github.com/bamsammich/scratch/internal/janitor"
)

// dirCell is the lazily-initialized shared base directory. It is in one of
// three states: uninitialized (path empty, cur nil), pending (cur non-nil),
// or ready (path set). Concurrent callers attach to the in-flight attempt
// rather than starting their own, so a race into two directories cannot
// happen.
type dirCell struct {
	mu   sync.Mutex
	path string
	cur  *attempt
}

// attempt is one in-flight resolution. Waiters read path/err after done
// closes.
type attempt struct {
	done chan struct{}
	path string
	err  error
}

// BaseDir resolves (creating it on first use) and returns the shared base
// directory. Collaborators may place additional files alongside managed
// entries; those files are removed with the directory at teardown.
func (rt *Runtime) BaseDir(ctx context.Context) (string, error) {
	return rt.resolveBase(ctx)
}

// BaseDir resolves the shared base directory of the default Runtime.
func BaseDir(ctx context.Context) (string, error) { return std.BaseDir(ctx) }

func (rt *Runtime) resolveBase(ctx context.Context) (string, error) {
	c := &rt.base
	c.mu.Lock()
	if c.path != "" {
		p := c.path
		c.mu.Unlock()
		return p, nil
	}
	if c.cur != nil {
		a := c.cur
		c.mu.Unlock()
		select {
		case <-a.done:
			return a.path, a.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	a := &attempt{done: make(chan struct{})}
	c.cur = a
	c.mu.Unlock()

	// The resolution runs detached: a caller whose context expires abandons
	// the wait, not the work, so later callers still find the one shared
	// directory instead of racing into a second creation.
	go func() {
		path, err := rt.createBase()
		c.mu.Lock()
		a.path, a.err = path, err
		if err == nil {
			c.path = path
		}
		// A failed attempt is not cached; the next caller starts fresh.
		c.cur = nil
		c.mu.Unlock()
		close(a.done)
	}()

	select {
	case <-a.done:
		return a.path, a.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// createBase performs the one-time filesystem work: a unique directory under
// the configured scratch root, canonicalized so consumers can compare and
// display the path. Exit-hook installation and the janitor record ride along
// with a successful creation.
func (rt *Runtime) createBase() (string, error) {
	root := rt.cfg.ResolveRoot()
	dir, err := rt.fs.MakeUniqueDir(root, rt.cfg.DirPrefix)
	if err != nil {
		return "", fmt.Errorf("create base directory under %s: %w", root, err)
	}
	resolved, err := rt.fs.Canonicalize(dir)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", dir, err)
	}
	if rt.cfg.ExitCleanup {
		rt.installExitHook()
	}
	rt.recordBase(resolved)
	return resolved, nil
}

// teardownBase removes the base directory from disk and resets the cell, so
// the next allocation anywhere in the process starts a fresh directory.
func (rt *Runtime) teardownBase() {
	rt.base.mu.Lock()
	path := rt.base.path
	rt.base.path = ""
	rt.base.mu.Unlock()
	if path == "" {
		return
	}
	rt.reportRemoveError(path, rt.fs.RemoveTree(path))
	rt.forgetBase(path)
}

func (rt *Runtime) recordBase(path string) {
	if rt.ledgerPath == "" {
		return
	}
	l, err := janitor.Open(rt.ledgerPath)
	if err != nil {
		rt.log.Debug("scratch: ledger unavailable", "error", err)
		return
	}
	defer l.Close()
	if err := l.Record(path); err != nil {
		rt.log.Debug("scratch: ledger record failed", "path", path, "error", err)
	}
}

func (rt *Runtime) forgetBase(path string) {
	if rt.ledgerPath == "" {
		return
	}
	l, err := janitor.Open(rt.ledgerPath)
	if err != nil {
		rt.log.Debug("scratch: ledger unavailable", "error", err)
		return
	}
	defer l.Close()
	if err := l.Forget(path); err != nil {
		rt.log.Debug("scratch: ledger forget failed", "path", path, "error", err)
	}
}
