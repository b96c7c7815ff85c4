package scratch

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSync drains every live manager in sequence and removes the shared
// base directory. It is the last-chance path: nothing waits, nothing is
// returned, every failure is a contained diagnostic. Safe to call more than
// once.
func (rt *Runtime) ShutdownSync() {
	rt.shuttingDown.Store(true)
	defer rt.shuttingDown.Store(false)

	for _, m := range rt.snapshot() {
		m.CleanupSync()
	}
	rt.teardownBase()
}

// Shutdown drains every live manager and removes the shared base directory.
// Managers are drained strictly one at a time so a time-sensitive shutdown
// window never sees an unbounded burst of recursive deletes; within one
// manager, disposal uses the usual bounded fan-out. Shutdown always runs to
// completion: a cancelled context stops feeding new disposals but never
// leaves the exit sequence hanging.
func (rt *Runtime) Shutdown(ctx context.Context) {
	rt.shuttingDown.Store(true)
	defer rt.shuttingDown.Store(false)

	for _, m := range rt.snapshot() {
		m.Cleanup(ctx)
	}
	rt.teardownBase()
}

// ShutdownSync drains the default Runtime synchronously.
func ShutdownSync() { std.ShutdownSync() }

// Shutdown drains the default Runtime gracefully.
func Shutdown(ctx context.Context) { std.Shutdown(ctx) }

// exitSignals are the termination signals the hook intercepts.
var exitSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// installExitHook registers the termination-signal handler, at most once per
// Runtime. On a termination signal it runs the synchronous drain, then
// re-raises the signal with its default disposition so the host observes a
// normal signal death.
func (rt *Runtime) installExitHook() {
	rt.hookOnce.Do(func() {
		rt.hookInstalled.Store(true)
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, exitSignals...)
		go func() {
			sig := <-ch
			rt.ShutdownSync()
			signal.Stop(ch)
			if p, err := os.FindProcess(os.Getpid()); err == nil {
				_ = p.Signal(sig)
			}
		}()
	})
}
