// Package scratch manages the lifecycle of ephemeral files and directories.
//
// All temp entries live under one lazily-created base directory shared by the
// whole process. Owners allocate paths through a [Manager], which tracks every
// entry it hands out and disposes of them on cleanup. A process-wide registry
// of live managers lets the exit coordinator drain everything and remove the
// base directory when the process shuts down.
//
// # Basic Usage
//
//	m := scratch.New(scratch.WithLabel("extract"))
//
//	// Reserve a path (nothing is created on disk).
//	path, err := m.FilePath(ctx, scratch.WithSuffix(".log"))
//
//	// Reserve and create a directory.
//	dir, err := m.MkDir(ctx)
//
//	// Remove everything this manager allocated.
//	m.Cleanup(ctx)
//
// Cleanup is always best effort: individual removal failures are logged, never
// returned, and never stop the remaining entries from being disposed.
//
// # Process exit
//
// Unless SCRATCH_CLEANUP=false, the first base-directory creation installs a
// signal hook that drains all live managers and removes the base directory
// before the process dies. Hosts that manage their own shutdown can call
// [Shutdown] (graceful, bounded-concurrency) or [ShutdownSync] (last chance)
// instead.
package scratch
