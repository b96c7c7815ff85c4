// Package janitor tracks live scratch base directories in a small SQLite
// ledger so that directories orphaned by a crashed process can be reaped on a
// later run.
//
// The ledger is strictly best-effort: the runtime records creations and
// removals when it can, and ReapStale removes directories whose recording
// process is gone. A ledger failure never affects allocation or cleanup.
package janitor

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bamsammich/scratch/internal/fsops"
)

// Ledger records which process owns which base directory.
type Ledger struct {
	db *sql.DB

	// alive reports whether a pid refers to a running process.
	// Overridable in tests.
	alive func(pid int) bool
}

// DefaultPath returns the ledger location:
// $XDG_RUNTIME_DIR/scratch/ledger.db, else /tmp/scratch-<uid>.db.
func DefaultPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "scratch", "ledger.db")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("scratch-%d.db", os.Getuid()))
}

// Open opens (or creates) the ledger at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	l := &Ledger{db: db, alive: pidAlive}
	if err := l.init(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) init() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS basedirs (
			path       TEXT PRIMARY KEY,
			pid        INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Record notes that this process created the given base directory.
func (l *Ledger) Record(path string) error {
	_, err := l.db.Exec(
		"INSERT OR REPLACE INTO basedirs (path, pid, created_at) VALUES (?, ?, ?)",
		path, os.Getpid(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record base dir: %w", err)
	}
	return nil
}

// Forget drops the ledger row for the given base directory.
func (l *Ledger) Forget(path string) error {
	_, err := l.db.Exec("DELETE FROM basedirs WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("forget base dir: %w", err)
	}
	return nil
}

// ReapStale removes every recorded base directory whose owning process is no
// longer running, and drops its row. Returns the number of directories
// removed. Rows belonging to live processes are left alone.
func (l *Ledger) ReapStale(ctx context.Context, fs fsops.FS) (int, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT path, pid FROM basedirs")
	if err != nil {
		return 0, fmt.Errorf("query base dirs: %w", err)
	}

	type rec struct {
		path string
		pid  int
	}
	var stale []rec
	for rows.Next() {
		var r rec
		if err := rows.Scan(&r.path, &r.pid); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan row: %w", err)
		}
		if !l.alive(r.pid) {
			stale = append(stale, r)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate rows: %w", err)
	}
	rows.Close()

	reaped := 0
	for _, r := range stale {
		if err := ctx.Err(); err != nil {
			return reaped, err
		}
		if err := fs.RemoveTree(r.path); err != nil {
			// Leave the row so a later reap can retry.
			continue
		}
		if _, err := l.db.ExecContext(ctx, "DELETE FROM basedirs WHERE path = ?", r.path); err != nil {
			return reaped, fmt.Errorf("drop row: %w", err)
		}
		reaped++
	}
	return reaped, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
