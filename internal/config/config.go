// Package config resolves the scratch runtime's settings from the
// environment and an optional defaults file.
//
// The environment is authoritative for where temp entries live and whether
// exit-time cleanup runs; the defaults file only tunes ambient behavior
// (cleanup parallelism, base-directory prefix). The file is always optional.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Environment variables honored by the runtime.
const (
	// EnvTmpDir overrides the parent directory for the shared base
	// directory. Checked before EnvSystemTmpDir.
	EnvTmpDir = "SCRATCH_TMPDIR"

	// EnvSystemTmpDir is the conventional system override, honored when
	// EnvTmpDir is unset.
	EnvSystemTmpDir = "TMPDIR"

	// EnvCleanup disables exit-time cleanup when set to exactly "false".
	EnvCleanup = "SCRATCH_CLEANUP"
)

// DefaultCleanupWorkers bounds the per-manager disposal fan-out.
const DefaultCleanupWorkers = 8

// DefaultDirPrefix names the shared base directory under the scratch root.
const DefaultDirPrefix = "scratch"

// Settings holds the resolved runtime configuration.
type Settings struct {
	// RootOverrides are environment variable names consulted in order for
	// the scratch root. The first one set and non-empty wins.
	RootOverrides []string

	// Root, when non-empty, bypasses the environment entirely. Used by
	// tests and embedding hosts.
	Root string

	// ExitCleanup controls registration of the exit hook.
	ExitCleanup bool

	// CleanupWorkers caps concurrent disposals in an async cleanup.
	CleanupWorkers int

	// DirPrefix prefixes the shared base directory's name.
	DirPrefix string
}

// Defaults represents the optional defaults file
// ($XDG_CONFIG_HOME/scratch/config.toml).
type Defaults struct {
	CleanupWorkers *int    `toml:"cleanup_workers"`
	DirPrefix      *string `toml:"dir_prefix"`
}

// Path returns the resolved path to the defaults file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "scratch", "config.toml")
}

// LoadDefaults reads the defaults file. Returns a zero Defaults (no error)
// if the file does not exist.
func LoadDefaults() (Defaults, error) {
	path := Path()
	if path == "" {
		return Defaults{}, nil
	}

	var d Defaults
	_, err := toml.DecodeFile(path, &d)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults{}, nil
		}
		return Defaults{}, err
	}
	return d, nil
}

// Load builds Settings from the environment and the defaults file.
// A malformed defaults file is ignored; the environment always applies.
func Load() Settings {
	s := Settings{
		RootOverrides:  []string{EnvTmpDir, EnvSystemTmpDir},
		ExitCleanup:    os.Getenv(EnvCleanup) != "false",
		CleanupWorkers: DefaultCleanupWorkers,
		DirPrefix:      DefaultDirPrefix,
	}

	d, err := LoadDefaults()
	if err != nil {
		return s
	}
	if d.CleanupWorkers != nil && *d.CleanupWorkers > 0 {
		s.CleanupWorkers = *d.CleanupWorkers
	}
	if d.DirPrefix != nil && *d.DirPrefix != "" {
		s.DirPrefix = *d.DirPrefix
	}
	return s
}

// ResolveRoot returns the parent directory for the shared base directory:
// the explicit Root if set, else the first set override variable, else the
// platform default.
func (s Settings) ResolveRoot() string {
	if s.Root != "" {
		return s.Root
	}
	for _, name := range s.RootOverrides {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return platformRoot()
}
