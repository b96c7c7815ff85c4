//go:build !unix

package config

import "os"

func platformRoot() string {
	return os.TempDir()
}
