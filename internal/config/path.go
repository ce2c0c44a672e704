// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DataPath returns the expanded location of a file under the application's
// data directory unless an explicit path is configured.
func DataPath(configured, name string) string {
	if configured != "" {
		return ExpandPath(configured)
	}
	return ExpandPath(filepath.Join("$HOME/.local/share/paper", name))
}
