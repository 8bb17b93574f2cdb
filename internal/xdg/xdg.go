// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

// Package xdg provides XDG Base Directory paths for latchkey.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "latchkey"

// ConfigFileName is the file looked up in ConfigDir when no --config is given.
const ConfigFileName = "config.yaml"

// Getenv looks up an environment variable; os.Getenv satisfies it.
type Getenv func(key string) string

// ConfigDir returns the XDG config directory for latchkey.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir(getenv Getenv) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns the path of the default config file if it
// exists as a regular file, or "".
func DefaultConfigFile(getenv Getenv) string {
	path := filepath.Join(ConfigDir(getenv), ConfigFileName)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return path
}
