package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "DEVICE_AGENT_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the device-agent home directory.
//
// Resolution order:
//  1. $DEVICE_AGENT_HOME environment variable
//  2. Parent of the binary's directory (if binary is in <home>/bin/)
//  3. Current working directory (development fallback)
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetLogDir returns <home>/logs.
func GetLogDir() string {
	return filepath.Join(GetHome(), "logs")
}

// GetStateDir returns <home>/state, where the persisted session descriptor
// lives.
func GetStateDir() string {
	return filepath.Join(GetHome(), "state")
}

func resolveHome() string {
	// 1. Environment variable
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	// 2. Binary-relative: if binary is at <home>/bin/device-agent, use <home>
	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		binDir := filepath.Dir(execPath)
		if filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}

	// 3. Current working directory
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}

	return "."
}

// SetHome pins the home directory explicitly, overriding resolution. Used by
// the --home flag.
func SetHome(dir string) {
	homeOnce.Do(func() {})
	homeDir = dir
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
