package config

import (
	"path/filepath"
	"testing"
)

func TestGetHomeFromEnv(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)

	t.Setenv(envHome, "/opt/device-agent")

	if got := GetHome(); got != "/opt/device-agent" {
		t.Errorf("GetHome() = %q, want %q", got, "/opt/device-agent")
	}
}

func TestGetHomeCached(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)

	t.Setenv(envHome, "/first")
	first := GetHome()

	// Changing the env after the first resolution must not change the result.
	t.Setenv(envHome, "/second")
	if got := GetHome(); got != first {
		t.Errorf("GetHome() = %q, want cached %q", got, first)
	}
}

func TestDerivedDirs(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)

	t.Setenv(envHome, "/opt/device-agent")

	if got := GetLogDir(); got != filepath.Join("/opt/device-agent", "logs") {
		t.Errorf("GetLogDir() = %q", got)
	}
	if got := GetStateDir(); got != filepath.Join("/opt/device-agent", "state") {
		t.Errorf("GetStateDir() = %q", got)
	}
}
