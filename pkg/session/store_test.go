package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/device-agent/pkg/core"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state", "session.yaml"))

	desc := &core.Descriptor{
		ServerURL:        "http://127.0.0.1:4723",
		Platform:         "ios",
		DeviceID:         "00008030-001E2D1A0C38802E",
		AppID:            "com.example.app",
		Capabilities:     map[string]interface{}{"appium:noReset": true},
		RequestTimeout:   30 * time.Second,
		TransportRetries: 2,
	}
	require.NoError(t, store.Save(desc))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, desc.ServerURL, loaded.ServerURL)
	assert.Equal(t, desc.Platform, loaded.Platform)
	assert.Equal(t, desc.DeviceID, loaded.DeviceID)
	assert.Equal(t, desc.AppID, loaded.AppID)
	assert.Equal(t, desc.RequestTimeout, loaded.RequestTimeout)
	assert.Equal(t, desc.TransportRetries, loaded.TransportRetries)
	assert.Equal(t, true, loaded.Capabilities["appium:noReset"])
}

func TestFileStoreLoadAbsent(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))

	desc, err := store.Load()
	require.NoError(t, err, "a missing file is not an error")
	assert.Nil(t, desc)
}

func TestFileStoreClear(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))
	require.NoError(t, store.Save(&core.Descriptor{ServerURL: "http://127.0.0.1:4723"}))

	require.NoError(t, store.Clear())

	desc, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, desc)

	// Clearing again is a no-op, not an error.
	assert.NoError(t, store.Clear())
}

func TestFileStoreOverwrite(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))
	require.NoError(t, store.Save(&core.Descriptor{ServerURL: "http://first:4723"}))
	require.NoError(t, store.Save(&core.Descriptor{ServerURL: "http://second:4723"}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://second:4723", loaded.ServerURL)
}
