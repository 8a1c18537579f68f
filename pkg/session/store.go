package session

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/device-agent/pkg/config"
	"github.com/devicelab-dev/device-agent/pkg/core"
)

// Store persists the connection descriptor across process restarts so the
// manager can resume a session without caller input.
//
// Save and Clear are best-effort from the manager's point of view: failures
// are logged, never surfaced to the connecting caller. Load returns
// (nil, nil) when no descriptor is stored.
type Store interface {
	Save(desc *core.Descriptor) error
	Load() (*core.Descriptor, error)
	Clear() error
}

// FileStore keeps the descriptor as a yaml file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultStorePath returns <home>/state/session.yaml.
func DefaultStorePath() string {
	return filepath.Join(config.GetStateDir(), "session.yaml")
}

// Save writes the descriptor, creating parent directories as needed.
func (s *FileStore) Save(desc *core.Descriptor) error {
	data, err := yaml.Marshal(desc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Load reads the descriptor. A missing file is not an error.
func (s *FileStore) Load() (*core.Descriptor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var desc core.Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// Clear removes the stored descriptor. Idempotent.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
