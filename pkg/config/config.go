// Package config handles configuration for device-agent.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/device-agent/pkg/core"
)

// Defaults applied where agent.yaml is silent.
const (
	DefaultListen      = ":7100"
	DefaultServerURL   = "http://127.0.0.1:4723"
	DefaultKeepAlive   = 5 * time.Minute
	DefaultMaxAttempts = 3
	DefaultSettleDelay = 2 * time.Second
)

// Config represents the agent configuration (agent.yaml).
type Config struct {
	// Delivery
	Listen string `yaml:"listen"` // HTTP listen address

	// Automation server
	ServerURL string `yaml:"serverUrl"` // Appium server URL

	// Session lifecycle
	KeepAlive   string `yaml:"keepAlive"`   // Probe period while connected, e.g. "5m"
	MaxAttempts int    `yaml:"maxAttempts"` // Recovery attempts before giving up
	SettleDelay string `yaml:"settleDelay"` // Wait between destroy and reconnect, e.g. "2s"

	// Logging
	LogPath string `yaml:"logPath"`
	Verbose bool   `yaml:"verbose"`
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, core.ErrInvalidConfig.WithCause(err)
	}

	return &cfg, nil
}

// LoadFromDir looks for agent.yaml or agent.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try agent.yaml first
	configPath := filepath.Join(dir, "agent.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try agent.yml
	configPath = filepath.Join(dir, "agent.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// ListenAddr returns the listen address with the default applied.
func (c *Config) ListenAddr() string {
	if c.Listen == "" {
		return DefaultListen
	}
	return c.Listen
}

// AutomationServerURL returns the server URL with the default applied.
func (c *Config) AutomationServerURL() string {
	if c.ServerURL == "" {
		return DefaultServerURL
	}
	return c.ServerURL
}

// KeepAliveInterval parses the keep-alive period.
func (c *Config) KeepAliveInterval() (time.Duration, error) {
	return c.duration("keepAlive", c.KeepAlive, DefaultKeepAlive)
}

// SettleDelayDuration parses the settle delay.
func (c *Config) SettleDelayDuration() (time.Duration, error) {
	return c.duration("settleDelay", c.SettleDelay, DefaultSettleDelay)
}

// RecoveryAttempts returns the attempt limit with the default applied.
func (c *Config) RecoveryAttempts() int {
	if c.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return c.MaxAttempts
}

// LogFile returns the log path, defaulting to <home>/logs/agent.log.
func (c *Config) LogFile() string {
	if c.LogPath != "" {
		return c.LogPath
	}
	return filepath.Join(GetLogDir(), "agent.log")
}

func (c *Config) duration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, core.ErrInvalidConfig.WithCause(err).WithDetails(map[string]interface{}{"field": field})
	}
	if d <= 0 {
		return 0, core.ErrInvalidConfig.WithDetails(map[string]interface{}{"field": field, "value": value})
	}
	return d, nil
}
