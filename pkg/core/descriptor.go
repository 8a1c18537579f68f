package core

import "time"

// Descriptor holds everything needed to (re)create a driver session without
// caller input. It is supplied once on the first connect, persisted on
// success, and reused verbatim on every reconnect. Treat it as immutable:
// the manager clones it on connect.
type Descriptor struct {
	// ServerURL is the automation server base URL, e.g. http://127.0.0.1:4723.
	ServerURL string `yaml:"serverUrl" json:"serverUrl"`

	// Platform is ios or android.
	Platform string `yaml:"platform,omitempty" json:"platform,omitempty"`

	// DeviceID is the device UDID / serial.
	DeviceID string `yaml:"deviceId,omitempty" json:"deviceId,omitempty"`

	// AppID is the bundle ID (iOS) or package name (Android) under test.
	AppID string `yaml:"appId,omitempty" json:"appId,omitempty"`

	// Capabilities are merged into the driver's alwaysMatch capabilities on
	// top of the fields above.
	Capabilities map[string]interface{} `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`

	// Transport tuning. Zero values mean driver defaults.
	RequestTimeout    time.Duration `yaml:"requestTimeout,omitempty" json:"requestTimeout,omitempty"`
	NewSessionTimeout time.Duration `yaml:"newSessionTimeout,omitempty" json:"newSessionTimeout,omitempty"`
	TransportRetries  int           `yaml:"transportRetries,omitempty" json:"transportRetries,omitempty"`
}

// Validate checks the fields required to create a session.
func (d *Descriptor) Validate() error {
	if d == nil {
		return ErrMissingRequired.WithMessage("connection descriptor is required")
	}
	if d.ServerURL == "" {
		return ErrMissingRequired.WithDetails(map[string]interface{}{"field": "serverUrl"})
	}
	return nil
}

// Clone returns a deep copy so the caller's descriptor and the persisted one
// cannot drift apart.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	out := *d
	if d.Capabilities != nil {
		out.Capabilities = make(map[string]interface{}, len(d.Capabilities))
		for k, v := range d.Capabilities {
			out.Capabilities[k] = v
		}
	}
	return &out
}
