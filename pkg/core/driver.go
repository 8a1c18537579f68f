// Package core defines the contracts shared by the session manager, the
// automation drivers, and the delivery layer.
package core

import (
	"context"
	"time"
)

// Handle is one live session against the automation driver. It is opaque to
// the session manager: the manager only probes, destroys, and hands it out.
type Handle interface {
	// ID returns the driver-assigned session identifier.
	ID() string

	// Probe is a cheap, side-effect-free liveness check.
	Probe(ctx context.Context) error

	// Destroy tears the session down. Best-effort: it must be safe to call
	// on an already-dead session.
	Destroy(ctx context.Context) error
}

// Factory creates sessions. Implementations: Appium, mock.
type Factory interface {
	CreateSession(ctx context.Context, desc *Descriptor) (Handle, error)
}

// Commander is the device command surface a driver exposes on top of a
// Handle. Callers acquire a Handle from the session manager and use it as a
// Commander; the manager itself never issues commands.
type Commander interface {
	Handle

	// Gestures
	Tap(ctx context.Context, x, y int) error
	DoubleTap(ctx context.Context, x, y int) error
	LongPress(ctx context.Context, x, y, durationMs int) error
	Swipe(ctx context.Context, startX, startY, endX, endY, durationMs int) error

	// Text input
	InputText(ctx context.Context, text string) error
	EraseText(ctx context.Context, chars int) error
	PressKey(ctx context.Context, keycode int) error
	HideKeyboard(ctx context.Context) error

	// App lifecycle
	LaunchApp(ctx context.Context, appID string) error
	TerminateApp(ctx context.Context, appID string) error
	ClearAppData(ctx context.Context, appID string) error
	OpenURL(ctx context.Context, url string) error

	// Device state
	GetClipboard(ctx context.Context) (string, error)
	SetClipboard(ctx context.Context, text string) error
	GetOrientation(ctx context.Context) (string, error)
	SetOrientation(ctx context.Context, orientation string) error

	// Capture
	Screenshot(ctx context.Context) ([]byte, error)
	Source(ctx context.Context) (string, error)
}

// Status is the session manager's externally visible state. Pure read, safe
// to request from any state.
type Status struct {
	Connected    bool         `json:"connected"`
	State        SessionState `json:"state"`
	SessionID    string       `json:"sessionId,omitempty"`
	Descriptor   *Descriptor  `json:"descriptor,omitempty"`
	LastActivity time.Time    `json:"lastActivity,omitempty"`
	RetryCount   int          `json:"retryCount"`
}
