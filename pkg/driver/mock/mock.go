// Package mock provides a mock driver factory for testing without a real
// device or automation server.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/devicelab-dev/device-agent/pkg/core"
)

// Factory is a mock implementation of core.Factory.
type Factory struct {
	mu sync.Mutex

	// CreateErr, when set, makes CreateSession fail.
	CreateErr error
	// ProbeErr, when set, is returned by every probe on handles created
	// afterwards.
	ProbeErr error

	created int
}

// New creates a new mock factory.
func New() *Factory {
	return &Factory{}
}

// CreateSession implements core.Factory.
func (f *Factory) CreateSession(ctx context.Context, desc *core.Descriptor) (core.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	f.created++
	return &Session{
		id:       fmt.Sprintf("mock-session-%d", f.created),
		probeErr: f.ProbeErr,
	}, nil
}

// Created returns how many sessions the factory has produced.
func (f *Factory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

// SetCreateErr changes the create failure for subsequent calls.
func (f *Factory) SetCreateErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateErr = err
}

// Session is a mock core.Commander that records every command issued.
type Session struct {
	mu        sync.Mutex
	id        string
	probeErr  error
	destroyed bool

	// Calls records command names in order.
	Calls []string

	// Clipboard and Orientation back the corresponding get/set commands.
	Clipboard   string
	Orientation string
}

// ID implements core.Handle.
func (s *Session) ID() string { return s.id }

// Probe implements core.Handle.
func (s *Session) Probe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("session %s is destroyed", s.id)
	}
	return s.probeErr
}

// Destroy implements core.Handle. Idempotent.
func (s *Session) Destroy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	return nil
}

// SetProbeErr makes subsequent probes fail (or succeed again with nil).
func (s *Session) SetProbeErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeErr = err
}

// Destroyed reports whether Destroy has been called.
func (s *Session) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

func (s *Session) record(call string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("session %s is destroyed", s.id)
	}
	s.Calls = append(s.Calls, call)
	return nil
}

// CallNames returns a copy of the recorded command names.
func (s *Session) CallNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Calls))
	copy(out, s.Calls)
	return out
}

// Gestures

func (s *Session) Tap(ctx context.Context, x, y int) error {
	return s.record(fmt.Sprintf("tap(%d,%d)", x, y))
}

func (s *Session) DoubleTap(ctx context.Context, x, y int) error {
	return s.record(fmt.Sprintf("doubleTap(%d,%d)", x, y))
}

func (s *Session) LongPress(ctx context.Context, x, y, durationMs int) error {
	return s.record(fmt.Sprintf("longPress(%d,%d,%d)", x, y, durationMs))
}

func (s *Session) Swipe(ctx context.Context, startX, startY, endX, endY, durationMs int) error {
	return s.record(fmt.Sprintf("swipe(%d,%d,%d,%d)", startX, startY, endX, endY))
}

// Text input

func (s *Session) InputText(ctx context.Context, text string) error {
	return s.record("inputText(" + text + ")")
}

func (s *Session) EraseText(ctx context.Context, chars int) error {
	return s.record(fmt.Sprintf("eraseText(%d)", chars))
}

func (s *Session) PressKey(ctx context.Context, keycode int) error {
	return s.record(fmt.Sprintf("pressKey(%d)", keycode))
}

func (s *Session) HideKeyboard(ctx context.Context) error {
	return s.record("hideKeyboard")
}

// App lifecycle

func (s *Session) LaunchApp(ctx context.Context, appID string) error {
	return s.record("launchApp(" + appID + ")")
}

func (s *Session) TerminateApp(ctx context.Context, appID string) error {
	return s.record("terminateApp(" + appID + ")")
}

func (s *Session) ClearAppData(ctx context.Context, appID string) error {
	return s.record("clearAppData(" + appID + ")")
}

func (s *Session) OpenURL(ctx context.Context, url string) error {
	return s.record("openURL(" + url + ")")
}

// Device state

func (s *Session) GetClipboard(ctx context.Context) (string, error) {
	if err := s.record("getClipboard"); err != nil {
		return "", err
	}
	return s.Clipboard, nil
}

func (s *Session) SetClipboard(ctx context.Context, text string) error {
	if err := s.record("setClipboard"); err != nil {
		return err
	}
	s.mu.Lock()
	s.Clipboard = text
	s.mu.Unlock()
	return nil
}

func (s *Session) GetOrientation(ctx context.Context) (string, error) {
	if err := s.record("getOrientation"); err != nil {
		return "", err
	}
	if s.Orientation == "" {
		return "portrait", nil
	}
	return s.Orientation, nil
}

func (s *Session) SetOrientation(ctx context.Context, orientation string) error {
	if err := s.record("setOrientation"); err != nil {
		return err
	}
	s.mu.Lock()
	s.Orientation = orientation
	s.mu.Unlock()
	return nil
}

// Capture

// Screenshot returns a minimal valid PNG (1x1 transparent pixel).
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := s.record("screenshot"); err != nil {
		return nil, err
	}
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

func (s *Session) Source(ctx context.Context) (string, error) {
	if err := s.record("source"); err != nil {
		return "", err
	}
	return "<hierarchy><node class='android.widget.Button' text='Mock Element'/></hierarchy>", nil
}
