// Package device exposes device operations on top of the managed session.
// Every call acquires a validated session first, so callers see at most one
// recovery attempt folded into the operation instead of a stale-session error.
package device

import (
	"context"

	"github.com/devicelab-dev/device-agent/pkg/core"
	"github.com/devicelab-dev/device-agent/pkg/session"
)

// Actions routes device commands through a session manager.
type Actions struct {
	manager *session.Manager
}

// NewActions creates an Actions facade over the given manager.
func NewActions(manager *session.Manager) *Actions {
	return &Actions{manager: manager}
}

// commander acquires a healthy session and asserts the command surface. A
// handle that cannot execute commands (health-check-only drivers) is reported
// as a configuration problem, not a session failure.
func (a *Actions) commander(ctx context.Context) (core.Commander, error) {
	handle, err := a.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	commander, ok := handle.(core.Commander)
	if !ok {
		return nil, core.ErrCommandsUnsupported
	}
	return commander, nil
}

// Tap taps the screen at coordinates.
func (a *Actions) Tap(ctx context.Context, x, y int) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.Tap(ctx, x, y)
}

// DoubleTap double-taps the screen at coordinates.
func (a *Actions) DoubleTap(ctx context.Context, x, y int) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.DoubleTap(ctx, x, y)
}

// LongPress presses and holds at coordinates.
func (a *Actions) LongPress(ctx context.Context, x, y, durationMs int) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.LongPress(ctx, x, y, durationMs)
}

// Swipe swipes between two points.
func (a *Actions) Swipe(ctx context.Context, startX, startY, endX, endY, durationMs int) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.Swipe(ctx, startX, startY, endX, endY, durationMs)
}

// InputText types text into the focused element.
func (a *Actions) InputText(ctx context.Context, text string) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.InputText(ctx, text)
}

// EraseText erases characters from the focused element.
func (a *Actions) EraseText(ctx context.Context, chars int) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.EraseText(ctx, chars)
}

// PressKey presses a key by keycode.
func (a *Actions) PressKey(ctx context.Context, keycode int) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.PressKey(ctx, keycode)
}

// HideKeyboard dismisses the on-screen keyboard.
func (a *Actions) HideKeyboard(ctx context.Context) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.HideKeyboard(ctx)
}

// LaunchApp activates an app by its identifier.
func (a *Actions) LaunchApp(ctx context.Context, appID string) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.LaunchApp(ctx, appID)
}

// TerminateApp terminates an app by its identifier.
func (a *Actions) TerminateApp(ctx context.Context, appID string) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.TerminateApp(ctx, appID)
}

// ClearAppData clears an app's data.
func (a *Actions) ClearAppData(ctx context.Context, appID string) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.ClearAppData(ctx, appID)
}

// OpenURL opens a URL or deep link on the device.
func (a *Actions) OpenURL(ctx context.Context, url string) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.OpenURL(ctx, url)
}

// GetClipboard returns the device clipboard text.
func (a *Actions) GetClipboard(ctx context.Context) (string, error) {
	c, err := a.commander(ctx)
	if err != nil {
		return "", err
	}
	return c.GetClipboard(ctx)
}

// SetClipboard sets the device clipboard text.
func (a *Actions) SetClipboard(ctx context.Context, text string) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.SetClipboard(ctx, text)
}

// GetOrientation returns the current screen orientation.
func (a *Actions) GetOrientation(ctx context.Context) (string, error) {
	c, err := a.commander(ctx)
	if err != nil {
		return "", err
	}
	return c.GetOrientation(ctx)
}

// SetOrientation rotates the screen.
func (a *Actions) SetOrientation(ctx context.Context, orientation string) error {
	c, err := a.commander(ctx)
	if err != nil {
		return err
	}
	return c.SetOrientation(ctx, orientation)
}

// Screenshot captures the screen as PNG bytes.
func (a *Actions) Screenshot(ctx context.Context) ([]byte, error) {
	c, err := a.commander(ctx)
	if err != nil {
		return nil, err
	}
	return c.Screenshot(ctx)
}

// Hierarchy returns the current view hierarchy as XML.
func (a *Actions) Hierarchy(ctx context.Context) (string, error) {
	c, err := a.commander(ctx)
	if err != nil {
		return "", err
	}
	return c.Source(ctx)
}
