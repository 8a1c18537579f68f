package appium

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// backspace is the WebDriver key code for erasing a character.
const backspace = "\u0008"

// Session is one live Appium session. It implements core.Commander; the
// session manager treats it as an opaque core.Handle.
type Session struct {
	client   *Client
	id       string
	platform string // ios, android
}

// ID implements core.Handle.
func (s *Session) ID() string {
	return s.id
}

// Probe implements core.Handle: a cheap liveness check against both the
// server and this specific session.
func (s *Session) Probe(ctx context.Context) error {
	resp, err := s.client.get(ctx, "/status")
	if err != nil {
		return err
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		if ready, ok := value["ready"].(bool); ok && !ready {
			return fmt.Errorf("automation server not ready")
		}
	}

	// The server being up does not mean this session survived it.
	if _, err := s.client.get(ctx, s.path("")); err != nil {
		return err
	}
	return nil
}

// Destroy implements core.Handle. Idempotent: destroying an already-dead
// session is not an error.
func (s *Session) Destroy(ctx context.Context) error {
	_, err := s.client.delete(ctx, s.path(""))
	if err != nil && !isSessionGone(err) {
		return err
	}
	return nil
}

func isSessionGone(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid session id") ||
		strings.Contains(msg, "session is either terminated or not started")
}

// Gestures (W3C pointer actions)

func (s *Session) performTouchAction(ctx context.Context, actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := s.client.post(ctx, s.path("/actions"), map[string]interface{}{"actions": payload})
	return err
}

// Tap performs a tap at coordinates.
func (s *Session) Tap(ctx context.Context, x, y int) error {
	return s.performTouchAction(ctx, []map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// DoubleTap performs a double tap at coordinates.
func (s *Session) DoubleTap(ctx context.Context, x, y int) error {
	return s.performTouchAction(ctx, []map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y},
		{"type": "pointerDown", "button": 0},
		{"type": "pointerUp", "button": 0},
		{"type": "pause", "duration": 100},
		{"type": "pointerDown", "button": 0},
		{"type": "pointerUp", "button": 0},
	})
}

// LongPress performs a long press at coordinates.
func (s *Session) LongPress(ctx context.Context, x, y, durationMs int) error {
	return s.performTouchAction(ctx, []map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": durationMs},
		{"type": "pointerUp", "button": 0},
	})
}

// Swipe performs a swipe gesture.
func (s *Session) Swipe(ctx context.Context, startX, startY, endX, endY, durationMs int) error {
	return s.performTouchAction(ctx, []map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": startX, "y": startY},
		{"type": "pointerDown", "button": 0},
		{"type": "pointerMove", "duration": durationMs, "x": endX, "y": endY},
		{"type": "pointerUp", "button": 0},
	})
}

// Text input

// InputText sends text to the active element.
func (s *Session) InputText(ctx context.Context, text string) error {
	return s.sendKeys(ctx, keyActionsFor(text))
}

// EraseText sends the given number of backspaces to the active element.
func (s *Session) EraseText(ctx context.Context, chars int) error {
	if chars <= 0 {
		return nil
	}
	return s.sendKeys(ctx, keyActionsFor(strings.Repeat(backspace, chars)))
}

func keyActionsFor(text string) []map[string]interface{} {
	var keyActions []map[string]interface{}
	for _, ch := range text {
		keyActions = append(keyActions,
			map[string]interface{}{"type": "keyDown", "value": string(ch)},
			map[string]interface{}{"type": "keyUp", "value": string(ch)},
		)
	}
	return keyActions
}

func (s *Session) sendKeys(ctx context.Context, keyActions []map[string]interface{}) error {
	_, err := s.client.post(ctx, s.path("/actions"), map[string]interface{}{
		"actions": []map[string]interface{}{
			{
				"type":    "key",
				"id":      "keyboard",
				"actions": keyActions,
			},
		},
	})
	return err
}

// PressKey presses a key by keycode (Android).
func (s *Session) PressKey(ctx context.Context, keycode int) error {
	_, err := s.client.post(ctx, s.path("/appium/device/press_keycode"), map[string]interface{}{
		"keycode": keycode,
	})
	return err
}

// HideKeyboard hides the on-screen keyboard.
func (s *Session) HideKeyboard(ctx context.Context) error {
	_, err := s.client.post(ctx, s.path("/appium/device/hide_keyboard"), nil)
	return err
}

// App lifecycle

// LaunchApp activates an app.
func (s *Session) LaunchApp(ctx context.Context, appID string) error {
	_, err := s.client.post(ctx, s.path("/appium/device/activate_app"), s.appBody(appID))
	return err
}

// TerminateApp terminates an app.
func (s *Session) TerminateApp(ctx context.Context, appID string) error {
	_, err := s.client.post(ctx, s.path("/appium/device/terminate_app"), s.appBody(appID))
	return err
}

func (s *Session) appBody(appID string) map[string]interface{} {
	if s.platform == "ios" {
		return map[string]interface{}{"bundleId": appID}
	}
	return map[string]interface{}{"appId": appID}
}

// ClearAppData clears app data. The app is terminated first, best-effort:
// clearing proceeds even when the app was not running.
func (s *Session) ClearAppData(ctx context.Context, appID string) error {
	_ = s.TerminateApp(ctx, appID)

	if s.platform == "ios" {
		// iOS: mobile: clearApp only works on simulators.
		_, err := s.client.post(ctx, s.path("/execute/sync"), map[string]interface{}{
			"script": "mobile: clearApp",
			"args":   []interface{}{map[string]interface{}{"bundleId": appID}},
		})
		return err
	}

	// Android: pm clear via mobile: shell.
	_, err := s.client.post(ctx, s.path("/execute/sync"), map[string]interface{}{
		"script": "mobile: shell",
		"args": []interface{}{map[string]interface{}{
			"command": "pm",
			"args":    []string{"clear", appID},
		}},
	})
	return err
}

// OpenURL opens a URL / deep link.
func (s *Session) OpenURL(ctx context.Context, url string) error {
	_, err := s.client.post(ctx, s.path("/url"), map[string]interface{}{
		"url": url,
	})
	return err
}

// Device state

// GetClipboard returns clipboard text.
func (s *Session) GetClipboard(ctx context.Context) (string, error) {
	resp, err := s.client.post(ctx, s.path("/appium/device/get_clipboard"), map[string]interface{}{
		"contentType": "plaintext",
	})
	if err != nil {
		return "", err
	}
	encoded, _ := resp["value"].(string)
	decoded, _ := base64.StdEncoding.DecodeString(encoded)
	return string(decoded), nil
}

// SetClipboard sets clipboard text.
func (s *Session) SetClipboard(ctx context.Context, text string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	_, err := s.client.post(ctx, s.path("/appium/device/set_clipboard"), map[string]interface{}{
		"content":     encoded,
		"contentType": "plaintext",
	})
	return err
}

// GetOrientation returns the current orientation.
func (s *Session) GetOrientation(ctx context.Context) (string, error) {
	resp, err := s.client.get(ctx, s.path("/orientation"))
	if err != nil {
		return "", err
	}
	orientation, _ := resp["value"].(string)
	return strings.ToLower(orientation), nil
}

// SetOrientation sets the orientation.
func (s *Session) SetOrientation(ctx context.Context, orientation string) error {
	_, err := s.client.post(ctx, s.path("/orientation"), map[string]interface{}{
		"orientation": strings.ToUpper(orientation),
	})
	return err
}

// Capture

// Screenshot returns a screenshot as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	resp, err := s.client.get(ctx, s.path("/screenshot"))
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the page source XML.
func (s *Session) Source(ctx context.Context) (string, error) {
	resp, err := s.client.get(ctx, s.path("/source"))
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

func (s *Session) path(suffix string) string {
	return "/session/" + s.id + suffix
}
