package appium

import (
	"context"
	"fmt"
	"strings"

	"github.com/devicelab-dev/device-agent/pkg/core"
)

// Factory implements core.Factory against an Appium server. It is stateless:
// everything needed to create a session comes from the descriptor.
type Factory struct{}

// NewFactory creates a new Appium factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateSession implements core.Factory.
func (f *Factory) CreateSession(ctx context.Context, desc *core.Descriptor) (core.Handle, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	if desc.NewSessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, desc.NewSessionTimeout)
		defer cancel()
	}

	client := NewClient(desc)
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": buildCapabilities(desc),
		},
	}

	resp, err := client.post(ctx, "/session", body)
	if err != nil {
		return nil, err
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid session response")
	}

	sessionID, _ := value["sessionId"].(string)
	if sessionID == "" {
		// Older servers put the session ID at the top level.
		sessionID, _ = resp["sessionId"].(string)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("no session ID in response")
	}

	platform := strings.ToLower(desc.Platform)
	if caps, ok := value["capabilities"].(map[string]interface{}); ok {
		if p, ok := caps["platformName"].(string); ok && p != "" {
			platform = strings.ToLower(p)
		}
	}

	return &Session{client: client, id: sessionID, platform: platform}, nil
}

// buildCapabilities maps the descriptor onto W3C alwaysMatch capabilities.
// Extra capabilities from the descriptor win over the derived ones.
func buildCapabilities(desc *core.Descriptor) map[string]interface{} {
	caps := make(map[string]interface{})
	if desc.Platform != "" {
		caps["platformName"] = desc.Platform
	}
	if desc.DeviceID != "" {
		caps["appium:udid"] = desc.DeviceID
	}
	if desc.AppID != "" {
		if strings.EqualFold(desc.Platform, "ios") {
			caps["appium:bundleId"] = desc.AppID
		} else {
			caps["appium:appPackage"] = desc.AppID
		}
	}
	for k, v := range desc.Capabilities {
		caps[k] = v
	}
	return caps
}
