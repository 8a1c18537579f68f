package appium

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devicelab-dev/device-agent/pkg/core"
)

func TestFactory_CreateSession(t *testing.T) {
	var gotCaps map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session" && r.Method == "POST" {
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				if caps, ok := body["capabilities"].(map[string]interface{}); ok {
					gotCaps, _ = caps["alwaysMatch"].(map[string]interface{})
				}
			}
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{
					"sessionId": "test-session-123",
					"capabilities": map[string]interface{}{
						"platformName": "Android",
					},
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	factory := NewFactory()
	handle, err := factory.CreateSession(context.Background(), &core.Descriptor{
		ServerURL: server.URL,
		Platform:  "android",
		DeviceID:  "emulator-5554",
		AppID:     "com.example.app",
		Capabilities: map[string]interface{}{
			"appium:noReset": true,
		},
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if handle.ID() != "test-session-123" {
		t.Errorf("ID() = %q, want %q", handle.ID(), "test-session-123")
	}

	session, ok := handle.(*Session)
	if !ok {
		t.Fatalf("handle is %T, want *Session", handle)
	}
	if session.platform != "android" {
		t.Errorf("platform = %q, want %q", session.platform, "android")
	}

	if gotCaps["platformName"] != "android" {
		t.Errorf("platformName capability = %v", gotCaps["platformName"])
	}
	if gotCaps["appium:udid"] != "emulator-5554" {
		t.Errorf("appium:udid capability = %v", gotCaps["appium:udid"])
	}
	if gotCaps["appium:appPackage"] != "com.example.app" {
		t.Errorf("appium:appPackage capability = %v", gotCaps["appium:appPackage"])
	}
	if gotCaps["appium:noReset"] != true {
		t.Errorf("appium:noReset capability = %v", gotCaps["appium:noReset"])
	}
}

func TestFactory_CreateSessionTopLevelID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"sessionId": "legacy-session",
			"value":     map[string]interface{}{},
		})
	}))
	defer server.Close()

	handle, err := NewFactory().CreateSession(context.Background(), &core.Descriptor{ServerURL: server.URL})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if handle.ID() != "legacy-session" {
		t.Errorf("ID() = %q, want %q", handle.ID(), "legacy-session")
	}
}

func TestFactory_CreateSessionNoID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{},
		})
	}))
	defer server.Close()

	_, err := NewFactory().CreateSession(context.Background(), &core.Descriptor{ServerURL: server.URL})
	if err == nil {
		t.Fatal("expected an error when no session ID is returned")
	}
}

func TestFactory_CreateSessionRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "session not created",
				"message": "no device connected",
			},
		})
	}))
	defer server.Close()

	_, err := NewFactory().CreateSession(context.Background(), &core.Descriptor{ServerURL: server.URL})
	if err == nil {
		t.Fatal("expected session creation to fail")
	}
}

func TestFactory_CreateSessionInvalidDescriptor(t *testing.T) {
	_, err := NewFactory().CreateSession(context.Background(), &core.Descriptor{})
	if err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestBuildCapabilities_iOSBundleID(t *testing.T) {
	caps := buildCapabilities(&core.Descriptor{
		ServerURL: "http://127.0.0.1:4723",
		Platform:  "iOS",
		AppID:     "com.example.app",
	})

	if caps["appium:bundleId"] != "com.example.app" {
		t.Errorf("appium:bundleId = %v", caps["appium:bundleId"])
	}
	if _, ok := caps["appium:appPackage"]; ok {
		t.Error("iOS descriptors must not set appium:appPackage")
	}
}
