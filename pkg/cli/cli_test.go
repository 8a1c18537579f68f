package cli

import (
	"flag"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-agent/pkg/config"
)

func testContext(t *testing.T, args map[string]string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for name, value := range args {
		set.String(name, value, "")
	}
	return cli.NewContext(nil, set, nil)
}

func TestDescriptorFromFlags_NothingGiven(t *testing.T) {
	c := testContext(t, map[string]string{"device": "", "platform": ""})

	if desc := descriptorFromFlags(c, &config.Config{}); desc != nil {
		t.Errorf("expected nil descriptor, got %+v", desc)
	}
}

func TestDescriptorFromFlags_DeviceGiven(t *testing.T) {
	c := testContext(t, map[string]string{
		"device":     "emulator-5554",
		"platform":   "android",
		"app-id":     "com.example.app",
		"appium-url": "",
	})

	desc := descriptorFromFlags(c, &config.Config{})
	if desc == nil {
		t.Fatal("expected a descriptor")
	}
	if desc.DeviceID != "emulator-5554" {
		t.Errorf("DeviceID = %q", desc.DeviceID)
	}
	if desc.Platform != "android" {
		t.Errorf("Platform = %q", desc.Platform)
	}
	if desc.AppID != "com.example.app" {
		t.Errorf("AppID = %q", desc.AppID)
	}
	if desc.ServerURL != config.DefaultServerURL {
		t.Errorf("ServerURL = %q, want config default", desc.ServerURL)
	}
}

func TestDescriptorFromFlags_ExplicitServerURL(t *testing.T) {
	c := testContext(t, map[string]string{
		"device":     "emulator-5554",
		"platform":   "",
		"app-id":     "",
		"appium-url": "http://10.0.0.5:4723",
	})

	desc := descriptorFromFlags(c, &config.Config{ServerURL: "http://ignored:4723"})
	if desc == nil {
		t.Fatal("expected a descriptor")
	}
	if desc.ServerURL != "http://10.0.0.5:4723" {
		t.Errorf("ServerURL = %q, want the flag value", desc.ServerURL)
	}
}
