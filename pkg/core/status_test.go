package core

import "testing"

func TestSessionState_String(t *testing.T) {
	tests := []struct {
		state SessionState
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateRecovering, "recovering"},
		{StateFailed, "failed"},
		{SessionState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestSessionState_HasHandle(t *testing.T) {
	// A handle exists iff connected or recovering; Failed always has none.
	withHandle := []SessionState{StateConnected, StateRecovering}
	for _, s := range withHandle {
		if !s.HasHandle() {
			t.Errorf("%s.HasHandle() = false, want true", s)
		}
	}
	withoutHandle := []SessionState{StateDisconnected, StateConnecting, StateFailed}
	for _, s := range withoutHandle {
		if s.HasHandle() {
			t.Errorf("%s.HasHandle() = true, want false", s)
		}
	}
}

func TestSessionState_IsTerminal(t *testing.T) {
	if !StateFailed.IsTerminal() {
		t.Error("failed should be terminal until an explicit connect")
	}
	if StateDisconnected.IsTerminal() || StateConnected.IsTerminal() {
		t.Error("only failed is terminal")
	}
}

func TestSessionState_MarshalJSON(t *testing.T) {
	data, err := StateRecovering.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(data) != `"recovering"` {
		t.Errorf("MarshalJSON = %s, want %q", data, `"recovering"`)
	}
}

func TestDescriptor_Validate(t *testing.T) {
	var nilDesc *Descriptor
	if err := nilDesc.Validate(); err == nil {
		t.Error("nil descriptor should not validate")
	}

	if err := (&Descriptor{}).Validate(); err == nil {
		t.Error("descriptor without serverUrl should not validate")
	}

	if err := (&Descriptor{ServerURL: "http://127.0.0.1:4723"}).Validate(); err != nil {
		t.Errorf("valid descriptor rejected: %v", err)
	}
}

func TestDescriptor_Clone(t *testing.T) {
	d := &Descriptor{
		ServerURL:    "http://127.0.0.1:4723",
		Platform:     "android",
		Capabilities: map[string]interface{}{"appium:noReset": true},
	}

	c := d.Clone()
	c.Capabilities["appium:noReset"] = false

	if d.Capabilities["appium:noReset"] != true {
		t.Error("Clone() shares the capabilities map with the original")
	}
}
