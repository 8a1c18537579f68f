package core

// SessionState is the session manager's internal state
type SessionState int

const (
	StateDisconnected SessionState = iota // No session, no pending descriptor work
	StateConnecting                       // Driver session being created
	StateConnected                        // Live handle, keep-alive running
	StateRecovering                       // Stale handle being replaced
	StateFailed                           // Retry budget exhausted; explicit connect required
)

// String returns the string representation of SessionState
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRecovering:
		return "recovering"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state as its string form in status payloads.
func (s SessionState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// HasHandle returns true for states in which a session handle exists.
// The handle may be stale while recovering, pending replacement.
func (s SessionState) HasHandle() bool {
	return s == StateConnected || s == StateRecovering
}

// IsTerminal returns true if the state requires an explicit connect to leave
func (s SessionState) IsTerminal() bool {
	return s == StateFailed
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone    ErrorCategory = iota // No error
	ErrCategorySession                      // Session lifecycle: not connected, unrecoverable
	ErrCategoryDriver                       // Automation driver: create failed, unreachable, teardown
	ErrCategoryTimeout                      // Operation timed out
	ErrCategoryConfig                       // Invalid configuration, missing required field
	ErrCategoryAction                       // Device command rejected by the driver
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategorySession:
		return "session"
	case ErrCategoryDriver:
		return "driver"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryAction:
		return "action"
	default:
		return "unknown"
	}
}
