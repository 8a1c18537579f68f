package core

import (
	"fmt"
)

// AgentError represents a structured error with category and details
type AgentError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: not_connected, session_unrecoverable, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AgentError) Unwrap() error {
	return e.Cause
}

// Is matches against the predefined error values by code, so a wrapped copy
// produced by WithCause/WithDetails still satisfies errors.Is.
func (e *AgentError) Is(target error) bool {
	t, ok := target.(*AgentError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *AgentError) WithCause(cause error) *AgentError {
	return &AgentError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *AgentError) WithMessage(msg string) *AgentError {
	return &AgentError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *AgentError) WithDetails(details map[string]interface{}) *AgentError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AgentError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Session lifecycle errors
	ErrNotConnected = &AgentError{
		Category: ErrCategorySession,
		Code:     "not_connected",
		Message:  "no active session; connect first",
	}
	ErrSessionUnrecoverable = &AgentError{
		Category: ErrCategorySession,
		Code:     "session_unrecoverable",
		Message:  "session could not be recovered; reconnect required",
	}
	ErrRecoveryInterrupted = &AgentError{
		Category: ErrCategorySession,
		Code:     "recovery_interrupted",
		Message:  "session recovery superseded by disconnect or reconnect",
	}

	// Driver errors
	ErrDriverCreateFailed = &AgentError{
		Category: ErrCategoryDriver,
		Code:     "driver_create_failed",
		Message:  "automation driver refused to create a session",
	}
	ErrTeardownFailed = &AgentError{
		Category: ErrCategoryDriver,
		Code:     "teardown_failed",
		Message:  "session teardown failed",
	}
	ErrServerUnreachable = &AgentError{
		Category: ErrCategoryDriver,
		Code:     "server_unreachable",
		Message:  "could not reach automation server",
	}
	ErrCommandsUnsupported = &AgentError{
		Category: ErrCategoryDriver,
		Code:     "commands_unsupported",
		Message:  "driver handle does not expose device commands",
	}

	// Config errors
	ErrInvalidConfig = &AgentError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &AgentError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
	}
)

// NewAgentError creates a new AgentError with the given parameters
func NewAgentError(category ErrorCategory, code, message string) *AgentError {
	return &AgentError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
