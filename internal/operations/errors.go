package operations

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeInvalidState ErrorType = "invalid_state"
)

// OperationError is a step failure. The cause stays reachable through
// errors.Is and errors.As.
type OperationError struct {
	Type    ErrorType `json:"type"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Step != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewExecutionError wraps a step's failure
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "step execution failed",
		Cause:   cause,
	}
}

// NewCancellationError reports a run cancelled before step
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "operation cancelled",
		Cause:   cause,
	}
}

// NewInvalidStateError reports a step whose inputs were not produced
func NewInvalidStateError(step, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeInvalidState,
		Step:    step,
		Message: message,
	}
}

// FailedStep returns the step that produced err, or "" if none
func FailedStep(err error) string {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Step
	}
	return ""
}
