package schemas

import (
	"errors"
	"fmt"
)

// Error codes carried by ErrorDescriptor, in the style of structured
// executor error reporting.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInvalidState = "INVALID_STATE"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeStorage      = "STORAGE_ERROR"
	ErrCodeAgent        = "AGENT_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ValidationError reports input or resume payloads that fail a step's
// schema. Always surfaced synchronously to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %q: %s", e.Field, e.Reason)
}

// InvalidStateError reports a resume attempted against a run that is not
// suspended, or suspended at a different step.
type InvalidStateError struct {
	RunID  string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("run %s: %s", e.RunID, e.Reason)
}

// NotFoundError reports an unknown run, session, or artifact id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// StorageError wraps persistence failures.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// AgentError wraps a failed or unusable agent invocation. It fails the
// run it occurred in; the engine never retries automatically.
type AgentError struct {
	StepID string
	Err    error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent invocation failed in step %q: %v", e.StepID, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// Describe maps an error to its caller-facing descriptor.
func Describe(err error) *ErrorDescriptor {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		is *InvalidStateError
		nf *NotFoundError
		se *StorageError
		ae *AgentError
	)
	code := ErrCodeInternal
	switch {
	case errors.As(err, &ve):
		code = ErrCodeValidation
	case errors.As(err, &is):
		code = ErrCodeInvalidState
	case errors.As(err, &nf):
		code = ErrCodeNotFound
	case errors.As(err, &se):
		code = ErrCodeStorage
	case errors.As(err, &ae):
		code = ErrCodeAgent
	}
	return &ErrorDescriptor{Code: code, Message: err.Error()}
}
