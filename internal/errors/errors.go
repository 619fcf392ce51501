// Package errors provides centralized error definitions and error handling
// utilities for the crosstalk codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - FloorError: errors related to floor coordination (fabric membership, claims)
//   - WireError: errors related to the inter-agent links and pacing loops
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid configuration or input
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewWireError("send failed", errors.ErrLinkClosed).WithLink("P1", "P2")
//
//	// Semantic error
//	err := errors.NewValidationError("must not exceed max_talk_duration").
//	    WithField("floor.min_talk_duration")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrLinkClosed) { ... }
//
//	var wireErr *errors.WireError
//	if errors.As(err, &wireErr) { ... }
//
// # Error Classification
//
// Every error type classifies itself through the CrosstalkError interface:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Floor-related sentinel errors
var (
	// ErrUnknownAgent indicates an agent id that never joined the fabric.
	ErrUnknownAgent = New("agent not joined to fabric")
)

// Wire-related sentinel errors
var (
	// ErrLinkClosed indicates a send or receive on a closed link.
	ErrLinkClosed = New("link closed")
	// ErrQueueEmpty indicates a pull from an empty thought queue.
	ErrQueueEmpty = New("thought queue empty")
)

// Conversation lifecycle sentinel errors
var (
	// ErrAlreadyRunning indicates a second Start on a running conversation.
	ErrAlreadyRunning = New("conversation already running")
	// ErrNotRunning indicates an operation that requires a running conversation.
	ErrNotRunning = New("conversation not running")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CrosstalkError is the base interface for all crosstalk errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type CrosstalkError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// Interface conformance for every error type in this package.
var (
	_ CrosstalkError = (*FloorError)(nil)
	_ CrosstalkError = (*WireError)(nil)
	_ CrosstalkError = (*ValidationError)(nil)
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// FloorError represents errors related to floor coordination.
//
// Example:
//
//	err := errors.NewFloorError("claim rejected", errors.ErrUnknownAgent).WithAgent("P3")
type FloorError struct {
	baseError
	AgentID string
}

// NewFloorError creates a new FloorError.
func NewFloorError(message string, cause error) *FloorError {
	return &FloorError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithAgent adds the agent id to the error context.
func (e *FloorError) WithAgent(id string) *FloorError {
	e.AgentID = id
	return e
}

// WithSeverity sets the error severity.
func (e *FloorError) WithSeverity(s Severity) *FloorError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *FloorError) Error() string {
	prefix := "floor error"
	if e.AgentID != "" {
		prefix = fmt.Sprintf("floor error [agent=%s]", e.AgentID)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *FloorError) Is(target error) bool {
	if _, ok := target.(*FloorError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// WireError represents errors related to inter-agent transport.
// Transport faults are local to the emitting worker: they are logged, never
// propagated across agents, and never corrupt floor state.
//
// Example:
//
//	err := errors.NewWireError("send failed", errors.ErrLinkClosed).WithLink("P1", "P2")
type WireError struct {
	baseError
	From string
	To   string
}

// NewWireError creates a new WireError.
func NewWireError(message string, cause error) *WireError {
	return &WireError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: false,
		},
	}
}

// WithLink adds the link endpoints to the error context.
func (e *WireError) WithLink(from, to string) *WireError {
	e.From = from
	e.To = to
	return e
}

// WithSeverity sets the error severity.
func (e *WireError) WithSeverity(s Severity) *WireError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *WireError) WithRetryable(r bool) *WireError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *WireError) Error() string {
	var parts []string
	if e.From != "" {
		parts = append(parts, fmt.Sprintf("from=%s", e.From))
	}
	if e.To != "" {
		parts = append(parts, fmt.Sprintf("to=%s", e.To))
	}

	prefix := "wire error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("wire error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *WireError) Is(target error) bool {
	if _, ok := target.(*WireError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid configuration or input.
// Configuration faults are fatal at startup: the CLI reports them and no run
// is attempted.
//
// Example:
//
//	err := errors.NewValidationError("must not exceed max_talk_duration").
//	    WithField("floor.min_talk_duration").WithValue("3s")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with an additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to start conversation")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to wire agent %s", agentID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
