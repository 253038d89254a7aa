package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by storage backends when an object does not exist.
var ErrNotFound = errors.New("not found")

// ErrLockHeld is returned by LockManager.Acquire when another holder owns the
// lock.
var ErrLockHeld = errors.New("lock held")

// Kind classifies a pipeline failure. The set is closed: callers switch on it
// instead of matching message text.
type Kind string

const (
	KindSchemaValidation    Kind = "schema_validation"
	KindUnknownPositionCode Kind = "unknown_position_code"
	KindMappingIntegrity    Kind = "mapping_integrity"
	KindConfiguration       Kind = "configuration"
	KindModelNotFound       Kind = "model_not_found"
	KindInference           Kind = "inference"
)

// Kinds lists every error kind in a stable order.
var Kinds = []Kind{
	KindSchemaValidation,
	KindUnknownPositionCode,
	KindMappingIntegrity,
	KindConfiguration,
	KindModelNotFound,
	KindInference,
}

// ClientFault reports whether the kind is caused by the request rather than
// by the deployment.
func (k Kind) ClientFault() bool {
	return k == KindSchemaValidation || k == KindUnknownPositionCode
}

// FieldError names one offending input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is the single error type produced by the prediction pipeline.
type Error struct {
	Kind    Kind
	Stage   Stage
	Message string

	// Optional diagnostics, populated depending on Kind.
	Fields          []FieldError
	Code            *int
	ValidCodes      []int
	Path            string
	AvailableModels []string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Detail returns the human-readable message sent to clients.
func (e *Error) Detail() string {
	if e.Err != nil && e.Kind != KindSchemaValidation {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// AsError extracts a pipeline *Error from err.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	if de, ok := AsError(err); ok {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a pipeline error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// SchemaError builds a schema validation failure for the given fields.
func SchemaError(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindSchemaValidation, Message: msg, Fields: fields}
}

// ConfigError builds a deployment fault wrapping err.
func ConfigError(msg string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Err: err}
}

// IntegrityError builds a mapping integrity failure.
func IntegrityError(msg string) *Error {
	return &Error{Kind: KindMappingIntegrity, Message: msg}
}

// InferenceError wraps a model failure.
func InferenceError(msg string, err error) *Error {
	return &Error{Kind: KindInference, Message: msg, Err: err}
}
