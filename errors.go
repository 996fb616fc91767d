package edmx

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the error taxonomy shared by all packages.
var (
	// ErrInvalidArgument is matched by every ArgumentError.
	ErrInvalidArgument = errors.New("edmx: invalid argument")

	// ErrLocked is matched by every LockedError.
	ErrLocked = errors.New("edmx: configuration is locked")

	// ErrInvalidModel is matched by every ModelError.
	ErrInvalidModel = errors.New("edmx: invalid model")

	// ErrInvalidConfig is matched by every ConfigError.
	ErrInvalidConfig = errors.New("edmx: invalid configuration")
)

// ArgumentError reports a precondition violation on a named parameter,
// such as a nil or empty required argument.
type ArgumentError struct {
	Param   string // Name of the offending parameter
	Message string
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("edmx: invalid argument %q", e.Param)
	}
	return fmt.Sprintf("edmx: invalid argument %q: %s", e.Param, e.Message)
}

// Is reports whether the target matches ErrInvalidArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewArgumentError returns a new ArgumentError for the given parameter.
func NewArgumentError(param, message string) *ArgumentError {
	return &ArgumentError{Param: param, Message: message}
}

// Empty returns an ArgumentError for a required string that was empty.
func Empty(param string) *ArgumentError {
	return &ArgumentError{Param: param, Message: "cannot be empty"}
}

// Nil returns an ArgumentError for a required value that was nil.
func Nil(param string) *ArgumentError {
	return &ArgumentError{Param: param, Message: "cannot be nil"}
}

// CheckNotEmpty returns an ArgumentError if s is empty or only whitespace.
func CheckNotEmpty(param, s string) error {
	if strings.TrimSpace(s) == "" {
		return Empty(param)
	}
	return nil
}

// IsArgumentError reports whether err is an ArgumentError.
func IsArgumentError(err error) bool {
	var e *ArgumentError
	return errors.As(err, &e)
}

// LockedError is returned when a mutation is attempted on a configuration
// object after it was locked.
type LockedError struct {
	Op string // Attempted operation, e.g. "AddDependencyResolver"
}

// Error returns the error string.
func (e *LockedError) Error() string {
	return fmt.Sprintf("edmx: cannot %s: configuration is already locked", e.Op)
}

// Is reports whether the target matches ErrLocked.
func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// NewLockedError returns a new LockedError naming the attempted operation.
func NewLockedError(op string) *LockedError {
	return &LockedError{Op: op}
}

// IsLocked reports whether err is a LockedError.
func IsLocked(err error) bool {
	var e *LockedError
	return errors.As(err, &e)
}

// ModelError reports an inconsistency in the model graph, such as an
// association with a missing end or a property name that does not resolve.
type ModelError struct {
	Element string // Qualified name of the offending element
	Message string
	Cause   error
}

// Error returns the error string.
func (e *ModelError) Error() string {
	var b strings.Builder
	b.WriteString("edmx: model error")
	if e.Element != "" {
		b.WriteString(" on ")
		b.WriteString(e.Element)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ModelError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrInvalidModel.
func (e *ModelError) Is(target error) bool {
	return target == ErrInvalidModel
}

// NewModelError returns a new ModelError.
func NewModelError(element, message string, cause error) *ModelError {
	return &ModelError{Element: element, Message: message, Cause: cause}
}

// IsModelError reports whether err is a ModelError.
func IsModelError(err error) bool {
	var e *ModelError
	return errors.As(err, &e)
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("edmx: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("edmx: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError returns a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}
