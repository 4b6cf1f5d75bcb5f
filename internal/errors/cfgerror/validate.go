// Package cfgerror collects configuration validation failures keyed by the path of the
// offending field.
package cfgerror

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNotSet should be used when the value is not set, but it is required.
	ErrNotSet = errors.New("not set")
	// ErrBlankOrEmpty should be used when the value contains only whitespace.
	ErrBlankOrEmpty = errors.New("blank or empty")
	// ErrDoesntExist should be used when the referenced file system entry is missing.
	ErrDoesntExist = errors.New("doesn't exist")
	// ErrNotFile should be used when the path refers to something other than a regular file.
	ErrNotFile = errors.New("not a file")
	// ErrUnsupportedValue should be used when the value is not one of the supported ones.
	ErrUnsupportedValue = errors.New("not supported")
	// ErrNotInRange should be used when the value lies outside of the allowed bounds.
	ErrNotInRange = errors.New("not in range")
)

// ValidationError represents an issue with provided configuration.
type ValidationError struct {
	// Key represents a path to the field.
	Key []string
	// Cause contains a reason why validation failed.
	Cause error
}

// Error to implement an error standard interface.
// The string representation can have 3 different formats:
// - when Key and Cause is set: "outer.inner: failure cause"
// - when only Key is set: "outer.inner"
// - when only Cause is set: "failure cause"
func (ve ValidationError) Error() string {
	if len(ve.Key) != 0 && ve.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(ve.Key, "."), ve.Cause)
	}
	if len(ve.Key) != 0 {
		return strings.Join(ve.Key, ".")
	}
	if ve.Cause != nil {
		return fmt.Sprintf("%v", ve.Cause)
	}
	return ""
}

// Unwrap returns the cause so that errors.Is matches the sentinel errors of this package.
func (ve ValidationError) Unwrap() error {
	return ve.Cause
}

// NewValidationError creates a new ValidationError with provided parameters.
func NewValidationError(err error, keys ...string) ValidationError {
	return ValidationError{Key: keys, Cause: err}
}

// ValidationErrors is a list of ValidationError-s.
type ValidationErrors []ValidationError

// Append adds provided error into current list by enriching each ValidationError with the
// provided keys or if provided err is not an instance of the ValidationError it will be wrapped
// into it. In case the nil is provided nothing happens.
func (vs ValidationErrors) Append(err error, keys ...string) ValidationErrors {
	switch terr := err.(type) {
	case nil:
		return vs
	case ValidationErrors:
		for _, err := range terr {
			vs = append(vs, ValidationError{
				Key:   append(append([]string{}, keys...), err.Key...),
				Cause: err.Cause,
			})
		}
	case ValidationError:
		vs = append(vs, ValidationError{
			Key:   append(append([]string{}, keys...), terr.Key...),
			Cause: terr.Cause,
		})
	default:
		vs = append(vs, ValidationError{
			Key:   keys,
			Cause: err,
		})
	}

	return vs
}

// AsError returns nil if there are no elements and itself if there is at least one.
func (vs ValidationErrors) AsError() error {
	if len(vs) != 0 {
		return vs
	}
	return nil
}

// Error transforms all validation errors into a single string joined by newline.
func (vs ValidationErrors) Error() string {
	var buf strings.Builder
	for i, ve := range vs {
		if i != 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(ve.Error())
	}
	return buf.String()
}

// New returns uninitialized ValidationErrors object.
func New() ValidationErrors {
	return nil
}

// NotBlank checks the value is not empty or blank.
func NotBlank(val string) error {
	if strings.TrimSpace(val) == "" {
		return NewValidationError(ErrBlankOrEmpty)
	}
	return nil
}

// FileExists checks the value points to an existing regular file.
func FileExists(path string) error {
	if path == "" {
		return NewValidationError(ErrNotSet)
	}

	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewValidationError(fmt.Errorf("%w: %q", ErrDoesntExist, path))
		}
		return err
	}

	if !fi.Mode().IsRegular() {
		return NewValidationError(fmt.Errorf("%w: %q", ErrNotFile, path))
	}

	return nil
}

// IsSupportedValue checks that the value is one of the supported values.
func IsSupportedValue[T comparable](value T, supported ...T) error {
	for _, s := range supported {
		if s == value {
			return nil
		}
	}

	return NewValidationError(fmt.Errorf("%w: %#v", ErrUnsupportedValue, value))
}

// InRange checks that min <= value <= max.
func InRange(value, min, max int) error {
	if value < min || value > max {
		return NewValidationError(fmt.Errorf("%w: %d out of [%d, %d]", ErrNotInRange, value, min, max))
	}
	return nil
}
