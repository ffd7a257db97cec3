// Package errors defines the error categories shared by the wiz client and
// the CLI. Protocol errors in pkg/wiz unwrap to one of these sentinels so
// callers can branch on the category without knowing the concrete type.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned when a named resource, such as a group, doesn't exist
var ErrNotFound = errors.New("resource not found")

// ErrInvalidInput is returned when a request is invalid for the target
var ErrInvalidInput = errors.New("invalid input")

// ErrDeviceUnavailable is returned when a device can't be reached or is not responding
var ErrDeviceUnavailable = errors.New("device unavailable")

// ErrInternal is returned for unexpected internal errors
var ErrInternal = errors.New("internal error")

// Process exit codes by category.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitInvalidInput      = 2
	ExitNotFound          = 3
	ExitDeviceUnavailable = 4
)

// LogErrorAndReturn logs an error with structured context and returns it
func LogErrorAndReturn(logger *slog.Logger, err error, message string, args ...any) error {
	if err == nil {
		return nil
	}
	logger.Error(message, append([]any{"error", err}, args...)...)
	return err
}

// WrapErrorf wraps an error with additional context using fmt.Errorf
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// IsNotFound returns true if the error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true if the error is or wraps ErrInvalidInput
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsDeviceUnavailable returns true if the error is or wraps ErrDeviceUnavailable
func IsDeviceUnavailable(err error) bool {
	return errors.Is(err, ErrDeviceUnavailable)
}

// NotFoundf returns a formatted ErrNotFound error
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// InvalidInputf returns a formatted ErrInvalidInput error
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// DeviceUnavailablef returns a formatted ErrDeviceUnavailable error
func DeviceUnavailablef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrDeviceUnavailable)...)
}

// Internalf returns a formatted ErrInternal error
func Internalf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInternal)...)
}

// ExitCode maps an error to the process exit code for its category.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsInvalidInput(err):
		return ExitInvalidInput
	case IsNotFound(err):
		return ExitNotFound
	case IsDeviceUnavailable(err):
		return ExitDeviceUnavailable
	default:
		return ExitFailure
	}
}

// Hint returns a short suggestion for the user, or "" if there is none.
func Hint(err error) string {
	switch {
	case IsDeviceUnavailable(err):
		return "check the device is powered and on the same network segment, or raise --timeout"
	case IsInvalidInput(err):
		return "check the arguments with --help; some commands only apply to certain device kinds"
	case IsNotFound(err):
		return "list existing groups with 'wizctl group list'"
	default:
		return ""
	}
}
