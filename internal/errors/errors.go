// Package errors provides unified error handling with a small set of error codes.
// Causes carry a stack trace so fatal errors can be printed with %+v.
package errors

import (
	"fmt"
	"io"

	pkgerrors "github.com/pkg/errors"
)

// Code classifies a failure by the stage of the capture cycle it came from.
type Code string

const (
	CodeUnknown   Code = "UNKNOWN"
	CodeCapture   Code = "CAPTURE_FAILED"
	CodeInference Code = "INFERENCE_FAILED"
	CodePersist   Code = "PERSIST_FAILED"
	CodeCleanup   Code = "CLEANUP_FAILED"
	CodeNotify    Code = "NOTIFY_FAILED"
	CodeConfig    Code = "CONFIG_INVALID"
)

// fatalCodes are the failures that end the loop.
var fatalCodes = map[Code]bool{
	CodeCapture:   true,
	CodeInference: true,
	CodePersist:   true,
	CodeNotify:    true,
	CodeConfig:    true,
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// Format prints the cause's stack trace for %+v.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "[%s] %s", e.Code, e.Message)
			if len(e.Metadata) > 0 {
				fmt.Fprintf(s, " %v", e.Metadata)
			}
			if e.Cause != nil {
				fmt.Fprintf(s, "\ncaused by: %+v", e.Cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: withStack(err)}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// Classify wraps err with code unless it already carries a code.
func Classify(err error, code Code, msg string) error {
	if err == nil || CodeOf(err) != CodeUnknown {
		return err
	}
	return Wrap(err, code, msg)
}

// CodeOf returns the code of the outermost AppError in err's chain.
func CodeOf(err error) Code {
	var appErr *AppError
	if pkgerrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsFatal reports whether err should end the capture loop.
// Unclassified errors are fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	code := CodeOf(err)
	return code == CodeUnknown || fatalCodes[code]
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// withStack attaches a stack unless err already has one.
func withStack(err error) error {
	if err == nil {
		return nil
	}
	var st stackTracer
	if pkgerrors.As(err, &st) {
		return err
	}
	return pkgerrors.WithStack(err)
}
