// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application. These correspond to the five kinds of
// failure a heap snapshot ingestion run can hit: reading the source, parsing
// its JSON envelope, decoding the column-oriented node/edge data against the
// declared meta, persisting into the output store, and executing a
// caller-supplied SQL query against it.
const (
	CodeUnknown      = "UNKNOWN_ERROR"
	CodeIOError      = "IO_ERROR"
	CodeParseError   = "PARSE_ERROR"
	CodeDecodeError  = "DECODE_ERROR"
	CodePersistError = "PERSIST_ERROR"
	CodeQueryError   = "QUERY_ERROR"
	CodeEmptyFile    = "EMPTY_FILE"
	CodeInvalidInput = "INVALID_INPUT"
	CodeConfigError  = "CONFIG_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrIOError      = New(CodeIOError, "snapshot read error")
	ErrParseError   = New(CodeParseError, "snapshot parse error")
	ErrDecodeError  = New(CodeDecodeError, "snapshot decode error")
	ErrPersistError = New(CodePersistError, "persistence error")
	ErrQueryError   = New(CodeQueryError, "query error")
	ErrEmptyFile    = New(CodeEmptyFile, "empty file")
	ErrInvalidInput = New(CodeInvalidInput, "invalid input")
	ErrConfigError  = New(CodeConfigError, "configuration error")
)

// IsIOError checks if the error is a snapshot read error.
func IsIOError(err error) bool {
	return errors.Is(err, ErrIOError)
}

// IsParseError checks if the error is a snapshot parse error.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParseError)
}

// IsDecodeError checks if the error is a snapshot decode error.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecodeError)
}

// IsPersistError checks if the error is a persistence error.
func IsPersistError(err error) bool {
	return errors.Is(err, ErrPersistError)
}

// IsQueryError checks if the error is a query error.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrQueryError)
}

// IsEmptyFileError checks if the error is an empty file error.
func IsEmptyFileError(err error) bool {
	return errors.Is(err, ErrEmptyFile)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ErrorInfo provides a name-to-code lookup for the five ingestion-pipeline
// failure kinds.
var ErrorInfo = map[string]string{
	"IOError":      CodeIOError,
	"ParseError":   CodeParseError,
	"DecodeError":  CodeDecodeError,
	"PersistError": CodePersistError,
	"QueryError":   CodeQueryError,
	"EmptyFile":    CodeEmptyFile,
}
