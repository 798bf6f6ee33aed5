package store

import "errors"

// StoreError is a domain error from metadata store operations.
//
// These are namespace errors (entry not found, already exists, ...) as
// opposed to infrastructure failures (disk errors, database
// corruption), which implementations wrap with ErrIOError.
type StoreError struct {
	// Code is the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the store path the error relates to, if any.
	Path string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode is the category of a StoreError.
type ErrorCode int

const (
	// ErrNotFound: the entry or its parent does not exist.
	ErrNotFound ErrorCode = iota

	// ErrAlreadyExists: an entry with the name already exists.
	ErrAlreadyExists

	// ErrNotEmpty: a directory is not empty and cannot be removed or
	// replaced.
	ErrNotEmpty

	// ErrIsDirectory: the operation expected a file but found a
	// directory.
	ErrIsDirectory

	// ErrNotDirectory: the operation expected a directory but found a
	// file.
	ErrNotDirectory

	// ErrInvalidArgument: malformed path or parameters.
	ErrInvalidArgument

	// ErrIOError: the backing storage failed.
	ErrIOError
)

// CodeOf extracts the ErrorCode from an error chain.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// IsNotFound reports whether the error is an ErrNotFound StoreError.
func IsNotFound(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrNotFound
}
