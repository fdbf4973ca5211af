// Package common provides shared constants, types, and utilities
// used across the VPN Tray application.
package common

import "errors"

// Sentinel errors for VPN Tray operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Invocation errors.
	ErrEmptyPath     = errors.New("executable path is empty")
	ErrToolNotFound  = errors.New("executable not found")
	ErrNotExecutable = errors.New("file is not executable")
	ErrStartFailed   = errors.New("process failed to start")
	ErrStalled       = errors.New("process produced no output within timeout")
	ErrQueueClosed   = errors.New("invocation queue is closed")

	// Action errors.
	ErrActionNotFound  = errors.New("action not found")
	ErrDuplicateAction = errors.New("action title already exists")
	ErrInvalidAction   = errors.New("invalid action definition")
	ErrUnresolvedArg   = errors.New("action argument could not be resolved")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")
	ErrEncryption          = errors.New("encryption error")
	ErrDecryption          = errors.New("decryption error")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
