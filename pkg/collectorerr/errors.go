// Package collectorerr defines the error taxonomy every component in the
// collection core raises into. Each Kind is a sentinel that callers compare
// with errors.Is; wrapped errors carry the original cause via %w so context
// survives up the call chain.
package collectorerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a collection-core error.
type Kind string

const (
	// ConfigError covers job parse failures, filter compile failures, and
	// filename expansion failures. Fatal at job start; no devices contacted.
	ConfigError Kind = "config_error"

	// InventoryEmpty is raised when the device resolver produces zero
	// devices for a job, whether or not its filter sets any field. Fatal at
	// job start.
	InventoryEmpty Kind = "inventory_empty"

	// NoCredential is raised when the credential resolver finds no usable
	// secret for a device. Per-device failure; other devices proceed.
	NoCredential Kind = "no_credential"

	// AuthFailed is raised on SSH authentication rejection.
	AuthFailed Kind = "auth_failed"

	// Timeout is raised when a device's per-device wall clock elapses.
	Timeout Kind = "timeout"

	// TransportError covers connect refused, DNS failure, and reset.
	TransportError Kind = "transport_error"

	// CommandError covers non-recoverable prompt-detection failures.
	CommandError Kind = "command_error"

	// ValidationFailed is raised when the best template score is below the
	// job's min_score, or no template matched.
	ValidationFailed Kind = "validation_failed"

	// PersistenceError covers capture write or history update failures.
	PersistenceError Kind = "persistence_error"

	// SecretStoreLocked is raised when an operation needs decrypted
	// material but the store has not been unlocked.
	SecretStoreLocked Kind = "secret_store_locked"
)

// Error is a collection-core error tagged with a Kind for classification
// and an optional wrapped cause.
type Error struct {
	Kind Kind
	Message string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers can
// do errors.Is(err, collectorerr.New(collectorerr.Timeout, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error carrying cause, preserved for errors.Unwrap/errors.Is.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
