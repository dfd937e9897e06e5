package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed or out-of-range input. It is returned
	// before any generation or write starts.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates that the requested entity does not exist or is
	// tombstoned.
	ErrNotFound = errors.New("not found")
	// ErrSlotTaken indicates that a non-deleted plan already occupies the
	// (baby, date, meal period) key.
	ErrSlotTaken = errors.New("meal slot already planned")
	// ErrPersistence wraps storage I/O failures.
	ErrPersistence = errors.New("persistence failure")
	// ErrSyncTransient indicates a network or timeout failure talking to the
	// remote authority. Callers may retry.
	ErrSyncTransient = errors.New("transient sync failure")
	// ErrSyncVersionMismatch indicates that the remote copy diverged from an
	// entity with uncommitted local changes.
	ErrSyncVersionMismatch = errors.New("sync version mismatch")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for building a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// VersionMismatchError is returned by the remote authority when an upload is
// rejected because the remote copy moved on. Remote holds the remote copy.
type VersionMismatchError struct {
	Remote RemotePlan
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("remote plan %s is at version %d", e.Remote.CloudID, e.Remote.Version)
}

// Unwrap lets errors.Is match ErrSyncVersionMismatch.
func (e *VersionMismatchError) Unwrap() error { return ErrSyncVersionMismatch }
