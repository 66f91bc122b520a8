// Package apperr defines the error taxonomy shared by the store, services,
// and transports. Concrete failures wrap one of these sentinels so callers
// can branch with errors.Is without knowing the specific failure.
package apperr

import "errors"

var (
	// ErrValidation marks malformed input: zero or multiple payload kinds,
	// wrong participant count, and similar. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrPermission marks a rejected actor: non-participant senders,
	// non-owner edits and deletes. Never retried.
	ErrPermission = errors.New("permission denied")

	// ErrNotFound marks a missing conversation, message, or user.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a lost uniqueness race. The conversation resolver
	// handles it internally by re-resolving to the winning row; it should
	// not normally escape to callers.
	ErrConflict = errors.New("conflict")

	// ErrTransient marks backend or network unavailability. Safe to retry
	// at the caller's discretion for sends; best-effort signals drop it.
	ErrTransient = errors.New("transient backend failure")
)
