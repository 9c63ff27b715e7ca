// Package errs defines the domain error kinds surfaced by the conversation
// engine. Callers classify failures with errors.Is; everything that is not
// one of these kinds should be treated as an internal failure and not
// forwarded verbatim to clients.
package errs

import "errors"

var (
	// ErrInvalidRequest covers missing or malformed inputs: an empty
	// participant set, empty message content, a zero-byte upload.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when a conversation, message, attachment or
	// user cannot be located. It is also returned when the actor is not a
	// participant of the target conversation, so callers cannot probe for
	// the existence of conversations they do not belong to.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an authenticated actor acting outside its rights.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists is returned when a conversation already exists for
	// an exact participant set.
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyReacted is returned on a duplicate emoji reaction by the
	// same user on the same message.
	ErrAlreadyReacted = errors.New("already reacted")

	// ErrUnauthenticated is signalled by the auth collaborator when a
	// request carries no valid identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStorageFailure wraps blob-store write/delete failures.
	ErrStorageFailure = errors.New("storage failure")
)
