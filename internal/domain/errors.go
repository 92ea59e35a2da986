// Package domain holds the error kinds shared by the entity store, the graph
// engine and every adapter. Adapters wrap these with fmt.Errorf("...: %w");
// callers match with errors.Is.
package domain

import "errors"

var (
	// ErrNotFound is returned when a user (or an edge endpoint) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when creating a user whose username is taken.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned by authentication on an unknown
	// username or a password mismatch. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidArgument is returned for out-of-range parameters passed
	// directly to the engine, e.g. n < 1 for ranking.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoCandidates is returned by recommendation when no eligible user is
	// reachable within the depth ceiling.
	ErrNoCandidates = errors.New("no recommendation candidates")

	// ErrStoreUnavailable wraps I/O failures of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
