package state

import "errors"

var (
	// ErrInvalidDocument indicates a document that fails schema validation.
	ErrInvalidDocument = errors.New("invalid state document")
	// ErrLocked indicates the store lock could not be acquired in time.
	ErrLocked = errors.New("state store is locked by another writer")
)
