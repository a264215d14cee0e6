package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrMissingName indicates a candidate without a project name.
	ErrMissingName = errors.New("candidate has no project name")
	// ErrSearchUnavailable indicates the storage backend has no search index.
	ErrSearchUnavailable = errors.New("project search not available")
)
