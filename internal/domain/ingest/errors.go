package ingest

import "errors"

var (
	// ErrExtraction indicates extraction output that could not be used.
	ErrExtraction = errors.New("extraction failed")
	// ErrInvalidInput indicates an empty email or missing source.
	ErrInvalidInput = errors.New("invalid ingest input")
)
