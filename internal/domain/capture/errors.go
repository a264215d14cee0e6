package capture

import "errors"

var (
	// ErrEmptyText indicates a blank note.
	ErrEmptyText = errors.New("capture text is empty")
	// ErrInvalidMethod indicates a capture method not accepted for notes.
	ErrInvalidMethod = errors.New("invalid capture method")
)
