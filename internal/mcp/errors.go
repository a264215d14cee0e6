package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/nexus/internal/documents"
	"github.com/rpggio/nexus/internal/domain/capture"
	"github.com/rpggio/nexus/internal/domain/ingest"
	"github.com/rpggio/nexus/internal/domain/project"
	"github.com/rpggio/nexus/internal/repository"
	"github.com/rpggio/nexus/internal/state"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// errModelUnavailable is returned by tools that need the language model when
// the server was started without one.
var errModelUnavailable = &APIError{
	Code:         "MODEL_UNAVAILABLE",
	Message:      "no language model configured",
	RecoveryHint: "Set ANTHROPIC_API_KEY and restart the server",
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var verr *state.ValidationError
	switch {
	case errors.Is(err, project.ErrProjectNotFound), errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids and names"}
	case errors.Is(err, project.ErrSearchUnavailable):
		return &APIError{Code: "SEARCH_UNAVAILABLE", Message: "project search needs the sqlite driver", RecoveryHint: "Use list_projects or get_project instead"}
	case errors.As(err, &verr):
		return &APIError{Code: "INVALID_DOCUMENT", Message: "state document failed validation; nothing was written", Details: verr.Issues}
	case errors.Is(err, state.ErrInvalidDocument):
		return &APIError{Code: "INVALID_DOCUMENT", Message: "state document failed validation; nothing was written"}
	case errors.Is(err, state.ErrLocked):
		return &APIError{Code: "STORE_LOCKED", Message: "state store is locked by another writer", RecoveryHint: "Retry once the running ingestion finishes"}
	case errors.Is(err, documents.ErrNotFound):
		return &APIError{Code: "DOCUMENT_NOT_FOUND", Message: "document not found", RecoveryHint: "Check the file name in the inbox"}
	case errors.Is(err, documents.ErrUnsupportedType):
		return &APIError{Code: "UNSUPPORTED_DOCUMENT", Message: "document type is not supported", RecoveryHint: "Use plain text or markdown"}
	case errors.Is(err, ingest.ErrExtraction):
		return &APIError{Code: "EXTRACTION_FAILED", Message: err.Error()}
	case errors.Is(err, capture.ErrEmptyText), errors.Is(err, capture.ErrInvalidMethod),
		errors.Is(err, ingest.ErrInvalidInput), errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, project.ErrMissingName):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}

// toolError converts a service error into the error a tool handler returns.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
