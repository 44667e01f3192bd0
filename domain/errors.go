package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures for callers and UI listeners.
type ErrorKind string

const (
	// ErrPermission covers input device acquisition failures. Recoverable,
	// the user can grant access and retry.
	ErrPermission ErrorKind = "permission"
	// ErrQuality covers recordings that are too short or unusable.
	// Recoverable, the user can re-record.
	ErrQuality ErrorKind = "quality"
	// ErrEmptyInput covers post-processing called with nothing to process.
	ErrEmptyInput ErrorKind = "empty_input"
	// ErrProcessing covers codec and encoding failures. Not recoverable
	// within the session.
	ErrProcessing ErrorKind = "processing"
	// ErrTranscription covers provider failures after retries are exhausted.
	// Recoverable at the caller's discretion.
	ErrTranscription ErrorKind = "transcription"
	// ErrValidation covers generated content that violates platform
	// constraints. Recoverable, regenerate or edit.
	ErrValidation ErrorKind = "validation"
)

// PipelineError is the structured error surfaced by the voice pipeline.
type PipelineError struct {
	Kind        ErrorKind `json:"type"`
	Message     string    `json:"message"`
	Recoverable bool      `json:"recoverable"`
	cause       error
}

func (e *PipelineError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the root cause so callers can recover the provider error.
func (e *PipelineError) Unwrap() error {
	return e.cause
}

// NewPermissionError reports an input device acquisition failure.
func NewPermissionError(message string, cause error) *PipelineError {
	return &PipelineError{Kind: ErrPermission, Message: message, Recoverable: true, cause: cause}
}

// NewQualityError reports a recording that cannot be submitted.
func NewQualityError(message string) *PipelineError {
	return &PipelineError{Kind: ErrQuality, Message: message, Recoverable: true}
}

// NewEmptyInputError reports post-processing with no input.
func NewEmptyInputError(message string) *PipelineError {
	return &PipelineError{Kind: ErrEmptyInput, Message: message, Recoverable: true}
}

// NewProcessingError reports a codec or encoding failure.
func NewProcessingError(message string, cause error) *PipelineError {
	return &PipelineError{Kind: ErrProcessing, Message: message, Recoverable: false, cause: cause}
}

// NewTranscriptionError reports a provider failure after retries.
func NewTranscriptionError(message string, cause error) *PipelineError {
	return &PipelineError{Kind: ErrTranscription, Message: message, Recoverable: true, cause: cause}
}

// NewValidationError reports content that violates platform constraints.
func NewValidationError(message string) *PipelineError {
	return &PipelineError{Kind: ErrValidation, Message: message, Recoverable: true}
}

// IsKind reports whether err is a PipelineError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
