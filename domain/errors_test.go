package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestPipelineErrorWrapsCause(t *testing.T) {
	root := errors.New("connection refused")
	err := NewTranscriptionError("transcription failed after retries", root)

	if !errors.Is(err, root) {
		t.Error("Expected errors.Is to find the root cause")
	}

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatal("Expected errors.As to match *PipelineError")
	}
	if pe.Kind != ErrTranscription {
		t.Errorf("Expected transcription kind, got %s", pe.Kind)
	}
	if !pe.Recoverable {
		t.Error("Expected transcription errors to be recoverable")
	}
}

func TestIsKind(t *testing.T) {
	err := NewQualityError("recording too short")
	if !IsKind(err, ErrQuality) {
		t.Error("Expected quality kind to match")
	}
	if IsKind(err, ErrPermission) {
		t.Error("Expected mismatched kind to fail")
	}
	if IsKind(errors.New("plain"), ErrQuality) {
		t.Error("Expected plain errors not to match")
	}

	// Wrapped pipeline errors still classify.
	wrapped := fmt.Errorf("handler: %w", err)
	if !IsKind(wrapped, ErrQuality) {
		t.Error("Expected wrapped pipeline error to match")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	with := NewProcessingError("failed to encode wav", errors.New("bad sample"))
	if with.Error() != "processing: failed to encode wav: bad sample" {
		t.Errorf("Unexpected message: %q", with.Error())
	}
	if with.Recoverable {
		t.Error("Expected processing errors to be unrecoverable")
	}

	without := NewEmptyInputError("no audio chunks to assemble")
	if without.Error() != "empty_input: no audio chunks to assemble" {
		t.Errorf("Unexpected message: %q", without.Error())
	}
}
