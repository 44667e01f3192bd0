package repositories

import (
	"context"

	"github.com/dishcast/dishcast/domain/entities"
)

// SpeechToText abstracts speech recognition providers.
type SpeechToText interface {
	// Transcribe converts an encoded audio file to a normalized transcript.
	// One call is one provider attempt; retry policy lives in the caller.
	Transcribe(ctx context.Context, audioData []byte, config AudioConfig) (*entities.TranscriptionResult, error)
}

// AudioConfig represents audio configuration for speech recognition.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}
