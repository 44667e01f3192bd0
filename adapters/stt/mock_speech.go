package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/domain/repositories"
)

// MockSpeechToText is a placeholder recognizer for development without
// Google credentials.
type MockSpeechToText struct {
	logger *zap.Logger
}

// Ensure MockSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

// Transcribe returns a canned transcript scaled to the audio size.
func (s *MockSpeechToText) Transcribe(ctx context.Context, audioData []byte, config repositories.AudioConfig) (*entities.TranscriptionResult, error) {
	s.logger.Info("Processing mock speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	var text string
	switch {
	case len(audioData) > 100000:
		text = "Tonight we are featuring our signature truffle risotto, slow-stirred with arborio rice, finished with shaved black truffle and aged parmesan. It is creamy, rich, and only on the menu this weekend."
	case len(audioData) > 10000:
		text = "Our new wood-fired margherita pizza just came out of the oven, fresh basil from the garden."
	default:
		text = "Fresh catch of the day, grilled to order."
	}

	return &entities.TranscriptionResult{
		Text:     text,
		Language: config.Language,
	}, nil
}
