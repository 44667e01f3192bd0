package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain"
	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/domain/repositories"
	"github.com/dishcast/dishcast/internal/audio"
)

const (
	transcribeAttempts       = 3
	transcribeBaseBackoff    = time.Second
	transcribeAttemptTimeout = 60 * time.Second

	// Providers that return no segments get this whole-transcript
	// confidence. Omission is not evidence of poor quality.
	defaultConfidence = 0.95
)

// TranscriptionService wraps a speech-to-text provider with bounded
// retry/backoff and response normalization.
type TranscriptionService struct {
	stt    repositories.SpeechToText
	logger *zap.Logger

	attempts       int
	baseBackoff    time.Duration
	attemptTimeout time.Duration
	sleep          func(time.Duration)
}

// NewTranscriptionService creates a transcription service with the stock
// retry policy: 3 attempts, exponential backoff from 1s.
func NewTranscriptionService(stt repositories.SpeechToText, logger *zap.Logger) *TranscriptionService {
	return &TranscriptionService{
		stt:            stt,
		logger:         logger,
		attempts:       transcribeAttempts,
		baseBackoff:    transcribeBaseBackoff,
		attemptTimeout: transcribeAttemptTimeout,
		sleep:          time.Sleep,
	}
}

// Transcribe uploads the file and returns the normalized transcript. Each
// attempt is fully independent and individually time-bounded; after the last
// failure the provider error is wrapped so callers can recover the root
// cause.
func (s *TranscriptionService) Transcribe(ctx context.Context, file *audio.File, language string) (*entities.TranscriptionResult, error) {
	config := repositories.AudioConfig{
		SampleRate: file.SampleRate,
		Encoding:   "LINEAR16",
		Language:   language,
	}

	started := time.Now()
	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			backoff := s.baseBackoff << (attempt - 1)
			s.logger.Warn("Transcription attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			s.sleep(backoff)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		result, err := s.stt.Transcribe(attemptCtx, file.Data, config)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}

		normalized := normalizeTranscription(result, language)
		normalized.ProcessingTime = time.Since(started)
		s.logger.Info("Transcription completed",
			zap.Int("attempts", attempt+1),
			zap.Float64("confidence", normalized.Confidence),
			zap.Int("segments", len(normalized.Segments)))
		return normalized, nil
	}

	return nil, domain.NewTranscriptionError("transcription failed after retries", lastErr)
}

// normalizeTranscription fills provider omissions into the uniform shape.
func normalizeTranscription(result *entities.TranscriptionResult, language string) *entities.TranscriptionResult {
	normalized := *result
	if normalized.Language == "" {
		normalized.Language = language
	}
	if len(normalized.Segments) == 0 && normalized.Confidence == 0 {
		normalized.Confidence = defaultConfidence
	}
	if normalized.Confidence == 0 && len(normalized.Segments) > 0 {
		var sum float64
		for _, seg := range normalized.Segments {
			sum += seg.Confidence
		}
		normalized.Confidence = sum / float64(len(normalized.Segments))
	}
	return &normalized
}
