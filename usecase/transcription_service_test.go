package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/dishcast/dishcast/domain"
	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/domain/repositories"
	"github.com/dishcast/dishcast/internal/audio"
)

// flakySTT fails a fixed number of times before succeeding.
type flakySTT struct {
	failures int
	calls    int
	result   *entities.TranscriptionResult
	err      error
}

func (f *flakySTT) Transcribe(_ context.Context, _ []byte, _ repositories.AudioConfig) (*entities.TranscriptionResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.result, nil
}

func testFile() *audio.File {
	return &audio.File{
		Data:       make([]byte, 2048),
		SampleRate: 16000,
		Channels:   1,
		MIMEType:   "audio/wav",
	}
}

func newTestTranscriptionService(t *testing.T, stt repositories.SpeechToText) (*TranscriptionService, *[]time.Duration) {
	service := NewTranscriptionService(stt, zaptest.NewLogger(t))
	var sleeps []time.Duration
	service.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}
	return service, &sleeps
}

func TestTranscribeRetriesWithBackoff(t *testing.T) {
	stt := &flakySTT{
		failures: 2,
		err:      errors.New("upstream unavailable"),
		result:   &entities.TranscriptionResult{Text: "our signature truffle risotto", Confidence: 0.9},
	}
	service, sleeps := newTestTranscriptionService(t, stt)

	result, err := service.Transcribe(context.Background(), testFile(), "en-US")
	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}

	if stt.calls != 3 {
		t.Errorf("Expected 3 provider calls, got %d", stt.calls)
	}
	if len(*sleeps) != 2 || (*sleeps)[0] != time.Second || (*sleeps)[1] != 2*time.Second {
		t.Errorf("Expected backoff of [1s 2s], got %v", *sleeps)
	}
	if result.Text != "our signature truffle risotto" {
		t.Errorf("Unexpected transcript: %q", result.Text)
	}
	if result.Language != "en-US" {
		t.Errorf("Expected language filled from request, got %q", result.Language)
	}
}

func TestTranscribeExhaustsRetries(t *testing.T) {
	rootErr := errors.New("quota exceeded")
	stt := &flakySTT{failures: 10, err: rootErr}
	service, sleeps := newTestTranscriptionService(t, stt)

	_, err := service.Transcribe(context.Background(), testFile(), "en-US")
	if err == nil {
		t.Fatal("Expected error after exhausted retries")
	}

	if stt.calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", stt.calls)
	}
	if len(*sleeps) != 2 {
		t.Errorf("Expected 2 backoff sleeps, got %d", len(*sleeps))
	}
	if !domain.IsKind(err, domain.ErrTranscription) {
		t.Errorf("Expected transcription error kind, got %v", err)
	}
	if !errors.Is(err, rootErr) {
		t.Errorf("Expected root cause to be recoverable via errors.Is, got %v", err)
	}
}

func TestTranscribeDefaultsConfidence(t *testing.T) {
	stt := &flakySTT{result: &entities.TranscriptionResult{Text: "hello"}}
	service, _ := newTestTranscriptionService(t, stt)

	result, err := service.Transcribe(context.Background(), testFile(), "en-US")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Confidence != 0.95 {
		t.Errorf("Expected default confidence 0.95 when the provider omits it, got %.2f", result.Confidence)
	}
}

func TestTranscribeAveragesSegmentConfidence(t *testing.T) {
	stt := &flakySTT{result: &entities.TranscriptionResult{
		Text: "two segments",
		Segments: []entities.TranscriptSegment{
			{Text: "two", Confidence: 0.8},
			{Text: "segments", Confidence: 0.6},
		},
	}}
	service, _ := newTestTranscriptionService(t, stt)

	result, err := service.Transcribe(context.Background(), testFile(), "en-US")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Confidence < 0.699 || result.Confidence > 0.701 {
		t.Errorf("Expected averaged confidence 0.7, got %.3f", result.Confidence)
	}
}
