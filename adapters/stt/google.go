package stt

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText on Google Cloud batch
// recognition. The client is injected at construction so credentials are
// resolved once, not per call.
type GoogleSpeechToText struct {
	client *speech.Client
	logger *zap.Logger
}

// Ensure GoogleSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates the adapter. Credentials come from the
// standard GOOGLE_APPLICATION_CREDENTIALS environment.
func NewGoogleSpeechToText(ctx context.Context, logger *zap.Logger) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleSpeechToText{client: client, logger: logger}, nil
}

// Close releases the underlying client.
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// Transcribe runs one batch recognition call and normalizes the response.
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, audioData []byte, config repositories.AudioConfig) (*entities.TranscriptionResult, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              encoding,
			SampleRateHertz:       int32(config.SampleRate),
			LanguageCode:          config.Language,
			EnableWordTimeOffsets: true,
			EnableWordConfidence:  true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	result := normalizeResponse(resp, config.Language)
	result.ProcessingTime = time.Since(started)

	g.logger.Info("Google transcription completed",
		zap.Int("segments", len(result.Segments)),
		zap.Float64("confidence", result.Confidence))

	if result.Text == "" {
		return nil, fmt.Errorf("no speech detected in audio")
	}
	return result, nil
}

// normalizeResponse maps provider results into the uniform
// transcript+segments+confidence shape.
func normalizeResponse(resp *speechpb.RecognizeResponse, language string) *entities.TranscriptionResult {
	var (
		parts    []string
		segments []entities.TranscriptSegment
		confSum  float64
	)

	for _, res := range resp.Results {
		if len(res.Alternatives) == 0 {
			continue
		}
		alt := res.Alternatives[0]
		parts = append(parts, alt.Transcript)
		confSum += float64(alt.Confidence)

		segment := entities.TranscriptSegment{
			Text:       alt.Transcript,
			Confidence: float64(alt.Confidence),
		}
		if len(alt.Words) > 0 {
			segment.Start = alt.Words[0].StartTime.AsDuration().Seconds()
			segment.End = alt.Words[len(alt.Words)-1].EndTime.AsDuration().Seconds()
		}
		segments = append(segments, segment)

		if res.LanguageCode != "" {
			language = res.LanguageCode
		}
	}

	result := &entities.TranscriptionResult{
		Text:     strings.TrimSpace(strings.Join(parts, " ")),
		Language: language,
		Segments: segments,
	}
	if len(segments) > 0 {
		result.Confidence = confSum / float64(len(segments))
	}
	return result
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
