package stt

import (
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
)

func TestNormalizeResponseJoinsResults(t *testing.T) {
	resp := &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{
				Alternatives: []*speechpb.SpeechRecognitionAlternative{
					{Transcript: "tonight we are featuring", Confidence: 0.9},
				},
			},
			{Alternatives: nil}, // empty results are skipped
			{
				Alternatives: []*speechpb.SpeechRecognitionAlternative{
					{Transcript: "our signature truffle risotto", Confidence: 0.7},
				},
				LanguageCode: "en-US",
			},
		},
	}

	result := normalizeResponse(resp, "en-GB")

	if result.Text != "tonight we are featuring our signature truffle risotto" {
		t.Errorf("Unexpected transcript: %q", result.Text)
	}
	if len(result.Segments) != 2 {
		t.Errorf("Expected 2 segments, got %d", len(result.Segments))
	}
	if result.Confidence < 0.799 || result.Confidence > 0.801 {
		t.Errorf("Expected averaged confidence 0.8, got %.3f", result.Confidence)
	}
	if result.Language != "en-US" {
		t.Errorf("Expected detected language to win, got %q", result.Language)
	}
}

func TestNormalizeResponseEmpty(t *testing.T) {
	result := normalizeResponse(&speechpb.RecognizeResponse{}, "en-US")
	if result.Text != "" || result.Confidence != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestGetAudioEncoding(t *testing.T) {
	tests := []struct {
		name     string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"WAV", speechpb.RecognitionConfig_LINEAR16},
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
	}
	for _, tt := range tests {
		encoding, err := getAudioEncoding(tt.name)
		if err != nil {
			t.Errorf("getAudioEncoding(%s) failed: %v", tt.name, err)
		}
		if encoding != tt.expected {
			t.Errorf("getAudioEncoding(%s) = %v, expected %v", tt.name, encoding, tt.expected)
		}
	}

	if _, err := getAudioEncoding("AAC"); err == nil {
		t.Error("Expected error for unsupported encoding")
	}
}
