package websocket

import (
	"encoding/json"
	"testing"
)

func validCaptureStart() map[string]interface{} {
	return map[string]interface{}{
		"type":          "capture_start",
		"sample_rate":   44100,
		"channel_count": 1,
		"restaurant_context": map[string]interface{}{
			"name":    "Bistro Luna",
			"cuisine": "Italian",
		},
		"platforms": []map[string]interface{}{
			{"name": "instagram", "enabled": true},
		},
	}
}

func marshal(t *testing.T, v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestValidateCaptureStart(t *testing.T) {
	validator := NewMessageValidator()

	parsed, err := validator.ValidateMessage(marshal(t, validCaptureStart()))
	if err != nil {
		t.Fatalf("Expected valid capture_start, got %v", err)
	}
	msg, ok := parsed.(*CaptureStartMessage)
	if !ok {
		t.Fatalf("Expected *CaptureStartMessage, got %T", parsed)
	}
	if msg.Context.Name != "Bistro Luna" {
		t.Errorf("Unexpected context: %+v", msg.Context)
	}
}

func TestValidateCaptureStartRejections(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"sample rate too low", func(m map[string]interface{}) { m["sample_rate"] = 4000 }},
		{"sample rate too high", func(m map[string]interface{}) { m["sample_rate"] = 96000 }},
		{"bad channel count", func(m map[string]interface{}) { m["channel_count"] = 6 }},
		{"missing platforms", func(m map[string]interface{}) { m["platforms"] = []interface{}{} }},
		{"missing restaurant name", func(m map[string]interface{}) {
			m["restaurant_context"] = map[string]interface{}{"cuisine": "Italian"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validCaptureStart()
			tt.mutate(payload)
			if _, err := validator.ValidateMessage(marshal(t, payload)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestValidateAudioChunk(t *testing.T) {
	validator := NewMessageValidator()

	parsed, err := validator.ValidateMessage([]byte(
		`{"type": "audio_chunk", "session_id": "s1", "audio_data": "AAAA", "chunk_sequence": 3}`))
	if err != nil {
		t.Fatalf("Expected valid audio_chunk, got %v", err)
	}
	msg := parsed.(*AudioChunkMessage)
	if msg.ChunkSeq != 3 {
		t.Errorf("Expected sequence 3, got %d", msg.ChunkSeq)
	}

	// Missing session id.
	if _, err := validator.ValidateMessage([]byte(
		`{"type": "audio_chunk", "audio_data": "AAAA"}`)); err == nil {
		t.Error("Expected error for missing session_id")
	}

	// An empty final chunk only flushes the session.
	if _, err := validator.ValidateMessage([]byte(
		`{"type": "audio_chunk", "session_id": "s1", "is_final": true}`)); err != nil {
		t.Errorf("Expected empty final chunk accepted, got %v", err)
	}

	// A non-final chunk must carry audio.
	if _, err := validator.ValidateMessage([]byte(
		`{"type": "audio_chunk", "session_id": "s1"}`)); err == nil {
		t.Error("Expected error for non-final chunk without audio")
	}
}

func TestValidateRejectsUnknownTypes(t *testing.T) {
	validator := NewMessageValidator()

	if _, err := validator.ValidateMessage([]byte(`{"type": "telemetry"}`)); err == nil {
		t.Error("Expected error for unsupported type")
	}
	if _, err := validator.ValidateMessage([]byte(`not json at all`)); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestValidatePing(t *testing.T) {
	validator := NewMessageValidator()

	parsed, err := validator.ValidateMessage([]byte(`{"type": "ping", "data": "hb-1"}`))
	if err != nil {
		t.Fatalf("Expected valid ping, got %v", err)
	}
	if parsed.(*PingMessage).Data != "hb-1" {
		t.Error("Expected ping data preserved")
	}
}

func TestCreateErrorMessage(t *testing.T) {
	msg := CreateErrorMessage("pipeline_failed", "transcription unavailable", true)
	if msg.Type != MessageTypeError {
		t.Errorf("Expected error type, got %s", msg.Type)
	}
	if !msg.Recoverable {
		t.Error("Expected recoverable flag set")
	}
	if msg.Timestamp == "" {
		t.Error("Expected timestamp set")
	}
}
