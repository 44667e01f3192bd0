package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dishcast/dishcast/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeCaptureStart   MessageType = "capture_start"
	MessageTypeCaptureStarted MessageType = "capture_started"
	MessageTypeAudioChunk     MessageType = "audio_chunk"
	MessageTypeCaptureStop    MessageType = "capture_stop"
	MessageTypeQualityUpdate  MessageType = "quality_update"
	MessageTypePipelineResult MessageType = "pipeline_result"
	MessageTypePing           MessageType = "ping"
	MessageTypePong           MessageType = "pong"
	MessageTypeError          MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// CaptureStartMessage opens a capture session over the socket.
type CaptureStartMessage struct {
	BaseMessage
	SampleRate   int                        `json:"sample_rate"`
	ChannelCount int                        `json:"channel_count"`
	Language     string                     `json:"language,omitempty"`
	ContentType  string                     `json:"content_type,omitempty"`
	Mood         string                     `json:"mood,omitempty"`
	PhoneNumber  string                     `json:"phone_number,omitempty"`
	Context      entities.RestaurantContext `json:"restaurant_context"`
	Platforms    []entities.SocialPlatform  `json:"platforms"`
}

// CaptureStartedMessage acknowledges a capture session.
type CaptureStartedMessage struct {
	BaseMessage
	SessionID string `json:"session_id"`
}

// AudioChunkMessage carries one tick of captured audio from the client.
type AudioChunkMessage struct {
	BaseMessage
	SessionID     string `json:"session_id"`
	AudioData     string `json:"audio_data"`               // base64 encoded PCM
	FrequencyData string `json:"frequency_data,omitempty"` // base64 encoded FFT bins
	ChunkSeq      int    `json:"chunk_sequence"`
	IsFinal       bool   `json:"is_final"`
}

// CaptureStopMessage finalizes or cancels a capture session.
type CaptureStopMessage struct {
	BaseMessage
	SessionID string `json:"session_id"`
	Cancel    bool   `json:"cancel,omitempty"`
}

// QualityUpdateMessage pushes a live quality snapshot to the client.
type QualityUpdateMessage struct {
	BaseMessage
	SessionID string                `json:"session_id"`
	Quality   entities.AudioQuality `json:"quality"`
}

// PipelineResultMessage delivers the pipeline outcome for a finished capture.
type PipelineResultMessage struct {
	BaseMessage
	SessionID string      `json:"session_id"`
	Result    interface{} `json:"result"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code        string `json:"error_code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
	Details     string `json:"details,omitempty"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeCaptureStart:
		var msg CaptureStartMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid capture start message: %w", err)
		}
		if err := v.validateCaptureStart(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeAudioChunk:
		var msg AudioChunkMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid audio chunk message: %w", err)
		}
		if err := v.validateAudioChunk(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeCaptureStop:
		var msg CaptureStopMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid capture stop message: %w", err)
		}
		if msg.SessionID == "" {
			return nil, fmt.Errorf("session_id is required")
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// validateCaptureStart validates capture start message fields
func (v *MessageValidator) validateCaptureStart(msg *CaptureStartMessage) error {
	if msg.SampleRate < 8000 || msg.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000")
	}
	if msg.ChannelCount != 1 && msg.ChannelCount != 2 {
		return fmt.Errorf("channel_count must be 1 or 2")
	}
	if err := msg.Context.Validate(); err != nil {
		return fmt.Errorf("invalid restaurant context: %w", err)
	}
	if len(msg.Platforms) == 0 {
		return fmt.Errorf("at least one platform is required")
	}
	return nil
}

// validateAudioChunk validates audio chunk message fields
func (v *MessageValidator) validateAudioChunk(msg *AudioChunkMessage) error {
	if msg.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if msg.AudioData == "" && !msg.IsFinal {
		return fmt.Errorf("audio_data is required")
	}
	if msg.ChunkSeq < 0 {
		return fmt.Errorf("chunk_sequence must not be negative")
	}
	return nil
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message string, recoverable bool) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Code:        code,
		Message:     message,
		Recoverable: recoverable,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Data: data,
	}
}

// CreateQualityUpdateMessage creates a quality update for a session
func CreateQualityUpdateMessage(sessionID string, quality entities.AudioQuality) *QualityUpdateMessage {
	return &QualityUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeQualityUpdate,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		SessionID: sessionID,
		Quality:   quality,
	}
}
