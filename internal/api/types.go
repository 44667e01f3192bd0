package api

import (
	"time"

	"github.com/dishcast/dishcast/domain/entities"
)

// LoginRequest represents the request payload for owner login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response payload for owner login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// VoiceContentRequest represents a complete voice memo submitted over HTTP
// instead of the streaming socket. Chunks are base64 encoded PCM.
type VoiceContentRequest struct {
	Chunks           []string                   `json:"chunks" validate:"required"`
	SampleRate       int                        `json:"sample_rate"`
	ChannelCount     int                        `json:"channel_count"`
	Language         string                     `json:"language,omitempty"`
	ContentType      string                     `json:"content_type,omitempty"`
	Mood             string                     `json:"mood,omitempty"`
	ImageDescription string                     `json:"image_description,omitempty"`
	PhoneNumber      string                     `json:"phone_number,omitempty"`
	IncludeHashtags  bool                       `json:"include_hashtags"`
	IncludeEmojis    bool                       `json:"include_emojis"`
	Context          entities.RestaurantContext `json:"restaurant_context"`
	Platforms        []entities.SocialPlatform  `json:"platforms"`
}

// DraftListResponse represents the response payload for draft listing
type DraftListResponse struct {
	Drafts []*entities.ContentDraft `json:"drafts"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
