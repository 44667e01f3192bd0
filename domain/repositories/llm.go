package repositories

import "context"

// Prompt is a system+user prompt pair for a text-generation call.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// TextGenerator abstracts any text-generation provider.
type TextGenerator interface {
	// Generate returns the model's reply for the prompt pair. The reply may
	// be JSON-structured or freeform text; parsing is the caller's concern.
	Generate(ctx context.Context, prompt Prompt) (string, error)
}
