package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain/repositories"
)

// MockGenerator is a placeholder text generator for development without an
// API key. It returns a fixed structured response.
type MockGenerator struct {
	logger *zap.Logger
}

// Ensure MockGenerator implements the TextGenerator interface
var _ repositories.TextGenerator = (*MockGenerator)(nil)

// NewMockGenerator creates a new mock generator.
func NewMockGenerator(logger *zap.Logger) *MockGenerator {
	return &MockGenerator{logger: logger}
}

// Generate returns a canned JSON draft.
func (m *MockGenerator) Generate(ctx context.Context, prompt repositories.Prompt) (string, error) {
	m.logger.Info("Mock generation",
		zap.Int("system_chars", len(prompt.System)),
		zap.Int("user_chars", len(prompt.User)))

	return `{
		"content": "Our chef just pulled something incredible from the kitchen. Creamy, rich, and made fresh today. Who's coming in tonight? Visit us before it sells out!",
		"hashtags": ["#foodie", "#freshmade", "#chefspecial"],
		"emojis": ["🍽️", "🔥"],
		"engagement_hooks": ["Who's coming in tonight?"],
		"virality_score": 72,
		"posting_suggestions": ["Post before the dinner rush"]
	}`, nil
}
