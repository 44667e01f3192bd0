package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dishcast/dishcast/domain/entities"
)

// ValidationReport lists every rule a draft violates, not just the first.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// ContentValidator checks generated drafts against platform constraints.
type ContentValidator struct{}

// NewContentValidator creates a validator.
func NewContentValidator() *ContentValidator {
	return &ContentValidator{}
}

// Validate returns all violated rules for the content/platform pair.
func (v *ContentValidator) Validate(content entities.GeneratedContent, platform entities.SocialPlatform) ValidationReport {
	var issues []string
	c := platform.Customization

	// Platform limits count characters, not bytes.
	if length := utf8.RuneCountInString(content.Content); c.MaxLength > 0 && length > c.MaxLength {
		issues = append(issues, fmt.Sprintf(
			"caption is %d characters, %s allows %d", length, platform.Name, c.MaxLength))
	}
	if c.HashtagCount > 0 && len(content.Hashtags) > c.HashtagCount {
		issues = append(issues, fmt.Sprintf(
			"%d hashtags, %s allows %d", len(content.Hashtags), platform.Name, c.HashtagCount))
	}
	if c.IncludeCtaButton && !containsCta(content.Content) {
		issues = append(issues, "caption is missing a call to action")
	}

	return ValidationReport{Valid: len(issues) == 0, Issues: issues}
}

func containsCta(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range ctaPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
