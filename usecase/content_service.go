package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/domain/repositories"
)

// ScoringWeights are the virality heuristic constants. The magic numbers are
// not calibrated against real engagement data, so they stay configurable
// rather than baked in.
type ScoringWeights struct {
	Base           int
	Question       int
	Emoji          int
	IdealLength    int
	Superlative    int
	Exclusivity    int
	LongPenalty    int
	HashtagPenalty int
	Min            int
	Max            int
}

// DefaultScoringWeights returns the stock heuristic weights.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Base:           50,
		Question:       10,
		Emoji:          15,
		IdealLength:    10,
		Superlative:    10,
		Exclusivity:    15,
		LongPenalty:    10,
		HashtagPenalty: 10,
		Min:            10,
		Max:            95,
	}
}

// reachBases are per-platform reach estimates before jitter.
var reachBases = map[string]int{
	"instagram": 800,
	"tiktok":    1200,
	"facebook":  600,
	"twitter":   400,
	"linkedin":  300,
}

const defaultReachBase = 500

// postingAdvice is the fixed per-platform suggestion table.
var postingAdvice = map[string][]string{
	"instagram": {
		"Post between 11am-1pm for peak lunch-decision traffic",
		"Put hashtags in the first comment to keep the caption clean",
		"Share to stories with a poll sticker to boost reach",
	},
	"tiktok": {
		"Post between 6-9pm when scroll time peaks",
		"Hook viewers in the first 2 seconds",
		"Reply to early comments to feed the algorithm",
	},
	"facebook": {
		"Post between 1-3pm on weekdays",
		"Ask a question to drive comments",
		"Tag your location for local discovery",
	},
	"twitter": {
		"Post between 12-1pm or 5-6pm",
		"Keep it punchy; threads underperform for food content",
	},
	"linkedin": {
		"Post Tuesday-Thursday mornings",
		"Lead with the story behind the dish, not the dish",
	},
}

var defaultAdvice = []string{
	"Post during lunch or dinner decision windows",
	"Respond to comments within the first hour",
}

// ctaPhrases are the call-to-action patterns recognized in captions. Shared
// with the content validator.
var ctaPhrases = []string{
	"visit us",
	"order now",
	"book a table",
	"reserve your table",
	"come try",
	"stop by",
	"tag a friend",
	"link in bio",
	"dm us",
	"call us",
}

var superlatives = []string{
	"best", "amazing", "incredible", "delicious", "mouthwatering",
	"perfect", "heavenly", "divine", "irresistible", "legendary",
}

var exclusivityWords = []string{"exclusive", "secret", "limited"}

var (
	hashtagPattern = regexp.MustCompile(`#\w+`)
	emojiPattern   = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}]|[\x{2600}-\x{27BF}]|[\x{1F1E6}-\x{1F1FF}]|[\x{2190}-\x{21FF}]`)
)

// GenerationRequest carries one voice memo's worth of generation input.
type GenerationRequest struct {
	Transcript       string
	ImageDescription string
	ContentType      string
	Mood             string
	IncludeHashtags  bool
	IncludeEmojis    bool
	Context          entities.RestaurantContext
	Platforms        []entities.SocialPlatform
}

// ContentService builds per-platform prompts, calls the text-generation
// provider, and parses the replies into drafts.
type ContentService struct {
	generator repositories.TextGenerator
	logger    *zap.Logger
	weights   ScoringWeights

	// jitter returns a factor in [-0.3, 0.3] applied to reach estimates.
	jitter func() float64
}

// NewContentService creates a content generation service.
func NewContentService(generator repositories.TextGenerator, logger *zap.Logger) *ContentService {
	return &ContentService{
		generator: generator,
		logger:    logger,
		weights:   DefaultScoringWeights(),
		jitter:    func() float64 { return rand.Float64()*0.6 - 0.3 },
	}
}

// Generate produces one draft per enabled platform. A platform's failure is
// logged and its entry omitted; it never aborts the batch.
func (s *ContentService) Generate(ctx context.Context, req GenerationRequest) []entities.GeneratedContent {
	var results []entities.GeneratedContent
	for _, platform := range req.Platforms {
		if !platform.Enabled {
			continue
		}
		content, err := s.generateForPlatform(ctx, req, platform)
		if err != nil {
			s.logger.Error("Content generation failed for platform",
				zap.String("platform", platform.Name),
				zap.Error(err))
			continue
		}
		results = append(results, content)
	}
	return results
}

func (s *ContentService) generateForPlatform(ctx context.Context, req GenerationRequest, platform entities.SocialPlatform) (entities.GeneratedContent, error) {
	prompt := repositories.Prompt{
		System: buildSystemPrompt(platform, req.Context),
		User:   buildUserPrompt(req),
	}

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return entities.GeneratedContent{}, fmt.Errorf("generation call: %w", err)
	}

	output := parseModelOutput(raw)

	content := entities.GeneratedContent{
		Platform:           strings.ToLower(platform.Name),
		Content:            output.Content,
		Hashtags:           output.Hashtags,
		Emojis:             output.Emojis,
		EngagementHooks:    output.EngagementHooks,
		ViralityScore:      output.ViralityScore,
		PostingSuggestions: postingSuggestions(platform.Name),
	}

	if len(content.Hashtags) == 0 {
		content.Hashtags = extractHashtags(content.Content)
	}
	if len(content.Emojis) == 0 {
		content.Emojis = extractEmojis(content.Content)
	}
	if len(content.EngagementHooks) == 0 {
		content.EngagementHooks = extractHooks(content.Content)
	}
	if content.ViralityScore == 0 {
		content.ViralityScore = s.viralityScore(content.Content, content.Hashtags)
	}
	content.ViralityScore = clampScore(content.ViralityScore, s.weights.Min, s.weights.Max)
	content.EstimatedReach = s.estimateReach(platform.Name)

	return content, nil
}

func buildSystemPrompt(platform entities.SocialPlatform, rc entities.RestaurantContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a social media marketer writing for %s, a %s restaurant", rc.Name, rc.Cuisine)
	if rc.Location != "" {
		fmt.Fprintf(&b, " in %s", rc.Location)
	}
	b.WriteString(".\n")
	if rc.BrandVoice != "" {
		fmt.Fprintf(&b, "Brand voice: %s.\n", rc.BrandVoice)
	}
	if len(rc.Specialties) > 0 {
		fmt.Fprintf(&b, "Specialties: %s.\n", strings.Join(rc.Specialties, ", "))
	}
	if len(rc.TargetAudience) > 0 {
		fmt.Fprintf(&b, "Target audience: %s.\n", strings.Join(rc.TargetAudience, ", "))
	}

	c := platform.Customization
	fmt.Fprintf(&b, "\nWrite one %s post.\n", platform.Name)
	fmt.Fprintf(&b, "Constraints: caption at most %d characters, at most %d hashtags", c.MaxLength, c.HashtagCount)
	if c.Tone != "" {
		fmt.Fprintf(&b, ", tone: %s", c.Tone)
	}
	if c.EmojiStyle != "" {
		fmt.Fprintf(&b, ", emoji style: %s", c.EmojiStyle)
	}
	if c.IncludeCtaButton {
		b.WriteString(", include a clear call to action such as \"visit us\" or \"order now\"")
	}
	b.WriteString(".\n")
	b.WriteString("\nRespond with a JSON object only: {\"content\": string, \"hashtags\": [string], \"emojis\": [string], \"engagement_hooks\": [string], \"virality_score\": number 0-100, \"posting_suggestions\": [string]}.")
	return b.String()
}

func buildUserPrompt(req GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The owner described the dish in a voice memo. Transcript:\n%q\n", req.Transcript)
	if req.ImageDescription != "" {
		fmt.Fprintf(&b, "The attached photo shows: %s.\n", req.ImageDescription)
	}
	if req.ContentType != "" {
		fmt.Fprintf(&b, "Content type: %s.\n", req.ContentType)
	}
	if req.Mood != "" {
		fmt.Fprintf(&b, "Mood: %s.\n", req.Mood)
	}
	if req.IncludeHashtags {
		b.WriteString("Include relevant hashtags.\n")
	}
	if req.IncludeEmojis {
		b.WriteString("Include fitting emojis.\n")
	}
	return b.String()
}

// modelOutput is the structured shape requested from the model.
type modelOutput struct {
	Content            string   `json:"content"`
	Hashtags           []string `json:"hashtags"`
	Emojis             []string `json:"emojis"`
	EngagementHooks    []string `json:"engagement_hooks"`
	ViralityScore      int      `json:"virality_score"`
	PostingSuggestions []string `json:"posting_suggestions"`
}

// parseModelOutput uses the structured fields when the reply parses as the
// expected JSON shape, and falls back to treating the whole reply as a
// freeform caption otherwise.
func parseModelOutput(raw string) modelOutput {
	candidate := stripCodeFences(raw)
	if start := strings.Index(candidate, "{"); start >= 0 {
		if end := strings.LastIndex(candidate, "}"); end > start {
			var output modelOutput
			if err := json.Unmarshal([]byte(candidate[start:end+1]), &output); err == nil && output.Content != "" {
				return output
			}
		}
	}
	return modelOutput{Content: strings.TrimSpace(raw)}
}

func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
	}
	return strings.TrimSpace(trimmed)
}

func extractHashtags(content string) []string {
	return hashtagPattern.FindAllString(content, -1)
}

func extractEmojis(content string) []string {
	return emojiPattern.FindAllString(content, -1)
}

// extractHooks pulls question segments and CTA sentences, capped at 3.
func extractHooks(content string) []string {
	var hooks []string
	seen := make(map[string]bool)

	add := func(hook string) {
		hook = strings.TrimSpace(hook)
		if hook == "" || seen[hook] || len(hooks) >= 3 {
			return
		}
		seen[hook] = true
		hooks = append(hooks, hook)
	}

	rest := content
	for {
		idx := strings.Index(rest, "?")
		if idx < 0 {
			break
		}
		segment := rest[:idx]
		if cut := strings.LastIndexAny(segment, ".!\n"); cut >= 0 {
			segment = segment[cut+1:]
		}
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			add(trimmed + "?")
		}
		rest = rest[idx+1:]
	}

	lower := strings.ToLower(content)
	for _, phrase := range ctaPhrases {
		if idx := strings.Index(lower, phrase); idx >= 0 {
			add(sentenceAround(content, idx))
		}
	}
	return hooks
}

// sentenceAround returns the sentence containing the byte offset.
func sentenceAround(content string, offset int) string {
	start := 0
	for i := offset; i > 0; i-- {
		if content[i] == '.' || content[i] == '!' || content[i] == '?' || content[i] == '\n' {
			start = i + 1
			break
		}
	}
	end := len(content)
	for i := offset; i < len(content); i++ {
		if content[i] == '.' || content[i] == '!' || content[i] == '?' || content[i] == '\n' {
			end = i + 1
			break
		}
	}
	return strings.TrimSpace(content[start:end])
}

// viralityScore is the additive heuristic used when the model omits a score.
func (s *ContentService) viralityScore(content string, hashtags []string) int {
	w := s.weights
	score := w.Base
	lower := strings.ToLower(content)
	// Length bounds are in characters, not bytes, or emoji-heavy captions
	// would count four ways per glyph.
	length := utf8.RuneCountInString(content)

	if strings.Contains(content, "?") {
		score += w.Question
	}
	if len(extractEmojis(content)) > 0 {
		score += w.Emoji
	}
	if length >= 50 && length < 200 {
		score += w.IdealLength
	}
	for _, superlative := range superlatives {
		if strings.Contains(lower, superlative) {
			score += w.Superlative
			break
		}
	}
	for _, word := range exclusivityWords {
		if strings.Contains(lower, word) {
			score += w.Exclusivity
			break
		}
	}
	if length > 300 {
		score -= w.LongPenalty
	}
	if len(hashtags) > 8 {
		score -= w.HashtagPenalty
	}
	return score
}

func clampScore(score, min, max int) int {
	if score < min {
		return min
	}
	if score > max {
		return max
	}
	return score
}

func (s *ContentService) estimateReach(platform string) int {
	base, ok := reachBases[strings.ToLower(platform)]
	if !ok {
		base = defaultReachBase
	}
	return int(float64(base) * (1 + s.jitter()))
}

func postingSuggestions(platform string) []string {
	if advice, ok := postingAdvice[strings.ToLower(platform)]; ok {
		return advice
	}
	return defaultAdvice
}
