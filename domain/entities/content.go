package entities

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RestaurantContext carries the brand context embedded into generation
// prompts. Loaded from the owner profile, read-only to the pipeline.
type RestaurantContext struct {
	Name           string   `json:"name"`
	Cuisine        string   `json:"cuisine"`
	Location       string   `json:"location"`
	BrandVoice     string   `json:"brand_voice"`
	Specialties    []string `json:"specialties"`
	TargetAudience []string `json:"target_audience"`
}

// Validate validates the restaurant context.
func (r RestaurantContext) Validate() error {
	if r.Name == "" {
		return errors.New("restaurant name is required")
	}
	if r.Cuisine == "" {
		return errors.New("cuisine is required")
	}
	return nil
}

// PlatformCustomization holds per-network generation constraints.
type PlatformCustomization struct {
	MaxLength        int    `json:"max_length"`
	HashtagCount     int    `json:"hashtag_count"`
	EmojiStyle       string `json:"emoji_style"`
	Tone             string `json:"tone"`
	IncludeCtaButton bool   `json:"include_cta_button"`
}

// SocialPlatform is one target network for a generation request.
type SocialPlatform struct {
	Name          string                `json:"name"`
	Enabled       bool                  `json:"enabled"`
	Customization PlatformCustomization `json:"customization"`
}

// GeneratedContent is one platform's draft caption. Immutable once produced.
type GeneratedContent struct {
	Platform           string   `json:"platform"`
	Content            string   `json:"content"`
	Hashtags           []string `json:"hashtags"`
	Emojis             []string `json:"emojis"`
	EngagementHooks    []string `json:"engagement_hooks"`
	ViralityScore      int      `json:"virality_score"`  // 10-95
	EstimatedReach     int      `json:"estimated_reach"` // per-platform base with jitter
	PostingSuggestions []string `json:"posting_suggestions"`
}

// DraftStatus tracks a persisted draft through the approval workflow.
type DraftStatus string

const (
	DraftStatusPendingApproval DraftStatus = "pending_approval"
	DraftStatusNeedsEdit       DraftStatus = "needs_edit"
	DraftStatusApproved        DraftStatus = "approved"
	DraftStatusRejected        DraftStatus = "rejected"
)

// ContentDraft is the persistence entity handed to the content store after
// generation and validation.
type ContentDraft struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DraftID     string             `json:"draft_id" bson:"draft_id"`
	UserID      string             `json:"user_id" bson:"user_id"`
	Platform    string             `json:"platform" bson:"platform"`
	ContentType string             `json:"content_type" bson:"content_type"`
	Caption     string             `json:"caption" bson:"caption"`
	Hashtags    []string           `json:"hashtags" bson:"hashtags"`
	ImageURL    string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Transcript  string             `json:"transcript,omitempty" bson:"transcript,omitempty"`
	ViralScore  int                `json:"viral_score" bson:"viral_score"`
	Status      DraftStatus        `json:"status" bson:"status"`
	Issues      []string           `json:"issues,omitempty" bson:"issues,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// NewContentDraft builds a draft from a generated item.
func NewContentDraft(userID, contentType, transcript string, content GeneratedContent, draftID string) *ContentDraft {
	now := time.Now()
	return &ContentDraft{
		DraftID:     draftID,
		UserID:      userID,
		Platform:    content.Platform,
		ContentType: contentType,
		Caption:     content.Content,
		Hashtags:    content.Hashtags,
		Transcript:  transcript,
		ViralScore:  content.ViralityScore,
		Status:      DraftStatusPendingApproval,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate validates the draft before persistence.
func (d *ContentDraft) Validate() error {
	if d.UserID == "" {
		return errors.New("user_id is required")
	}
	if d.Platform == "" {
		return errors.New("platform is required")
	}
	if d.Caption == "" {
		return errors.New("caption is required")
	}
	return nil
}
