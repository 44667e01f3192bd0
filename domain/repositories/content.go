package repositories

import (
	"context"

	"github.com/dishcast/dishcast/domain/entities"
)

// ContentStore persists generated drafts.
type ContentStore interface {
	// Save stores a draft and returns its storage id.
	Save(ctx context.Context, draft *entities.ContentDraft) (string, error)
	// ListByUser returns a user's drafts, newest first.
	ListByUser(ctx context.Context, userID string) ([]*entities.ContentDraft, error)
}

// UsageTracker records metered consumption, e.g. voice seconds transcribed.
type UsageTracker interface {
	Track(ctx context.Context, userID, metric string, amount float64) error
}

// ApprovalRequest asks the owner to approve a draft via SMS.
type ApprovalRequest struct {
	UserID      string `json:"user_id"`
	Destination string `json:"destination"` // E.164 phone number
	Platform    string `json:"platform"`
	Caption     string `json:"caption"`
	DraftID     string `json:"draft_id"`
}

// ApprovalDispatcher delivers an approval request and returns a tracking id.
type ApprovalDispatcher interface {
	Send(ctx context.Context, req ApprovalRequest) (string, error)
}
