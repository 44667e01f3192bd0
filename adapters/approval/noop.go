package approval

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain/repositories"
)

// NoopDispatcher stands in when no SMS provider is configured. Drafts stay in
// pending_approval until acted on elsewhere.
type NoopDispatcher struct {
	logger *zap.Logger
}

var _ repositories.ApprovalDispatcher = (*NoopDispatcher)(nil)

// NewNoopDispatcher creates a dispatcher that only logs.
func NewNoopDispatcher(logger *zap.Logger) *NoopDispatcher {
	return &NoopDispatcher{logger: logger}
}

// Send logs the request and returns a synthetic tracking id.
func (n *NoopDispatcher) Send(_ context.Context, req repositories.ApprovalRequest) (string, error) {
	trackingID := uuid.NewString()
	n.logger.Info("Approval dispatch skipped, no SMS provider configured",
		zap.String("draft_id", req.DraftID),
		zap.String("platform", req.Platform),
		zap.String("tracking_id", trackingID))
	return trackingID, nil
}
