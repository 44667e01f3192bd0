package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/domain/repositories"
)

const (
	draftsCollection = "content_drafts"
	usageCollection  = "usage"
)

// ContentRepository persists content drafts and usage counters in MongoDB.
type ContentRepository struct {
	drafts *mongo.Collection
	usage  *mongo.Collection
	logger *zap.Logger
}

// Ensure ContentRepository implements the store and tracker interfaces
var (
	_ repositories.ContentStore = (*ContentRepository)(nil)
	_ repositories.UsageTracker = (*ContentRepository)(nil)
)

// NewContentRepository creates a content repository on the given client.
func NewContentRepository(client *Client, logger *zap.Logger) *ContentRepository {
	return &ContentRepository{
		drafts: client.Database.Collection(draftsCollection),
		usage:  client.Database.Collection(usageCollection),
		logger: logger,
	}
}

// Save stores a draft and returns its storage id.
func (r *ContentRepository) Save(ctx context.Context, draft *entities.ContentDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", fmt.Errorf("invalid draft: %w", err)
	}
	draft.UpdatedAt = time.Now()

	result, err := r.drafts.InsertOne(ctx, draft)
	if err != nil {
		return "", fmt.Errorf("failed to insert draft: %w", err)
	}

	r.logger.Info("Draft saved",
		zap.String("draft_id", draft.DraftID),
		zap.String("platform", draft.Platform),
		zap.String("user_id", draft.UserID))

	return fmt.Sprintf("%v", result.InsertedID), nil
}

// ListByUser returns a user's drafts, newest first.
func (r *ContentRepository) ListByUser(ctx context.Context, userID string) ([]*entities.ContentDraft, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.drafts.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find drafts: %w", err)
	}
	defer cursor.Close(ctx)

	var drafts []*entities.ContentDraft
	if err := cursor.All(ctx, &drafts); err != nil {
		return nil, fmt.Errorf("failed to decode drafts: %w", err)
	}
	return drafts, nil
}

// Track increments a usage counter for the user and current month.
func (r *ContentRepository) Track(ctx context.Context, userID, metric string, amount float64) error {
	period := time.Now().Format("2006-01")
	filter := bson.M{"user_id": userID, "metric": metric, "period": period}
	update := bson.M{
		"$inc": bson.M{"amount": amount},
		"$set": bson.M{"updated_at": time.Now()},
	}

	_, err := r.usage.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to track usage: %w", err)
	}

	r.logger.Debug("Usage tracked",
		zap.String("user_id", userID),
		zap.String("metric", metric),
		zap.Float64("amount", amount))
	return nil
}
