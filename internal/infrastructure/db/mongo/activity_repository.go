package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/emphasys/identity/internal/core/domain"
	"github.com/emphasys/identity/internal/core/ports"
)

const activityCollection = "account_activity"

// ActivityRepository persists the account audit trail to MongoDB.
type ActivityRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ ports.ActivitySink = (*ActivityRepository)(nil)

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{coll: db.Collection(activityCollection), now: time.Now}
}

// EnsureIndexes creates the lookup indexes used by audit queries.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("activity indexes: %w", err)
	}
	return nil
}

// Record inserts one event into the account_activity collection.
func (r *ActivityRepository) Record(ctx context.Context, e domain.ActivityEvent) error {
	_, err := r.coll.InsertOne(ctx, activityDocument(e, r.now()))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func activityDocument(e domain.ActivityEvent, recordedAt time.Time) bson.M {
	doc := bson.M{
		"type":        string(e.Type),
		"subject_id":  e.SubjectID,
		"occurred_at": e.OccurredAt.UTC(),
		"recorded_at": recordedAt.UTC(),
	}
	if e.ActorID != nil {
		doc["actor_id"] = *e.ActorID
	}
	if e.Email != "" {
		doc["email"] = e.Email
	}
	if len(e.Detail) > 0 {
		doc["detail"] = e.Detail
	}
	return doc
}
