package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

const collectionActivities = "activity_logs"

type activityDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Type      string    `bson:"type"`
	Message   string    `bson:"message"`
	Timestamp time.Time `bson:"timestamp"`
}

func toActivityDoc(a *domain.Activity) activityDoc {
	return activityDoc{
		ID:        a.ID,
		UserID:    a.UserID,
		Type:      string(a.Type),
		Message:   a.Message,
		Timestamp: a.Timestamp.UTC(),
	}
}

func (d activityDoc) toDomain() domain.Activity {
	return domain.Activity{
		ID:        d.ID,
		UserID:    d.UserID,
		Type:      domain.ActivityType(d.Type),
		Message:   d.Message,
		Timestamp: d.Timestamp.UTC(),
	}
}

// ActivityRepository implements ports.ActivityRepository on the activity_logs collection.
type ActivityRepository struct {
	col *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionActivities)}
}

var _ ports.ActivityRepository = (*ActivityRepository)(nil)

// newestFirst breaks timestamp ties by _id. Ids are UUIDv7, so ties fall
// back to insertion order.
var newestFirst = bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}

func (r *ActivityRepository) Insert(ctx context.Context, a *domain.Activity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toActivityDoc(a)); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	return r.find(ctx, bson.M{"user_id": userID}, limit)
}

func (r *ActivityRepository) ListAll(ctx context.Context, limit int) ([]domain.Activity, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *ActivityRepository) find(ctx context.Context, filter bson.M, limit int) ([]domain.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find activities: %w", err)
	}
	defer cur.Close(ctx)

	var docs []activityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}

	out := make([]domain.Activity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *ActivityRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(newestFirst).
		SetProjection(bson.M{"_id": 1})

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find activity ids: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var d struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode activity id: %w", err)
		}
		ids = append(ids, d.ID)
	}
	return ids, cur.Err()
}

func (r *ActivityRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete activities: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the indexes backing the per-user and global feeds.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
