package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRetention is how long friend activity is kept before the TTL index drops it.
const ActivityRetention = 90 * 24 * time.Hour

// ActivityRepository stores the per-user friend activity feed.
type ActivityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{
		collection: db.Collection("activities"),
	}
}

// EnsureIndexes creates the feed index and the retention TTL index.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "type", Value: 1}, {Key: "timestamp", Value: -1}}},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ActivityRetention / time.Second)),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create activity indexes: %w", err)
	}
	return nil
}

// CreateActivity records one entry in a user's friend activity feed.
func (r *ActivityRepository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID.IsZero() {
		activity.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, activity); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": activity.UserID.Hex(),
			"type":    activity.Type,
		}).WithError(err).Error("Failed to insert activity")
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// GetUserActivities returns the user's newest entries first, optionally only
// those of activityType.
func (r *ActivityRepository) GetUserActivities(ctx context.Context, userID primitive.ObjectID, activityType string, limit int) ([]models.Activity, error) {
	filter := bson.M{"user_id": userID}
	if activityType != "" {
		filter["type"] = activityType
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}
	return activities, nil
}
