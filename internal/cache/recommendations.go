package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	recommendationPrefix = "friends:recommendations:"
	versionPrefix        = "friends:recommendations-version:"

	// versionTTL only needs to outlive any in-flight fill.
	versionTTL = 24 * time.Hour
)

// RecommendationCache stores each user's ranked recommendations as JSON with a TTL.
// Every invalidation bumps a per-user version; fills computed against an older
// version are dropped.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{client: client, ttl: ttl}
}

func recommendationKey(userID primitive.ObjectID) string {
	return recommendationPrefix + userID.Hex()
}

func versionKey(userID primitive.ObjectID) string {
	return versionPrefix + userID.Hex()
}

// Get returns (recs, true, nil) on a hit and (nil, false, nil) on a miss.
func (c *RecommendationCache) Get(ctx context.Context, userID primitive.ObjectID) ([]models.Recommendation, bool, error) {
	raw, err := c.client.Get(ctx, recommendationKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read recommendations: %w", err)
	}

	var recs []models.Recommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached recommendations: %w", err)
	}
	return recs, true, nil
}

// Version returns the user's current invalidation counter. Read it before
// loading the data a later Set will store.
func (c *RecommendationCache) Version(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	v, err := readVersion(ctx, c.client, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read recommendation version: %w", err)
	}
	return v, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, cmd getter, userID primitive.ObjectID) (int64, error) {
	v, err := cmd.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set stores recs if the user's version still equals version. It reports
// whether the entry was written.
func (c *RecommendationCache) Set(ctx context.Context, userID primitive.ObjectID, version int64, recs []models.Recommendation) (bool, error) {
	raw, err := json.Marshal(recs)
	if err != nil {
		return false, fmt.Errorf("failed to encode recommendations: %w", err)
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recommendationKey(userID), raw, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, versionKey(userID))

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to write recommendations: %w", err)
	}
	return stored, nil
}

// Invalidate drops the cached entries of every given user and bumps their versions.
func (c *RecommendationCache) Invalidate(ctx context.Context, userIDs ...primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Del(ctx, recommendationKey(id))
			pipe.Incr(ctx, versionKey(id))
			pipe.Expire(ctx, versionKey(id), versionTTL)
		}
		return nil
	})
	return err
}
