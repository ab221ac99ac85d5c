package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// liveDB connects to MONGO_URI and hands out a throwaway database.
func liveDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("friendship_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestRecommendLive(t *testing.T) {
	db := liveDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	me, f1, f2 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	both, low, high, loner := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	_, err := db.Collection(usersCollection).InsertMany(ctx, []interface{}{
		bson.M{"_id": me, "username": "me", "friends": bson.A{f1, f2}},
		bson.M{"_id": f1, "username": "f1", "friends": bson.A{me, both, low}},
		bson.M{"_id": f2, "username": "f2", "friends": bson.A{me, both, high}},
		bson.M{"_id": both, "username": "both", "friends": bson.A{f1, f2}},
		bson.M{"_id": high, "username": "high", "friends": bson.A{f2}},
		bson.M{"_id": low, "username": "low", "friends": bson.A{f1}},
		// No friends field at all.
		bson.M{"_id": loner, "username": "loner"},
	})
	require.NoError(t, err)

	recs, err := repo.Recommend(ctx, me, []primitive.ObjectID{f1, f2}, 10)
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, both, recs[0].ID)
	assert.Equal(t, 2, recs[0].MutualFriendsCount)

	// Equal counts fall back to ascending _id.
	assert.Equal(t, low, recs[1].ID)
	assert.Equal(t, high, recs[2].ID)
	assert.Equal(t, 1, recs[1].MutualFriendsCount)
	assert.Equal(t, 1, recs[2].MutualFriendsCount)

	assert.Equal(t, loner, recs[3].ID)
	assert.Equal(t, 0, recs[3].MutualFriendsCount)

	recs, err = repo.Recommend(ctx, me, []primitive.ObjectID{f1, f2}, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecommendLiveWithoutFriends(t *testing.T) {
	db := liveDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	_, err := db.Collection(usersCollection).InsertMany(ctx, []interface{}{
		bson.M{"_id": me, "username": "me"},
		bson.M{"_id": other, "username": "other", "friends": bson.A{}},
	})
	require.NoError(t, err)

	recs, err := repo.Recommend(ctx, me, nil, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, other, recs[0].ID)
	assert.Equal(t, 0, recs[0].MutualFriendsCount)
}
