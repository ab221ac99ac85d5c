package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateRequest means the receiver already holds a pending request from the sender.
	ErrDuplicateRequest = errors.New("pending friend request already exists")
	// ErrRequestNotPending means the request was answered before this update landed.
	ErrRequestNotPending = errors.New("friend request is not pending")
	// ErrEmailTaken is returned on a unique index violation for email.
	ErrEmailTaken = errors.New("email already in use")
)

const usersCollection = "users"

// UserRepository handles database operations related to users and their friend graph.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the indexes the friend queries rely on.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "friend_requests._id", Value: 1}}},
		{Keys: bson.D{{Key: "friends", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	// Nil slices are stored as null, which $addToSet and $push reject.
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	if user.FriendRequests == nil {
		user.FriendRequests = []models.FriendRequest{}
	}

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logrus.Error("Failed to cast inserted ID to ObjectID")
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// GetUsersByIDs fetches user details for a list of ObjectIDs.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	opts := options.Find().SetProjection(bson.M{"friend_requests": 0, "hashed_password": 0})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users by IDs: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// UpdateLastActive stamps the user's last_active_at with the current time.
func (r *UserRepository) UpdateLastActive(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_active_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}
	return nil
}

// PushFriendRequest appends req to the receiver's requests. Answered requests from
// the same sender are dropped first; the push only matches when no pending request
// from that sender is present.
func (r *UserRepository) PushFriendRequest(ctx context.Context, receiverID primitive.ObjectID, req *models.FriendRequest) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": receiverID},
		bson.M{"$pull": bson.M{"friend_requests": bson.M{
			"from":   req.From,
			"status": bson.M{"$ne": models.StatusPending},
		}}},
	)
	if err != nil {
		return fmt.Errorf("failed to clear answered requests: %w", err)
	}

	filter := bson.M{
		"_id": receiverID,
		"friend_requests": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"from":   req.From,
			"status": models.StatusPending,
		}}},
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$push": bson.M{"friend_requests": req},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to push friend request: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrDuplicateRequest
	}

	logrus.WithFields(logrus.Fields{
		"from": req.From.Hex(),
		"to":   receiverID.Hex(),
	}).Info("Friend request stored")
	return nil
}

// SetFriendRequestStatus moves a pending request on the receiver's document to status.
func (r *UserRepository) SetFriendRequestStatus(ctx context.Context, receiverID, requestID primitive.ObjectID, status models.FriendRequestStatus) error {
	now := time.Now()
	filter := bson.M{
		"_id": receiverID,
		"friend_requests": bson.M{"$elemMatch": bson.M{
			"_id":    requestID,
			"status": models.StatusPending,
		}},
	}
	update := bson.M{"$set": bson.M{
		"friend_requests.$.status":     status,
		"friend_requests.$.updated_at": now,
		"updated_at":                   now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrRequestNotPending
	}
	return nil
}

// ReopenFriendRequest moves an accepted request back to pending. It undoes an
// accept whose friend-list update failed.
func (r *UserRepository) ReopenFriendRequest(ctx context.Context, receiverID, requestID primitive.ObjectID) error {
	now := time.Now()
	filter := bson.M{
		"_id": receiverID,
		"friend_requests": bson.M{"$elemMatch": bson.M{
			"_id":    requestID,
			"status": models.StatusAccepted,
		}},
	}
	update := bson.M{"$set": bson.M{
		"friend_requests.$.status":     models.StatusPending,
		"friend_requests.$.updated_at": now,
		"updated_at":                   now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reopen request: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFriend adds each user to the other's friend list.
func (r *UserRepository) AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	if err := r.updateFriends(ctx, userID, friendID, "$addToSet"); err != nil {
		return fmt.Errorf("failed to add friend: %w", err)
	}
	return nil
}

// RemoveFriend removes each user from the other's friend list.
func (r *UserRepository) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	if err := r.updateFriends(ctx, userID, friendID, "$pull"); err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	return nil
}

func (r *UserRepository) updateFriends(ctx context.Context, a, b primitive.ObjectID, op string) error {
	now := time.Now()
	writes := []mongo.WriteModel{
		mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": a}).
			SetUpdate(bson.M{op: bson.M{"friends": b}, "$set": bson.M{"updated_at": now}}),
		mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": b}).
			SetUpdate(bson.M{op: bson.M{"friends": a}, "$set": bson.M{"updated_at": now}}),
	}
	_, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	return err
}

// Recommend returns users outside the friend list ranked by how many of friendIDs
// also count them as a friend.
func (r *UserRepository) Recommend(ctx context.Context, userID primitive.ObjectID, friendIDs []primitive.ObjectID, limit int) ([]models.Recommendation, error) {
	cursor, err := r.collection.Aggregate(ctx, recommendationPipeline(userID, friendIDs, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to run recommendation pipeline: %w", err)
	}
	defer cursor.Close(ctx)

	recs := []models.Recommendation{}
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations: %w", err)
	}
	return recs, nil
}

func recommendationPipeline(userID primitive.ObjectID, friendIDs []primitive.ObjectID, limit int) mongo.Pipeline {
	// A nil slice would encode as null and break $nin/$in.
	friends := make([]primitive.ObjectID, len(friendIDs))
	copy(friends, friendIDs)
	exclude := append(append([]primitive.ObjectID{}, friends...), userID)

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$nin": exclude}}}},
		{{Key: "$lookup", Value: bson.M{
			"from": usersCollection,
			"let":  bson.M{"candidate": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$in": bson.A{"$_id", friends}},
					bson.M{"$in": bson.A{"$$candidate", bson.M{"$ifNull": bson.A{"$friends", bson.A{}}}}},
				}}}},
				bson.M{"$project": bson.M{"_id": 1}},
			},
			"as": "mutual_friends",
		}}},
		{{Key: "$addFields", Value: bson.M{"mutual_friends_count": bson.M{"$size": "$mutual_friends"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "mutual_friends_count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$project", Value: bson.M{"_id": 1, "username": 1, "email": 1, "mutual_friends_count": 1}}},
	}
}

// UsersWithStalePendingRequests returns users holding a pending request created before cutoff.
func (r *UserRepository) UsersWithStalePendingRequests(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	filter := bson.M{"friend_requests": bson.M{"$elemMatch": bson.M{
		"status":     models.StatusPending,
		"created_at": bson.M{"$lte": cutoff},
	}}}
	opts := options.Find().SetProjection(bson.M{"hashed_password": 0})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users with pending requests: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
