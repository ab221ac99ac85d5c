package services

import (
	"context"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the persistence the user and friend services need.
// *repository.UserRepository implements it.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateLastActive(ctx context.Context, id primitive.ObjectID) error

	PushFriendRequest(ctx context.Context, receiverID primitive.ObjectID, req *models.FriendRequest) error
	SetFriendRequestStatus(ctx context.Context, receiverID, requestID primitive.ObjectID, status models.FriendRequestStatus) error
	ReopenFriendRequest(ctx context.Context, receiverID, requestID primitive.ObjectID) error
	AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	Recommend(ctx context.Context, userID primitive.ObjectID, friendIDs []primitive.ObjectID, limit int) ([]models.Recommendation, error)
	UsersWithStalePendingRequests(ctx context.Context, cutoff time.Time) ([]models.User, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, userID, id primitive.ObjectID) error
	GetLatestNotificationByType(ctx context.Context, userID primitive.ObjectID, notifType string) (*models.Notification, error)
	DeleteExpiredNotifications(ctx context.Context) (int64, error)
}

type ActivityStore interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
	GetUserActivities(ctx context.Context, userID primitive.ObjectID, activityType string, limit int) ([]models.Activity, error)
}

// RecommendationCache keeps ranked recommendations per user. Set only writes
// when the version read before computing recs is still current.
type RecommendationCache interface {
	Get(ctx context.Context, userID primitive.ObjectID) ([]models.Recommendation, bool, error)
	Version(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Set(ctx context.Context, userID primitive.ObjectID, version int64, recs []models.Recommendation) (bool, error)
	Invalidate(ctx context.Context, userIDs ...primitive.ObjectID) error
}

// Mailer delivers plain text email.
type Mailer interface {
	Enabled() bool
	SendEmail(to, subject, body string) error
}
