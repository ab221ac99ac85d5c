package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/metrics"
	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/Dias221467/Friendship_Manager/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultRecommendations = 10
	MaxRecommendations     = 50
)

// FriendService handles business logic for friend requests and friendships.
type FriendService struct {
	users      UserStore
	notifier   *NotificationService
	activities *ActivityService
	cache      RecommendationCache
	mailer     Mailer
}

// NewFriendService creates a new FriendService. notifier, activities, cache and
// mailer may be nil.
func NewFriendService(users UserStore, notifier *NotificationService, activities *ActivityService, cache RecommendationCache, mailer Mailer) *FriendService {
	return &FriendService{
		users:      users,
		notifier:   notifier,
		activities: activities,
		cache:      cache,
		mailer:     mailer,
	}
}

func (s *FriendService) getUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id.Hex(), err)
	}
	return user, nil
}

// SendFriendRequest files a pending request from sender on the target's document.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, targetID primitive.ObjectID) (*models.FriendRequest, error) {
	if senderID == targetID {
		return nil, ErrSelfRequest
	}

	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsFriend(senderID) {
		return nil, ErrAlreadyFriends
	}
	if target.PendingRequestFrom(senderID) != nil {
		return nil, ErrRequestExists
	}

	sender, err := s.getUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender.PendingRequestFrom(targetID) != nil {
		return nil, ErrReverseRequestPending
	}

	now := time.Now()
	request := &models.FriendRequest{
		ID:        primitive.NewObjectID(),
		From:      senderID,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.PushFriendRequest(ctx, targetID, request); err != nil {
		if errors.Is(err, repository.ErrDuplicateRequest) {
			return nil, ErrRequestExists
		}
		return nil, fmt.Errorf("failed to send friend request: %w", err)
	}

	metrics.FriendRequests.WithLabelValues("sent").Inc()
	logrus.WithFields(logrus.Fields{
		"from":      senderID.Hex(),
		"to":        targetID.Hex(),
		"requestID": request.ID.Hex(),
	}).Info("Friend request sent")

	s.logActivity(ctx, senderID, models.ActivityRequestSent, targetID,
		fmt.Sprintf("Sent a friend request to %s", target.Username))
	s.notify(ctx, targetID, models.NotifRequestReceived, "New friend request",
		fmt.Sprintf("%s sent you a friend request", sender.Username), &request.ID)
	s.email(target.Email, "New friend request",
		fmt.Sprintf("%s wants to be your friend. Log in to accept or reject the request.", sender.Username))

	return request, nil
}

// RespondToRequest accepts or rejects a pending request addressed to userID.
func (s *FriendService) RespondToRequest(ctx context.Context, userID, requestID primitive.ObjectID, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	if !status.IsResponse() {
		return nil, ErrInvalidStatus
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	request := user.FindRequest(requestID)
	if request == nil {
		return nil, ErrRequestNotFound
	}
	if request.Status != models.StatusPending {
		return nil, ErrRequestNotPending
	}

	var sender *models.User
	if status == models.StatusAccepted {
		if sender, err = s.getUser(ctx, request.From); err != nil {
			return nil, err
		}
	}

	// The status transition is the atomic step; friend lists follow it.
	if err := s.users.SetFriendRequestStatus(ctx, userID, requestID, status); err != nil {
		if errors.Is(err, repository.ErrRequestNotPending) {
			return nil, ErrRequestNotPending
		}
		return nil, fmt.Errorf("failed to update request: %w", err)
	}
	request.Status = status
	request.UpdatedAt = time.Now()

	fields := logrus.Fields{"userID": userID.Hex(), "requestID": requestID.Hex(), "status": status}

	if status == models.StatusRejected {
		metrics.FriendRequests.WithLabelValues("rejected").Inc()
		logrus.WithFields(fields).Info("Friend request rejected")
		s.logActivity(ctx, userID, models.ActivityRequestRejected, request.From, "Rejected a friend request")
		return request, nil
	}

	if err := s.users.AddFriend(ctx, userID, request.From); err != nil {
		// Put the request back to pending so accepting again can repair a half-applied write.
		if reopenErr := s.users.ReopenFriendRequest(ctx, userID, requestID); reopenErr != nil {
			logrus.WithFields(fields).WithError(reopenErr).Error("Request accepted but friend lists were not updated and the request could not be reopened")
		} else {
			logrus.WithFields(fields).WithError(err).Warn("Friend lists were not updated; request reopened")
		}
		return nil, fmt.Errorf("failed to add friend: %w", err)
	}

	metrics.FriendRequests.WithLabelValues("accepted").Inc()
	logrus.WithFields(fields).Info("Friend request accepted")

	s.invalidate(ctx, userID, request.From)
	s.logActivity(ctx, userID, models.ActivityRequestAccepted, request.From,
		fmt.Sprintf("You are now friends with %s", sender.Username))
	s.notify(ctx, request.From, models.NotifRequestAccepted, "Friend request accepted",
		fmt.Sprintf("%s accepted your friend request", user.Username), &userID)

	return request, nil
}

// GetRecommendations ranks non-friends by the number of mutual friends.
func (s *FriendService) GetRecommendations(ctx context.Context, userID primitive.ObjectID, limit int) ([]models.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultRecommendations
	}
	if limit > MaxRecommendations {
		limit = MaxRecommendations
	}

	if s.cache != nil {
		recs, ok, err := s.cache.Get(ctx, userID)
		switch {
		case err != nil:
			metrics.RecommendationCache.WithLabelValues("error").Inc()
			logrus.WithError(err).Warn("Recommendation cache read failed")
		case ok:
			metrics.RecommendationCache.WithLabelValues("hit").Inc()
			return truncate(recs, limit), nil
		default:
			metrics.RecommendationCache.WithLabelValues("miss").Inc()
		}
	}

	// Taken before the friend list is read so a concurrent invalidation wins.
	var version int64
	cacheable := s.cache != nil
	if cacheable {
		v, err := s.cache.Version(ctx, userID)
		if err != nil {
			logrus.WithError(err).Warn("Recommendation cache version read failed")
			cacheable = false
		} else {
			version = v
		}
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Always rank the full window so one cache entry serves every limit.
	recs, err := s.users.Recommend(ctx, user.ID, user.Friends, MaxRecommendations)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}

	if cacheable {
		stored, err := s.cache.Set(ctx, userID, version, recs)
		switch {
		case err != nil:
			logrus.WithError(err).Warn("Recommendation cache write failed")
		case !stored:
			logrus.WithField("userID", userID.Hex()).Debug("Skipped caching recommendations computed before an invalidation")
		}
	}
	return truncate(recs, limit), nil
}

func truncate(recs []models.Recommendation, limit int) []models.Recommendation {
	if recs == nil {
		return []models.Recommendation{}
	}
	if len(recs) > limit {
		return recs[:limit]
	}
	return recs
}

// Unfriend removes the friendship in both directions. Removing a non-friend is a no-op.
func (s *FriendService) Unfriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	if userID == friendID {
		return ErrSelfRequest
	}
	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}
	friend, err := s.getUser(ctx, friendID)
	if err != nil {
		return err
	}

	if err := s.users.RemoveFriend(ctx, userID, friendID); err != nil {
		return fmt.Errorf("failed to unfriend: %w", err)
	}

	metrics.Unfriends.Inc()
	logrus.WithFields(logrus.Fields{
		"userID":   userID.Hex(),
		"friendID": friendID.Hex(),
	}).Info("Friend removed")

	s.invalidate(ctx, userID, friendID)
	s.logActivity(ctx, userID, models.ActivityFriendRemoved, friendID,
		fmt.Sprintf("Removed %s from friends", friend.Username))
	return nil
}

// GetFriends returns the public profiles of the user's friends.
func (s *FriendService) GetFriends(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.publicUsers(ctx, user.Friends)
}

// GetPendingRequests lists incoming pending requests with the sender's profile.
func (s *FriendService) GetPendingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.PendingRequest, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var senderIDs []primitive.ObjectID
	for _, req := range user.FriendRequests {
		if req.Status == models.StatusPending {
			senderIDs = append(senderIDs, req.From)
		}
	}
	if len(senderIDs) == 0 {
		return []models.PendingRequest{}, nil
	}

	senders, err := s.users.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load senders: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	pending := make([]models.PendingRequest, 0, len(senderIDs))
	for _, req := range user.FriendRequests {
		if req.Status != models.StatusPending {
			continue
		}
		sender, ok := byID[req.From]
		if !ok {
			// Sender account is gone.
			continue
		}
		pending = append(pending, models.PendingRequest{
			ID:        req.ID,
			From:      sender.Public(),
			CreatedAt: req.CreatedAt,
		})
	}
	return pending, nil
}

// GetMutualFriends returns the friends userID and otherID have in common.
func (s *FriendService) GetMutualFriends(ctx context.Context, userID, otherID primitive.ObjectID) ([]models.PublicUser, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	other, err := s.getUser(ctx, otherID)
	if err != nil {
		return nil, err
	}
	return s.publicUsers(ctx, MutualFriends(user.Friends, other.Friends))
}

func (s *FriendService) publicUsers(ctx context.Context, ids []primitive.ObjectID) ([]models.PublicUser, error) {
	if len(ids) == 0 {
		return []models.PublicUser{}, nil
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	public := make([]models.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	return public, nil
}

// MutualFriends returns the ids present in both lists, in the order of a.
func MutualFriends(a, b []primitive.ObjectID) []primitive.ObjectID {
	inB := make(map[primitive.ObjectID]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	mutual := []primitive.ObjectID{}
	for _, id := range a {
		if _, ok := inB[id]; ok {
			mutual = append(mutual, id)
			delete(inB, id)
		}
	}
	return mutual
}

func (s *FriendService) invalidate(ctx context.Context, ids ...primitive.ObjectID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate recommendation cache")
	}
}

func (s *FriendService) logActivity(ctx context.Context, userID primitive.ObjectID, actionType string, targetID primitive.ObjectID, message string) {
	if s.activities == nil {
		return
	}
	_ = s.activities.LogActivity(ctx, userID, actionType, targetID, message)
}

func (s *FriendService) notify(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CreateNotification(ctx, userID, notifType, title, message, targetID); err != nil {
		logrus.WithError(err).Warnf("Failed to notify user %s", userID.Hex())
	}
}

func (s *FriendService) email(to, subject, body string) {
	if s.mailer == nil || !s.mailer.Enabled() || to == "" {
		return
	}
	if err := s.mailer.SendEmail(to, subject, body); err != nil {
		logrus.WithError(err).Warn("Failed to send friend request email")
	}
}
