package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/Dias221467/Friendship_Manager/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	repo NotificationStore
}

func NewNotificationService(repo NotificationStore) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotification stores a new unread notification for a user
func (s *NotificationService) CreateNotification(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) error {
	notif := &models.Notification{
		UserID:   userID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Read:     false,
		TargetID: targetID,
	}
	return s.repo.CreateNotification(ctx, notif)
}

// GetUserNotifications returns all live notifications for a user
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	return s.repo.GetUserNotifications(ctx, userID)
}

// MarkNotificationAsRead marks one of the user's notifications as read
func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, userID, notifID primitive.ObjectID) error {
	err := s.repo.MarkAsRead(ctx, userID, notifID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) error {
	_, err := s.repo.DeleteExpiredNotifications(ctx)
	return err
}

// RemindIfDue sends a notification of notifType unless one was sent within window.
// It reports whether a notification was created.
func (s *NotificationService) RemindIfDue(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, window time.Duration) (bool, error) {
	existing, err := s.repo.GetLatestNotificationByType(ctx, userID, notifType)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to look up previous reminder: %w", err)
	}
	if existing != nil && time.Since(existing.CreatedAt) < window {
		return false, nil
	}

	if err := s.CreateNotification(ctx, userID, notifType, title, message, nil); err != nil {
		logrus.WithError(err).Warnf("Failed to send %s to user %s", notifType, userID.Hex())
		return false, err
	}
	return true, nil
}
