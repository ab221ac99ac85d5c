package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// ActivityService keeps each user's feed of friend actions.
type ActivityService struct {
	repo ActivityStore
}

func NewActivityService(repo ActivityStore) *ActivityService {
	return &ActivityService{repo: repo}
}

// LogActivity records that userID did activityType to targetID.
func (s *ActivityService) LogActivity(ctx context.Context, userID primitive.ObjectID, activityType string, targetID primitive.ObjectID, message string) error {
	if !models.ValidActivityType(activityType) {
		return fmt.Errorf("%w: %q", ErrInvalidActivityType, activityType)
	}

	activity := &models.Activity{
		UserID:    userID,
		Type:      activityType,
		TargetID:  targetID,
		Message:   message,
		Timestamp: time.Now(),
	}
	fields := logrus.Fields{
		"user_id":   userID.Hex(),
		"target_id": targetID.Hex(),
		"type":      activityType,
	}

	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		logrus.WithFields(fields).WithError(err).Error("Failed to log activity")
		return err
	}
	logrus.WithFields(fields).Debug("Activity logged")
	return nil
}

// GetRecentActivities returns the user's feed, newest first. An empty
// activityType returns every type; limits outside (0, 100] use the default.
func (s *ActivityService) GetRecentActivities(ctx context.Context, userID primitive.ObjectID, activityType string, limit int) ([]models.Activity, error) {
	if activityType != "" && !models.ValidActivityType(activityType) {
		return nil, ErrInvalidActivityType
	}
	if limit <= 0 || limit > maxActivityLimit {
		limit = defaultActivityLimit
	}

	activities, err := s.repo.GetUserActivities(ctx, userID, activityType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities: %w", err)
	}
	return activities, nil
}
