package scheduler

import (
	"context"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/jobs"
	"github.com/Dias221467/Friendship_Manager/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

// Start registers the background jobs and starts the scheduler. Stop the
// returned cron on shutdown.
func Start(notificationService *services.NotificationService, reminder *jobs.PendingRequestReminder) (*cron.Cron, error) {
	c := cron.New()

	// Expired notification cleanup
	if _, err := c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := notificationService.DeleteExpiredNotifications(ctx); err != nil {
			logrus.WithError(err).Error("DeleteExpiredNotifications failed")
		}
	}); err != nil {
		return nil, err
	}

	// Pending friend request reminders
	if _, err := c.AddFunc("0 9 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := reminder.Run(ctx); err != nil {
			logrus.WithError(err).Error("Pending request reminder failed")
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
