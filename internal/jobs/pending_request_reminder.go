package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/Dias221467/Friendship_Manager/internal/services"
	"github.com/sirupsen/logrus"
)

// PendingRequestReminder nudges users who have left friend requests unanswered.
type PendingRequestReminder struct {
	Users               services.UserStore
	NotificationService *services.NotificationService
	// MinAge is how long a request must wait before it triggers a reminder.
	MinAge time.Duration
	// Window is the minimum gap between two reminders to the same user.
	Window time.Duration
}

// NewPendingRequestReminder creates a reminder job with a 3-day age and a daily window.
func NewPendingRequestReminder(users services.UserStore, notifService *services.NotificationService) *PendingRequestReminder {
	return &PendingRequestReminder{
		Users:               users,
		NotificationService: notifService,
		MinAge:              3 * 24 * time.Hour,
		Window:              24 * time.Hour,
	}
}

// Run scans for stale pending requests and returns the number of reminders sent.
func (p *PendingRequestReminder) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-p.MinAge)
	users, err := p.Users.UsersWithStalePendingRequests(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	sent := 0
	for _, user := range users {
		count := 0
		for _, req := range user.FriendRequests {
			if req.Status == models.StatusPending {
				count++
			}
		}
		if count == 0 {
			continue
		}

		message := "You have 1 friend request waiting for an answer."
		if count > 1 {
			message = fmt.Sprintf("You have %d friend requests waiting for an answer.", count)
		}
		ok, err := p.NotificationService.RemindIfDue(ctx, user.ID, models.NotifPendingReminder,
			"Pending friend requests", message, p.Window)
		if err != nil {
			logrus.WithError(err).Warnf("Failed to remind user %s", user.ID.Hex())
			continue
		}
		if ok {
			sent++
		}
	}

	logrus.WithField("reminders", sent).Info("Pending request scan completed")
	return sent, nil
}
