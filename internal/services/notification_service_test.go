package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/Dias221467/Friendship_Manager/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMarkNotificationAsRead(t *testing.T) {
	ctx := context.Background()
	store := &testutil.Notifications{}
	svc := NewNotificationService(store)
	owner, stranger := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, svc.CreateNotification(ctx, owner, models.NotifRequestReceived, "t", "m", nil))
	id := store.Items[0].ID

	assert.ErrorIs(t, svc.MarkNotificationAsRead(ctx, stranger, id), ErrNotificationNotFound)
	require.NoError(t, svc.MarkNotificationAsRead(ctx, owner, id))

	list, err := svc.GetUserNotifications(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)
}

func TestRemindIfDue(t *testing.T) {
	ctx := context.Background()
	store := &testutil.Notifications{}
	svc := NewNotificationService(store)
	user := primitive.NewObjectID()

	sent, err := svc.RemindIfDue(ctx, user, models.NotifPendingReminder, "t", "m", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = svc.RemindIfDue(ctx, user, models.NotifPendingReminder, "t", "m", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, sent)

	store.Items[0].CreatedAt = time.Now().Add(-48 * time.Hour)
	sent, err = svc.RemindIfDue(ctx, user, models.NotifPendingReminder, "t", "m", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 2, store.OfType(user, models.NotifPendingReminder))
}

func TestActivityLimit(t *testing.T) {
	ctx := context.Background()
	store := &testutil.Activities{}
	svc := NewActivityService(store)
	user := primitive.NewObjectID()

	for i := 0; i < 30; i++ {
		require.NoError(t, svc.LogActivity(ctx, user, models.ActivityRequestSent, primitive.NewObjectID(), "x"))
	}

	list, err := svc.GetRecentActivities(ctx, user, "", 0)
	require.NoError(t, err)
	assert.Len(t, list, defaultActivityLimit)

	list, err = svc.GetRecentActivities(ctx, user, "", 5)
	require.NoError(t, err)
	assert.Len(t, list, 5)

	list, err = svc.GetRecentActivities(ctx, user, "", 500)
	require.NoError(t, err)
	assert.Len(t, list, defaultActivityLimit)
}

func TestActivityTypeFilter(t *testing.T) {
	ctx := context.Background()
	store := &testutil.Activities{}
	svc := NewActivityService(store)
	user, friend := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, svc.LogActivity(ctx, user, models.ActivityRequestSent, friend, "sent"))
	require.NoError(t, svc.LogActivity(ctx, user, models.ActivityFriendRemoved, friend, "removed"))
	require.NoError(t, svc.LogActivity(ctx, user, models.ActivityRequestSent, primitive.NewObjectID(), "sent again"))

	list, err := svc.GetRecentActivities(ctx, user, models.ActivityRequestSent, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sent again", list[0].Message)

	list, err = svc.GetRecentActivities(ctx, user, models.ActivityFriendRemoved, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, friend, list[0].TargetID)

	_, err = svc.GetRecentActivities(ctx, user, "goal_completed", 0)
	assert.ErrorIs(t, err, ErrInvalidActivityType)

	err = svc.LogActivity(ctx, user, "goal_completed", friend, "x")
	assert.ErrorIs(t, err, ErrInvalidActivityType)
	assert.Len(t, store.Items, 3)
}
