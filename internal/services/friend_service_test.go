package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/Dias221467/Friendship_Manager/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type friendFixture struct {
	users  *testutil.Users
	notifs *testutil.Notifications
	acts   *testutil.Activities
	cache  *testutil.Cache
	mailer *testutil.Mailer
	svc    *FriendService
}

func newFriendFixture() *friendFixture {
	f := &friendFixture{
		users:  testutil.NewUsers(),
		notifs: &testutil.Notifications{},
		acts:   &testutil.Activities{},
		cache:  testutil.NewCache(),
		mailer: &testutil.Mailer{},
	}
	f.svc = NewFriendService(f.users, NewNotificationService(f.notifs), NewActivityService(f.acts), f.cache, f.mailer)
	return f
}

func TestSendFriendRequest(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	alice, bob := f.users.Add("alice"), f.users.Add("bob")

	req, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, req.From)
	assert.Equal(t, models.StatusPending, req.Status)

	stored := f.users.Get(bob.ID).PendingRequestFrom(alice.ID)
	require.NotNil(t, stored)
	assert.Equal(t, req.ID, stored.ID)

	assert.Equal(t, 1, f.notifs.OfType(bob.ID, models.NotifRequestReceived))
	assert.Equal(t, []string{"bob@example.com"}, f.mailer.Sent)
	require.Len(t, f.acts.Items, 1)
	assert.Equal(t, models.ActivityRequestSent, f.acts.Items[0].Type)
}

func TestSendFriendRequestRules(t *testing.T) {
	ctx := context.Background()

	t.Run("self", func(t *testing.T) {
		f := newFriendFixture()
		alice := f.users.Add("alice")
		_, err := f.svc.SendFriendRequest(ctx, alice.ID, alice.ID)
		assert.ErrorIs(t, err, ErrSelfRequest)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newFriendFixture()
		alice := f.users.Add("alice")
		_, err := f.svc.SendFriendRequest(ctx, alice.ID, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newFriendFixture()
		alice, bob := f.users.Add("alice"), f.users.Add("bob")
		_, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
		assert.ErrorIs(t, err, ErrRequestExists)
		assert.Len(t, f.users.Get(bob.ID).FriendRequests, 1)
	})

	t.Run("already friends", func(t *testing.T) {
		f := newFriendFixture()
		alice, bob := f.users.Add("alice"), f.users.Add("bob")
		f.users.Befriend(alice, bob)
		_, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
		assert.ErrorIs(t, err, ErrAlreadyFriends)
	})

	t.Run("reverse pending", func(t *testing.T) {
		f := newFriendFixture()
		alice, bob := f.users.Add("alice"), f.users.Add("bob")
		_, err := f.svc.SendFriendRequest(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		_, err = f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
		assert.ErrorIs(t, err, ErrReverseRequestPending)
	})

	t.Run("resend after rejection", func(t *testing.T) {
		f := newFriendFixture()
		alice, bob := f.users.Add("alice"), f.users.Add("bob")
		first, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = f.svc.RespondToRequest(ctx, bob.ID, first.ID, models.StatusRejected)
		require.NoError(t, err)

		second, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		requests := f.users.Get(bob.ID).FriendRequests
		require.Len(t, requests, 1)
		assert.Equal(t, second.ID, requests[0].ID)
	})
}

func TestRespondToRequestAccept(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	alice, bob := f.users.Add("alice"), f.users.Add("bob")
	f.cache.Entries[alice.ID] = []models.Recommendation{{ID: bob.ID}}

	req, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	answered, err := f.svc.RespondToRequest(ctx, bob.ID, req.ID, models.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, answered.Status)

	assert.True(t, f.users.Get(alice.ID).IsFriend(bob.ID))
	assert.True(t, f.users.Get(bob.ID).IsFriend(alice.ID))
	assert.Equal(t, models.StatusAccepted, f.users.Get(bob.ID).FindRequest(req.ID).Status)
	assert.Equal(t, 1, f.notifs.OfType(alice.ID, models.NotifRequestAccepted))
	assert.ElementsMatch(t, []primitive.ObjectID{alice.ID, bob.ID}, f.cache.Invalidated)

	_, err = f.svc.RespondToRequest(ctx, bob.ID, req.ID, models.StatusRejected)
	assert.ErrorIs(t, err, ErrRequestNotPending)
}

func TestRespondToRequestReject(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	alice, bob := f.users.Add("alice"), f.users.Add("bob")

	req, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.svc.RespondToRequest(ctx, bob.ID, req.ID, models.StatusRejected)
	require.NoError(t, err)
	assert.False(t, f.users.Get(alice.ID).IsFriend(bob.ID))
	assert.False(t, f.users.Get(bob.ID).IsFriend(alice.ID))
	assert.Equal(t, 0, f.notifs.OfType(alice.ID, models.NotifRequestAccepted))
}

func TestRespondToRequestErrors(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	alice, bob, carol := f.users.Add("alice"), f.users.Add("bob"), f.users.Add("carol")

	req, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.svc.RespondToRequest(ctx, bob.ID, req.ID, models.StatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.RespondToRequest(ctx, bob.ID, primitive.NewObjectID(), models.StatusAccepted)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	// Only the receiver holds the request.
	_, err = f.svc.RespondToRequest(ctx, carol.ID, req.ID, models.StatusAccepted)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	f.users.Delete(alice.ID)
	_, err = f.svc.RespondToRequest(ctx, bob.ID, req.ID, models.StatusAccepted)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, models.StatusPending, f.users.Get(bob.ID).FindRequest(req.ID).Status)
}

func TestRespondToRequestAddFriendFailure(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	alice, bob := f.users.Add("alice"), f.users.Add("bob")

	req, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	f.users.FailAddFriend = errors.New("write conflict")
	_, err = f.svc.RespondToRequest(ctx, bob.ID, req.ID, models.StatusAccepted)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRequestNotPending)

	// The request is pending again, so the receiver can retry.
	assert.Equal(t, models.StatusPending, f.users.Get(bob.ID).FindRequest(req.ID).Status)
	assert.Empty(t, f.cache.Invalidated)

	f.users.FailAddFriend = nil
	answered, err := f.svc.RespondToRequest(ctx, bob.ID, req.ID, models.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, answered.Status)
	assert.True(t, f.users.Get(alice.ID).IsFriend(bob.ID))
	assert.True(t, f.users.Get(bob.ID).IsFriend(alice.ID))
}

func TestUnfriend(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	alice, bob := f.users.Add("alice"), f.users.Add("bob")
	f.users.Befriend(alice, bob)

	require.NoError(t, f.svc.Unfriend(ctx, alice.ID, bob.ID))
	assert.False(t, f.users.Get(alice.ID).IsFriend(bob.ID))
	assert.False(t, f.users.Get(bob.ID).IsFriend(alice.ID))

	// Idempotent.
	require.NoError(t, f.svc.Unfriend(ctx, alice.ID, bob.ID))

	assert.ErrorIs(t, f.svc.Unfriend(ctx, alice.ID, alice.ID), ErrSelfRequest)
	assert.ErrorIs(t, f.svc.Unfriend(ctx, alice.ID, primitive.NewObjectID()), ErrUserNotFound)
}

func TestGetRecommendations(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	me := f.users.Add("me")
	a, b := f.users.Add("a"), f.users.Add("b")
	x, y, z := f.users.Add("x"), f.users.Add("y"), f.users.Add("z")
	f.users.Befriend(me, a)
	f.users.Befriend(me, b)
	f.users.Befriend(a, x)
	f.users.Befriend(b, x)
	f.users.Befriend(a, y)
	_ = z

	recs, err := f.svc.GetRecommendations(ctx, me.ID, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, x.ID, recs[0].ID)
	assert.Equal(t, 2, recs[0].MutualFriendsCount)
	assert.Equal(t, y.ID, recs[1].ID)
	assert.Equal(t, 1, recs[1].MutualFriendsCount)
	assert.Equal(t, z.ID, recs[2].ID)
	assert.Equal(t, 0, recs[2].MutualFriendsCount)

	for _, r := range recs {
		assert.NotEqual(t, me.ID, r.ID)
		assert.NotEqual(t, a.ID, r.ID)
		assert.NotEqual(t, b.ID, r.ID)
	}

	// Second call is served from the cache and honours the limit.
	recs, err = f.svc.GetRecommendations(ctx, me.ID, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, x.ID, recs[0].ID)
	assert.Equal(t, 1, f.users.RecommendCalls)
}

func TestGetRecommendationsNotCachedAcrossInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	me, other := f.users.Add("me"), f.users.Add("other")

	// A friendship change lands while the ranking is being computed.
	f.users.OnRecommend = func() {
		f.users.OnRecommend = nil
		require.NoError(t, f.cache.Invalidate(ctx, me.ID))
	}

	recs, err := f.svc.GetRecommendations(ctx, me.ID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, other.ID, recs[0].ID)
	assert.NotContains(t, f.cache.Entries, me.ID)

	// The next read fills the cache normally.
	_, err = f.svc.GetRecommendations(ctx, me.ID, 10)
	require.NoError(t, err)
	assert.Contains(t, f.cache.Entries, me.ID)
	assert.Equal(t, 2, f.users.RecommendCalls)
}

func TestGetRecommendationsCacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	me := f.users.Add("me")
	f.users.Add("other")
	f.cache.FailGet = true

	recs, err := f.svc.GetRecommendations(ctx, me.ID, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestGetRecommendationsWithoutCache(t *testing.T) {
	ctx := context.Background()
	users := testutil.NewUsers()
	me := users.Add("me")
	svc := NewFriendService(users, nil, nil, nil, nil)

	recs, err := svc.GetRecommendations(ctx, me.ID, 500)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	_, err = svc.GetRecommendations(ctx, primitive.NewObjectID(), 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetPendingRequestsAndFriends(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	alice, bob, carol := f.users.Add("alice"), f.users.Add("bob"), f.users.Add("carol")

	_, err := f.svc.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	req, err := f.svc.SendFriendRequest(ctx, carol.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.svc.RespondToRequest(ctx, bob.ID, req.ID, models.StatusAccepted)
	require.NoError(t, err)

	pending, err := f.svc.GetPendingRequests(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "alice", pending[0].From.Username)

	friends, err := f.svc.GetFriends(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, carol.ID, friends[0].ID)

	none, err := f.svc.GetFriends(ctx, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGetMutualFriends(t *testing.T) {
	ctx := context.Background()
	f := newFriendFixture()
	alice, bob := f.users.Add("alice"), f.users.Add("bob")
	c, d := f.users.Add("c"), f.users.Add("d")
	f.users.Befriend(alice, c)
	f.users.Befriend(bob, c)
	f.users.Befriend(alice, d)

	mutual, err := f.svc.GetMutualFriends(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, mutual, 1)
	assert.Equal(t, c.ID, mutual[0].ID)
}

func TestMutualFriends(t *testing.T) {
	a, b, c, d := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	assert.Equal(t, []primitive.ObjectID{b, c}, MutualFriends([]primitive.ObjectID{a, b, c}, []primitive.ObjectID{c, d, b}))
	assert.Empty(t, MutualFriends(nil, []primitive.ObjectID{a}))
	assert.Equal(t, []primitive.ObjectID{a}, MutualFriends([]primitive.ObjectID{a, a}, []primitive.ObjectID{a}))
}
