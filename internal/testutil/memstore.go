// Package testutil provides in-memory stores for service and handler tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/Dias221467/Friendship_Manager/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Users is an in-memory UserStore mirroring the repository's semantics.
type Users struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User

	FailAddFriend  error
	RecommendCalls int
	// OnRecommend runs at the start of Recommend, outside the lock.
	OnRecommend func()
}

func NewUsers() *Users {
	return &Users{users: map[primitive.ObjectID]*models.User{}}
}

func (m *Users) Add(username string) *models.User {
	u := &models.User{
		ID:             primitive.NewObjectID(),
		Username:       username,
		Email:          username + "@example.com",
		Friends:        []primitive.ObjectID{},
		FriendRequests: []models.FriendRequest{},
	}
	m.users[u.ID] = u
	return u
}

func (m *Users) Befriend(a, b *models.User) {
	a.Friends = append(a.Friends, b.ID)
	b.Friends = append(b.Friends, a.ID)
}

// Get returns the stored document, not a copy.
func (m *Users) Get(id primitive.ObjectID) *models.User {
	return m.users[id]
}

// Delete removes a user without touching other documents.
func (m *Users) Delete(id primitive.ObjectID) {
	delete(m.users, id)
}

func (m *Users) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, repository.ErrEmailTaken
		}
	}
	user.ID = primitive.NewObjectID()
	m.users[user.ID] = user
	return user, nil
}

func (m *Users) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.Friends = append([]primitive.ObjectID{}, u.Friends...)
	cp.FriendRequests = append([]models.FriendRequest{}, u.FriendRequests...)
	return &cp, nil
}

func (m *Users) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *Users) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *Users) UpdateLastActive(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.LastActiveAt = time.Now()
	}
	return nil
}

func (m *Users) PushFriendRequest(_ context.Context, receiverID primitive.ObjectID, req *models.FriendRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[receiverID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := u.FriendRequests[:0]
	for _, r := range u.FriendRequests {
		if r.From == req.From && r.Status != models.StatusPending {
			continue
		}
		kept = append(kept, r)
	}
	u.FriendRequests = kept
	if u.PendingRequestFrom(req.From) != nil {
		return repository.ErrDuplicateRequest
	}
	u.FriendRequests = append(u.FriendRequests, *req)
	return nil
}

func (m *Users) SetFriendRequestStatus(_ context.Context, receiverID, requestID primitive.ObjectID, status models.FriendRequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[receiverID]
	if !ok {
		return repository.ErrRequestNotPending
	}
	req := u.FindRequest(requestID)
	if req == nil || req.Status != models.StatusPending {
		return repository.ErrRequestNotPending
	}
	req.Status = status
	return nil
}

func (m *Users) ReopenFriendRequest(_ context.Context, receiverID, requestID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[receiverID]
	if !ok {
		return repository.ErrNotFound
	}
	req := u.FindRequest(requestID)
	if req == nil || req.Status != models.StatusAccepted {
		return repository.ErrNotFound
	}
	req.Status = models.StatusPending
	return nil
}

func (m *Users) AddFriend(_ context.Context, a, b primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAddFriend != nil {
		return m.FailAddFriend
	}
	for _, pair := range [][2]primitive.ObjectID{{a, b}, {b, a}} {
		if u, ok := m.users[pair[0]]; ok && !u.IsFriend(pair[1]) {
			u.Friends = append(u.Friends, pair[1])
		}
	}
	return nil
}

func (m *Users) RemoveFriend(_ context.Context, a, b primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pair := range [][2]primitive.ObjectID{{a, b}, {b, a}} {
		u, ok := m.users[pair[0]]
		if !ok {
			continue
		}
		kept := []primitive.ObjectID{}
		for _, f := range u.Friends {
			if f != pair[1] {
				kept = append(kept, f)
			}
		}
		u.Friends = kept
	}
	return nil
}

// Recommend follows the aggregation pipeline: exclude self and friends, count
// friends of the user that list the candidate, sort by count then id.
func (m *Users) Recommend(_ context.Context, userID primitive.ObjectID, friendIDs []primitive.ObjectID, limit int) ([]models.Recommendation, error) {
	if m.OnRecommend != nil {
		m.OnRecommend()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecommendCalls++

	excluded := map[primitive.ObjectID]bool{userID: true}
	for _, f := range friendIDs {
		excluded[f] = true
	}

	recs := []models.Recommendation{}
	for id, candidate := range m.users {
		if excluded[id] {
			continue
		}
		count := 0
		for _, f := range friendIDs {
			if friend, ok := m.users[f]; ok && friend.IsFriend(id) {
				count++
			}
		}
		recs = append(recs, models.Recommendation{
			ID:                 id,
			Username:           candidate.Username,
			Email:              candidate.Email,
			MutualFriendsCount: count,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].MutualFriendsCount != recs[j].MutualFriendsCount {
			return recs[i].MutualFriendsCount > recs[j].MutualFriendsCount
		}
		return recs[i].ID.Hex() < recs[j].ID.Hex()
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (m *Users) UsersWithStalePendingRequests(_ context.Context, cutoff time.Time) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		for _, r := range u.FriendRequests {
			if r.Status == models.StatusPending && !r.CreatedAt.After(cutoff) {
				out = append(out, *u)
				break
			}
		}
	}
	return out, nil
}

type Notifications struct {
	Items []models.Notification
}

func (m *Notifications) CreateNotification(_ context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	m.Items = append(m.Items, *n)
	return nil
}

func (m *Notifications) GetUserNotifications(_ context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, n := range m.Items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *Notifications) MarkAsRead(_ context.Context, userID, id primitive.ObjectID) error {
	for i := range m.Items {
		if m.Items[i].ID == id && m.Items[i].UserID == userID {
			m.Items[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *Notifications) GetLatestNotificationByType(_ context.Context, userID primitive.ObjectID, notifType string) (*models.Notification, error) {
	var latest *models.Notification
	for i := range m.Items {
		n := &m.Items[i]
		if n.UserID == userID && n.Type == notifType && (latest == nil || n.CreatedAt.After(latest.CreatedAt)) {
			latest = n
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (m *Notifications) DeleteExpiredNotifications(context.Context) (int64, error) {
	return 0, nil
}

func (m *Notifications) OfType(userID primitive.ObjectID, notifType string) int {
	n := 0
	for _, item := range m.Items {
		if item.UserID == userID && item.Type == notifType {
			n++
		}
	}
	return n
}

type Activities struct {
	Items []models.Activity
}

func (m *Activities) CreateActivity(_ context.Context, a *models.Activity) error {
	m.Items = append(m.Items, *a)
	return nil
}

func (m *Activities) GetUserActivities(_ context.Context, userID primitive.ObjectID, activityType string, limit int) ([]models.Activity, error) {
	out := []models.Activity{}
	for i := len(m.Items) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Items[i].UserID == userID && (activityType == "" || m.Items[i].Type == activityType) {
			out = append(out, m.Items[i])
		}
	}
	return out, nil
}

// Cache is an in-memory RecommendationCache with the same version guard.
type Cache struct {
	Entries     map[primitive.ObjectID][]models.Recommendation
	Versions    map[primitive.ObjectID]int64
	Invalidated []primitive.ObjectID
	FailGet     bool
}

func NewCache() *Cache {
	return &Cache{
		Entries:  map[primitive.ObjectID][]models.Recommendation{},
		Versions: map[primitive.ObjectID]int64{},
	}
}

func (c *Cache) Get(_ context.Context, id primitive.ObjectID) ([]models.Recommendation, bool, error) {
	if c.FailGet {
		return nil, false, errors.New("cache down")
	}
	recs, ok := c.Entries[id]
	return recs, ok, nil
}

func (c *Cache) Version(_ context.Context, id primitive.ObjectID) (int64, error) {
	return c.Versions[id], nil
}

func (c *Cache) Set(_ context.Context, id primitive.ObjectID, version int64, recs []models.Recommendation) (bool, error) {
	if c.Versions[id] != version {
		return false, nil
	}
	c.Entries[id] = recs
	return true, nil
}

func (c *Cache) Invalidate(_ context.Context, ids ...primitive.ObjectID) error {
	for _, id := range ids {
		delete(c.Entries, id)
		c.Versions[id]++
		c.Invalidated = append(c.Invalidated, id)
	}
	return nil
}

type Mailer struct {
	Sent []string
}

func (m *Mailer) Enabled() bool { return true }

func (m *Mailer) SendEmail(to, _, _ string) error {
	m.Sent = append(m.Sent, to)
	return nil
}
