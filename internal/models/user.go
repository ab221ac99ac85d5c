package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account and its social graph. Incoming friend requests
// are embedded in the receiver's document.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username       string               `bson:"username" json:"username"`
	Email          string               `bson:"email" json:"email"`
	HashedPassword string               `bson:"hashed_password" json:"-"`
	Role           string               `bson:"role" json:"role"`
	Friends        []primitive.ObjectID `bson:"friends" json:"friends"`
	FriendRequests []FriendRequest      `bson:"friend_requests" json:"friend_requests,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
	LastActiveAt   time.Time            `bson:"last_active_at,omitempty" json:"last_active_at,omitempty"`
}

// IsFriend reports whether id is in the user's friend list.
func (u *User) IsFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// FindRequest returns the embedded request with the given id.
func (u *User) FindRequest(id primitive.ObjectID) *FriendRequest {
	for i := range u.FriendRequests {
		if u.FriendRequests[i].ID == id {
			return &u.FriendRequests[i]
		}
	}
	return nil
}

// PendingRequestFrom returns the pending request sent by sender, if any.
func (u *User) PendingRequestFrom(sender primitive.ObjectID) *FriendRequest {
	for i := range u.FriendRequests {
		req := &u.FriendRequests[i]
		if req.From == sender && req.Status == StatusPending {
			return req
		}
	}
	return nil
}

// Public strips everything but the identity fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

type PublicUser struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
}

// Recommendation is a friend-of-friend candidate ranked by mutual friends.
type Recommendation struct {
	ID                 primitive.ObjectID `bson:"_id" json:"id"`
	Username           string             `bson:"username" json:"username"`
	Email              string             `bson:"email" json:"email"`
	MutualFriendsCount int                `bson:"mutual_friends_count" json:"mutual_friends_count"`
}
