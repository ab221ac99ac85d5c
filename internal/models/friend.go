package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FriendRequestStatus string

const (
	StatusPending  FriendRequestStatus = "pending"
	StatusAccepted FriendRequestStatus = "accepted"
	StatusRejected FriendRequestStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s FriendRequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// IsResponse reports whether s is a status a receiver may answer with.
func (s FriendRequestStatus) IsResponse() bool {
	return s == StatusAccepted || s == StatusRejected
}

// FriendRequest is stored inside the receiver's user document.
type FriendRequest struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	From      primitive.ObjectID  `bson:"from" json:"from"`
	Status    FriendRequestStatus `bson:"status" json:"status"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// PendingRequest is an incoming request joined with the sender's profile.
type PendingRequest struct {
	ID        primitive.ObjectID `json:"id"`
	From      PublicUser         `json:"from"`
	CreatedAt time.Time          `json:"created_at"`
}
