package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ActivityRequestSent     = "friend_request_sent"
	ActivityRequestAccepted = "friend_request_accepted"
	ActivityRequestRejected = "friend_request_rejected"
	ActivityFriendRemoved   = "friend_removed"
)

// ValidActivityType reports whether t is one of the activity constants.
func ValidActivityType(t string) bool {
	switch t {
	case ActivityRequestSent, ActivityRequestAccepted, ActivityRequestRejected, ActivityFriendRemoved:
		return true
	}
	return false
}

type Activity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type      string             `bson:"type" json:"type"`
	TargetID  primitive.ObjectID `bson:"target_id" json:"target_id"` // the other user
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Message   string             `bson:"message" json:"message"`
}
