package services

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrRequestNotFound       = errors.New("request not found")
	ErrSelfRequest           = errors.New("cannot perform this action on yourself")
	ErrAlreadyFriends        = errors.New("already friends")
	ErrRequestExists         = errors.New("friend request already sent")
	ErrReverseRequestPending = errors.New("this user has already sent you a friend request")
	ErrInvalidStatus         = errors.New("status must be 'accepted' or 'rejected'")
	ErrRequestNotPending     = errors.New("friend request has already been answered")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrInvalidActivityType   = errors.New("unknown activity type")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidUserInput   = errors.New("invalid user input")
)
