package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dias221467/Friendship_Manager/internal/services"
	"github.com/Dias221467/Friendship_Manager/pkg/logger"
	"github.com/Dias221467/Friendship_Manager/pkg/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// statusFor maps service errors to HTTP status codes. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSelfRequest),
		errors.Is(err, services.ErrAlreadyFriends),
		errors.Is(err, services.ErrRequestExists),
		errors.Is(err, services.ErrReverseRequestPending),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrRequestNotPending),
		errors.Is(err, services.ErrInvalidUserInput),
		errors.Is(err, services.ErrInvalidActivityType):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrEmailInUse):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeServiceError answers with the mapped status; 500s get a fixed message and are logged.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.WithError(err).Error(fallback)
		writeMessage(w, status, fallback)
		return
	}
	if errors.Is(err, services.ErrUserNotFound) {
		writeMessage(w, status, "User not found")
		return
	}
	if errors.Is(err, services.ErrRequestNotFound) {
		writeMessage(w, status, "Request not found")
		return
	}
	writeMessage(w, status, err.Error())
}

// currentUserID returns the authenticated user's id or writes a 401.
func currentUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathID parses a hex ObjectID route variable or writes a 400.
func pathID(w http.ResponseWriter, raw, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid "+what)
		return primitive.NilObjectID, false
	}
	return id, true
}
