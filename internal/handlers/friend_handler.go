package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dias221467/Friendship_Manager/internal/models"
	"github.com/Dias221467/Friendship_Manager/internal/services"
	"github.com/Dias221467/Friendship_Manager/pkg/logger"
	"github.com/gorilla/mux"
)

// FriendHandler manages HTTP endpoints related to friend requests and friendships.
type FriendHandler struct {
	Service *services.FriendService
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service *services.FriendService) *FriendHandler {
	return &FriendHandler{Service: service}
}

// SendFriendRequestHandler handles POST /friends/request/{userId}.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, mux.Vars(r)["userId"], "user ID")
	if !ok {
		return
	}

	request, err := h.Service.SendFriendRequest(r.Context(), userID, targetID)
	if err != nil {
		logger.Log.Warnf("Failed to send friend request from %s to %s: %v", userID.Hex(), targetID.Hex(), err)
		writeServiceError(w, err, "Error sending friend request")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string                `json:"message"`
		Request *models.FriendRequest `json:"request"`
	}{"Friend request sent successfully", request})
}

// RespondToFriendRequestHandler handles PUT /friends/request/{requestId}.
func (h *FriendHandler) RespondToFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, mux.Vars(r)["requestId"], "request ID")
	if !ok {
		return
	}

	var body struct {
		Status models.FriendRequestStatus `json:"status"`
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logger.Log.Warnf("Failed to decode response body: %v", err)
		writeMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if _, err := h.Service.RespondToRequest(r.Context(), userID, requestID, body.Status); err != nil {
		logger.Log.Warnf("Failed to respond to friend request %s: %v", requestID.Hex(), err)
		writeServiceError(w, err, "Error processing friend request")
		return
	}

	logger.Log.Infof("User %s responded to friend request %s (%s)", userID.Hex(), requestID.Hex(), body.Status)
	writeMessage(w, http.StatusOK, fmt.Sprintf("Friend request %s", body.Status))
}

// GetRecommendationsHandler handles GET /friends/recommendations?limit=N.
func (h *FriendHandler) GetRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	// Zero, negative or missing limits get the service default.
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	recs, err := h.Service.GetRecommendations(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err, "Error getting recommendations")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// UnfriendHandler handles DELETE /friends/unfriend/{userId}.
func (h *FriendHandler) UnfriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	friendID, ok := pathID(w, mux.Vars(r)["userId"], "user ID")
	if !ok {
		return
	}

	if err := h.Service.Unfriend(r.Context(), userID, friendID); err != nil {
		writeServiceError(w, err, "Error unfriending user")
		return
	}
	writeMessage(w, http.StatusOK, "Friend removed successfully")
}

// GetFriendsHandler returns a list of the user's friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	friends, err := h.Service.GetFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to get friends")
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// GetPendingRequestsHandler shows all incoming friend requests.
func (h *FriendHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.GetPendingRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to get requests")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// GetMutualFriendsHandler handles GET /friends/mutual/{userId}.
func (h *FriendHandler) GetMutualFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	otherID, ok := pathID(w, mux.Vars(r)["userId"], "user ID")
	if !ok {
		return
	}

	mutual, err := h.Service.GetMutualFriends(r.Context(), userID, otherID)
	if err != nil {
		writeServiceError(w, err, "Failed to get mutual friends")
		return
	}
	writeJSON(w, http.StatusOK, mutual)
}
