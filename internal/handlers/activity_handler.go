package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dias221467/Friendship_Manager/internal/services"
	"github.com/Dias221467/Friendship_Manager/pkg/logger"
)

type ActivityHandler struct {
	Service *services.ActivityService
}

func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{Service: service}
}

// GET /activities?type=friend_request_sent&limit=N
func (h *ActivityHandler) GetRecentActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	// invalid or missing limits fall back to the service default
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.Service.GetRecentActivities(r.Context(), userID, r.URL.Query().Get("type"), limit)
	if err != nil {
		logger.Log.Warnf("Failed to fetch activities for %s: %v", userID.Hex(), err)
		writeServiceError(w, err, "Failed to get activities")
		return
	}
	writeJSON(w, http.StatusOK, activities)
}
