package handlers

import (
	"net/http"
	"time"

	"github.com/Dias221467/Friendship_Manager/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Routes bundles what RegisterRoutes needs to mount the API.
type Routes struct {
	JWTSecret     string
	Users         *UserHandler
	Friends       *FriendHandler
	Notifications *NotificationHandler
	Activities    *ActivityHandler
	LastActive    middleware.LastActiveUpdater

	// Redis backs the friend-request rate limit; nil disables it.
	Redis              *redis.Client
	FriendRequestLimit int
	RateLimitWindow    time.Duration
}

// RegisterRoutes mounts every endpoint on router.
func RegisterRoutes(router *mux.Router, rt Routes) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusOK, "ok")
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	protect := func(prefix string) *mux.Router {
		sub := router.PathPrefix(prefix).Subrouter()
		sub.Use(middleware.AuthMiddleware(rt.JWTSecret))
		if rt.LastActive != nil {
			sub.Use(middleware.UpdateLastActiveMiddleware(rt.LastActive))
		}
		return sub
	}

	// User routes
	router.HandleFunc("/users/register", rt.Users.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", rt.Users.LoginUserHandler).Methods("POST")
	protectedUserRoutes := protect("/users")
	protectedUserRoutes.HandleFunc("/me", rt.Users.GetMeHandler).Methods("GET")

	// Friend routes
	protectedFriendRoutes := protect("/friends")
	sendLimit := middleware.RateLimit(rt.Redis, "friend_request", rt.FriendRequestLimit, rt.RateLimitWindow)
	protectedFriendRoutes.Handle("/request/{userId}", sendLimit(http.HandlerFunc(rt.Friends.SendFriendRequestHandler))).Methods("POST")
	protectedFriendRoutes.HandleFunc("/request/{requestId}", rt.Friends.RespondToFriendRequestHandler).Methods("PUT")
	protectedFriendRoutes.HandleFunc("/recommendations", rt.Friends.GetRecommendationsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/unfriend/{userId}", rt.Friends.UnfriendHandler).Methods("DELETE")
	protectedFriendRoutes.HandleFunc("/requests", rt.Friends.GetPendingRequestsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/mutual/{userId}", rt.Friends.GetMutualFriendsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("", rt.Friends.GetFriendsHandler).Methods("GET")

	// Notification routes
	protectedNotifRoutes := protect("/notifications")
	protectedNotifRoutes.HandleFunc("", rt.Notifications.GetUserNotificationsHandler).Methods("GET")
	protectedNotifRoutes.HandleFunc("/{id}/read", rt.Notifications.MarkAsReadHandler).Methods("POST")

	protectedActivityRoutes := protect("/activities")
	protectedActivityRoutes.HandleFunc("", rt.Activities.GetRecentActivitiesHandler).Methods("GET")

	// Admin routes
	adminRoutes := protect("/admin")
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/users/{id}", rt.Users.AdminGetUserHandler).Methods("GET")
}
