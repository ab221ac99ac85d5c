// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes handler latency by route template and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "friendship_http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// FriendRequests counts friend request events by outcome.
	FriendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "friendship_friend_requests_total",
		Help: "Friend requests by outcome (sent, accepted, rejected).",
	}, []string{"outcome"})

	// Unfriends counts removed friendships.
	Unfriends = promauto.NewCounter(prometheus.CounterOpts{
		Name: "friendship_unfriends_total",
		Help: "Friendships removed.",
	})

	// RecommendationCache counts cache lookups by result (hit, miss, error).
	RecommendationCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "friendship_recommendation_cache_total",
		Help: "Recommendation cache lookups by result.",
	}, []string{"result"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "friendship_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	}, []string{"resource"})
)
