package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Dias221467/Friendship_Manager/internal/metrics"
	"github.com/Dias221467/Friendship_Manager/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// CheckRateLimit increments the fixed-window counter for resource/id.
// Returns true if the request is allowed.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// EXPIRE NX on every hit: a counter whose first EXPIRE was lost still gets a TTL.
	var incr *redis.IntCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// RateLimit allows `limit` requests per `window` for each user (or remote IP when anonymous).
// A nil client or zero limit disables it; Redis errors fail open.
func RateLimit(rdb *redis.Client, resource string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := "ip:" + clientIP(r)
			if claims := GetUserFromContext(r.Context()); claims != nil {
				id = "user:" + claims.UserID
			}

			allowed, err := CheckRateLimit(r.Context(), rdb, resource, id, limit, window)
			if err != nil {
				logger.Log.WithError(err).Warn("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.RateLimited.WithLabelValues(resource).Inc()
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
