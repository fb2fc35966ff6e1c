package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTTL         = time.Hour
)

// limiterStore holds per-key rate limiters with periodic cleanup of idle entries.
type limiterStore[K comparable] struct {
	limiters sync.Map // map[K]*limiterEntry
	rps      float64
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

func newLimiterStore[K comparable](ctx context.Context, rps float64, burst int) *limiterStore[K] {
	s := &limiterStore[K]{rps: rps, burst: burst, now: time.Now}
	go s.cleanupStale(ctx, limiterCleanupInterval)
	return s
}

// getLimiter retrieves or creates the limiter for key.
func (s *limiterStore[K]) getLimiter(key K) *rate.Limiter {
	now := s.now()
	if val, ok := s.limiters.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.mu.Lock()
		entry.lastAccess = now
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &limiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: now,
	}
	actual, _ := s.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

// cleanupStale removes limiters idle for longer than limiterIdleTTL until ctx is done.
func (s *limiterStore[K]) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(s.now().Add(-limiterIdleTTL))
		}
	}
}

func (s *limiterStore[K]) sweep(threshold time.Time) {
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)
		entry.mu.Lock()
		stale := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if stale {
			s.limiters.Delete(key)
		}
		return true
	})
}

// rejectRateLimited answers 429 with a Retry-After header computed from limiter.
func rejectRateLimited(c *gin.Context, limiter *rate.Limiter, message string) int {
	reservation := limiter.Reserve()
	retryAfter := int(reservation.Delay().Seconds())
	reservation.Cancel()
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, httputil.ErrorResponse{
		Error:   "rate_limit_exceeded",
		Message: message,
	})
	c.Abort()
	return retryAfter
}

// RateLimitMiddleware enforces per-user rate limiting on authenticated requests.
//
// MUST be used after AuthenticationMiddleware. Uses the token bucket algorithm from
// golang.org/x/time/rate with one limiter per user id. Idle limiters are dropped by a
// background sweep that stops when ctx is done.
//
// Returns:
//   - 429 Too Many Requests with a Retry-After header when the limit is exceeded
//   - 401 Unauthorized when no user is in the context
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore[uuid.UUID](ctx, rps, burst)

	return func(c *gin.Context) {
		user, ok := GetUser(c.Request.Context())
		if !ok {
			logger.Error("rate limit middleware: no authenticated user in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		limiter := store.getLimiter(user.ID)
		if !limiter.Allow() {
			retryAfter := rejectRateLimited(c, limiter,
				"Too many requests. Please retry after the specified delay.")
			logger.Debug("rate limit exceeded",
				slog.String("user_id", user.ID.String()),
				slog.Int("retry_after", retryAfter))
			return
		}

		c.Next()
	}
}
