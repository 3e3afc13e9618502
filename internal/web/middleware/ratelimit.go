package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/soccerstat/internal/core"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// ErrRateLimited is reported when a client exceeds its request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiter is a per-client token bucket. Each client gets perMinute
// requests per minute with a burst of the same size.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per client.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		clients:   make(map[string]*client),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		idleAfter: 3 * time.Minute,
		now:       time.Now,
	}
}

// Allow consumes one token for key and reports whether the request may proceed.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// sweep forgets clients idle long enough to have a full bucket again.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleAfter {
		return
	}
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleAfter {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// Clients returns how many clients are tracked.
func (l *RateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Handler rejects requests over budget with 429 and a RATE001 body.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			msg := core.MapError(ErrRateLimited)
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, map[string]string{
				"error":   msg.Message,
				"message": msg.Message,
				"action":  msg.Action,
				"code":    msg.Code,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
