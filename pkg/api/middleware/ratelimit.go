package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	RequestsPerSecond float64       // Rate of token replenishment
	BurstSize         int           // Maximum burst size (bucket capacity)
	ClientExpiration  time.Duration // How long to keep inactive client limiters
	MaxClients        int           // Maximum number of tracked clients
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
		ClientExpiration:  10 * time.Minute,
		MaxClients:        10000,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	config  *RateLimitConfig
	clients map[string]*clientLimiter
	mu      sync.Mutex
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		config:  config,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow checks if a request from the given client should be allowed.
// Returns false if the client is rate limited or if max clients has been
// reached.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	now := rl.now()
	c, ok := rl.clients[clientID]
	if !ok {
		if rl.config.MaxClients > 0 && len(rl.clients) >= rl.config.MaxClients {
			rl.cleanupLocked(now)
			if len(rl.clients) >= rl.config.MaxClients {
				rl.mu.Unlock()
				return false
			}
		}
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)}
		rl.clients[clientID] = c
	}
	c.lastSeen = now
	rl.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Cleanup removes client limiters idle for longer than ClientExpiration and
// returns how many were removed
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.cleanupLocked(rl.now())
}

func (rl *RateLimiter) cleanupLocked(now time.Time) int {
	removed := 0
	for id, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.config.ClientExpiration {
			delete(rl.clients, id)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// ClientIDFunc is a function that extracts a client identifier from a request
type ClientIDFunc func(*http.Request) string

// RemoteIP identifies clients by the host part of RemoteAddr
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit creates middleware that applies rate limiting per client.
// onLimited is called when a request is rejected and may be nil.
func RateLimit(limiter *RateLimiter, getClientID ClientIDFunc, logger logging.Logger, onLimited func(r *http.Request, clientID string)) Middleware {
	if getClientID == nil {
		getClientID = RemoteIP
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := getClientID(r)
			if !limiter.Allow(clientID) {
				logger.Debug("rate limit exceeded", logging.String("client", clientID), logging.Path(r.URL.Path))
				if onLimited != nil {
					onLimited(r, clientID)
				}
				w.Header().Set("Retry-After", "1")
				w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(limiter.config.RequestsPerSecond, 'f', 0, 64))
				http.Error(w, "Rate limit exceeded. Please retry after 1 second.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
