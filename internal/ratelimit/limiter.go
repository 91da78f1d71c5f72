package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages token buckets for multiple API clients
type Limiter struct {
	clients map[string]*client
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

// NewLimiter creates a new rate limiter
// requestsPerHour: sustained requests allowed per hour per client (e.g., 100)
// burst: max requests in a burst (e.g., 10)
func NewLimiter(requestsPerHour int, burst int) *Limiter {
	return &Limiter{
		clients: make(map[string]*client),
		rate:    rate.Limit(float64(requestsPerHour) / 3600.0),
		burst:   burst,
		now:     time.Now,
	}
}

// GetLimiter returns the bucket of a client, creating it on first use
func (l *Limiter) GetLimiter(clientID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.clients[clientID]
	if !exists {
		c = &client{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[clientID] = c
	}
	c.lastSeen = l.now()
	return c.limiter
}

// Allow reports whether the client may make a request now
func (l *Limiter) Allow(clientID string) bool {
	return l.GetLimiter(clientID).AllowN(l.now(), 1)
}

// Tokens returns the tokens currently left for a client
func (l *Limiter) Tokens(clientID string) float64 {
	return l.GetLimiter(clientID).TokensAt(l.now())
}

// Prune forgets clients not seen for longer than idle. A forgotten client
// starts again with a full bucket.
func (l *Limiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	removed := 0
	for id, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
