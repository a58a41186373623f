package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per key. Keys are browser session
// tokens, so one shopper hammering submit cannot starve another.
type Limiter struct {
	burst   int
	limit   rate.Limit
	expiry  time.Duration
	mu      sync.Mutex
	clients map[string]*client
	done    chan struct{}
}

type client struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func New(burst int, interval, expiry time.Duration) *Limiter {
	l := &Limiter{
		burst:   burst,
		limit:   rate.Every(interval),
		expiry:  expiry,
		clients: make(map[string]*client),
		done:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[key]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = cl
	}
	cl.lastAccess = time.Now()

	return cl.limiter.Allow()
}

func (l *Limiter) Stop() {
	close(l.done)
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}

		l.mu.Lock()
		for key, cl := range l.clients {
			if time.Since(cl.lastAccess) > l.expiry {
				delete(l.clients, key)
			}
		}
		l.mu.Unlock()
	}
}
