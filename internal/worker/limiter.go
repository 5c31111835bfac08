package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a user submits faster than allowed
var ErrRateLimited = errors.New("too many requests, try again in a second")

// minIdle is the shortest time an unused bucket is kept
const minIdle = time.Minute

// Limiter keeps one token bucket per user. Buckets unused for longer than
// they take to refill are evicted, so anonymous traffic cannot grow it
// without bound.
type Limiter struct {
	buckets      *gocache.Cache
	overrides    map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
	idle         time.Duration
}

// NewLimiter creates a per-user limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	return newLimiter(requestsPerSecond, burst, 0)
}

func newLimiter(requestsPerSecond float64, burst int, idle time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	// A bucket idle for burst/rate seconds is full again, so dropping it
	// loses nothing
	if idle <= 0 {
		idle = minIdle
		if limit != rate.Inf {
			if refill := time.Duration(float64(burst) / float64(limit) * float64(time.Second)); refill > idle {
				idle = refill
			}
		}
	}

	return &Limiter{
		buckets:      gocache.New(idle, idle),
		overrides:    make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
		idle:         idle,
	}
}

// Allow reports whether user may submit now, consuming a token if so
func (l *Limiter) Allow(user string) bool {
	return l.get(user).Allow()
}

// Check is Allow returning ErrRateLimited on refusal
func (l *Limiter) Check(user string) error {
	if !l.Allow(user) {
		return ErrRateLimited
	}
	return nil
}

// Wait blocks until user may submit or ctx is done
func (l *Limiter) Wait(ctx context.Context, user string) error {
	return l.get(user).Wait(ctx)
}

// WaitWithDelay waits for clearance and then pauses for delay
func (l *Limiter) WaitWithDelay(ctx context.Context, user string, delay time.Duration) error {
	if err := l.Wait(ctx, user); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetUserRate overrides the limit of one user. Overrides are never evicted.
func (l *Limiter) SetUserRate(user string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.overrides[user] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Forget drops a user's bucket and override
func (l *Limiter) Forget(user string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.overrides, user)
	l.buckets.Delete(user)
}

// Len reports the number of live buckets and overrides
func (l *Limiter) Len() int {
	l.buckets.DeleteExpired()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buckets.ItemCount() + len(l.overrides)
}

func (l *Limiter) get(user string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.overrides[user]; ok {
		return limiter
	}
	if l.defaultRate == rate.Inf {
		return rate.NewLimiter(rate.Inf, l.defaultBurst)
	}

	limiter := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	if v, found := l.buckets.Get(user); found {
		limiter = v.(*rate.Limiter)
	}
	// Every use pushes eviction back by the idle period
	l.buckets.Set(user, limiter, gocache.DefaultExpiration)
	return limiter
}
