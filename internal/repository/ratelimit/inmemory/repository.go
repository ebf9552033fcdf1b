package inmemory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Config struct {
	// Limit is how many calls one key may make per Window.
	Limit  int
	Window time.Duration
	Now    func() time.Time
}

// repo is a token bucket per caller. Buckets untouched for a few windows are
// pruned on the next call.
type repo struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	pruned   time.Time
}

func NewRepo(cfg *Config) *repo {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &repo{
		visitors: make(map[string]*visitor),
		every:    rate.Every(cfg.Window / time.Duration(cfg.Limit)),
		burst:    cfg.Limit,
		idleTTL:  3 * cfg.Window,
		now:      now,
		pruned:   now(),
	}
}

func (r *repo) Allow(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.pruneLocked(now)

	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.every, r.burst)}
		r.visitors[key] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1), nil
}

func (r *repo) pruneLocked(now time.Time) {
	if now.Sub(r.pruned) < r.idleTTL {
		return
	}

	for key, v := range r.visitors {
		if now.Sub(v.lastSeen) >= r.idleTTL {
			delete(r.visitors, key)
		}
	}
	r.pruned = now
}
