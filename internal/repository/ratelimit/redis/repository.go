package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit"

type Config struct {
	Limit  int
	Window time.Duration
	Now    func() time.Time
}

// repo is a fixed-window counter shared by every server instance using the
// same redis.
type repo struct {
	rc     *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRepo(rc *redis.Client, cfg *Config) *repo {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &repo{
		rc:     rc,
		limit:  int64(cfg.Limit),
		window: cfg.Window,
		now:    now,
	}
}

func (r repo) getKey(key string) string {
	window := r.now().UnixNano() / int64(r.window)
	return fmt.Sprintf("%s:%s:%d", keyPrefix, key, window)
}

// Allow counts one call against key. The window key is computed once so the
// counter and its TTL always land on the same key.
func (r repo) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := r.getKey(key)

	pipe := r.rc.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, r.window)

	if err := r.executePipe(ctx, pipe); err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}

	return incr.Val() <= r.limit, nil
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
