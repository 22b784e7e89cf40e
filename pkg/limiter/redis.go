package limiter

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout     = 5 * time.Second
	connectAttempts    = 3
	connectBackoffBase = 100 * time.Millisecond

	// expiryMargin keeps abandoned keys alive slightly longer than their
	// window so they are reclaimed by Redis itself, without an explicit sweep.
	expiryMargin = 10 * time.Second
)

// RedisStore is a WindowStore backed by a shared Redis instance. Each check
// is a single MULTI/EXEC batch, so concurrent checks for one identifier
// observe a serialized trim-count-insert sequence even across processes.
//
// RedisStore surfaces every error to the caller; the engine owns the
// fail-open policy.
type RedisStore struct {
	opts    *redis.Options
	timeout time.Duration

	mu     sync.Mutex
	client *redis.Client
}

// NewRedisStore prepares a store for the given endpoint. The connection is
// not dialed here; the first check (or Ping) establishes it. A non-positive
// timeout selects the 5 second default.
func NewRedisStore(opts *redis.Options, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RedisStore{opts: opts, timeout: timeout}
}

// conn returns the shared client, dialing it on first use. Connect failures
// are retried with exponential backoff a bounded number of times; after that
// the attempt is abandoned and the next call starts over.
func (s *RedisStore) conn(ctx context.Context) (*redis.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	var lastErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(connectBackoffBase << (attempt - 1)):
			}
		}
		client := redis.NewClient(s.opts)
		if err := client.Ping(ctx).Err(); err != nil {
			lastErr = err
			client.Close()
			continue
		}
		s.client = client
		return client, nil
	}
	return nil, fmt.Errorf("limiter: redis unreachable after %d attempts: %w", connectAttempts, lastErr)
}

// RecordAndCount implements WindowStore. Unlike MemoryStore it records every
// attempt, denied ones included, so the limit argument is ignored. The
// returned count is the sorted set's cardinality before the insertion.
func (s *RedisStore) RecordAndCount(ctx context.Context, key string, now time.Time, window time.Duration, _ int64) (int64, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	client, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	nowMs := now.UnixMilli()
	windowStart := nowMs - window.Milliseconds()

	pipe := client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	// Several requests can land in the same millisecond; the random suffix
	// keeps their members from collapsing into one.
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(nowMs),
		Member: strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString(),
	})
	pipe.Expire(ctx, key, window+expiryMargin)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("limiter: rate limit batch failed: %w", err)
	}
	return countCmd.Val(), nil
}

// Ping reports the connection's round-trip latency. It is meant for health
// endpoints and operational diagnostics, not for the request hot path.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	client, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Close releases the shared client, if one was ever established.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
