package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNoRedis is returned by Ping when no Redis endpoint was configured.
var ErrNoRedis = errors.New("limiter: no redis endpoint configured")

// Limiter is the decision engine. It owns a distributed store (when a Redis
// endpoint was configured) and a process-local store, and it never fails a
// caller's request because of its own errors.
//
// Construct one Limiter at process startup and inject it wherever checks are
// needed; each instance carries isolated state, which keeps tests hermetic.
type Limiter struct {
	redis  *RedisStore // nil when no endpoint is configured
	memory *MemoryStore

	log *zap.Logger
	rec MetricsRecorder
	now func() time.Time

	// construction knobs collected by options
	redisOpts     *redis.Options
	timeout       time.Duration
	sweepInterval time.Duration
}

// New constructs an engine. Without WithRedis every check is served by the
// in-process store.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		log: zap.NewNop(),
		rec: NoOpMetricsRecorder{},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.memory = NewMemoryStore(l.sweepInterval)
	if l.redisOpts != nil {
		l.redis = NewRedisStore(l.redisOpts, l.timeout)
	}
	return l
}

// Check decides whether the request identified by identifier may proceed
// under pol. It never returns an error: configuration absence selects the
// local store, and any failure of the distributed store resolves to an
// allowed Result with a full quota (fail open). There is deliberately no
// per-call fallback to the local store, since switching stores mid-flight
// would silently reset the effective count.
//
// Latency is bounded by a single store round trip; no retries happen here.
func (l *Limiter) Check(ctx context.Context, identifier string, pol Policy) Result {
	now := l.now()
	key := pol.storageKey(identifier)

	// Store selection happens on every call, so a recovered Redis is picked
	// up again without restarting the process.
	store, backend := WindowStore(l.memory), "memory"
	if l.redis != nil {
		store, backend = l.redis, "redis"
	}
	tags := map[string]string{"backend": backend, "prefix": pol.KeyPrefix}

	start := time.Now()
	count, err := store.RecordAndCount(ctx, key, now, pol.Window, pol.MaxRequests)
	l.rec.Add(metricCheck, 1, tags)
	l.rec.Observe(metricLatency, time.Since(start).Seconds(), tags)

	if err != nil {
		// Fail open: a store incident makes traffic unmetered, not blocked.
		l.log.Warn("rate limit check failed, failing open",
			zap.String("identifier", identifier),
			zap.String("prefix", pol.KeyPrefix),
			zap.Error(err))
		l.rec.Add(metricFailOpen, 1, tags)
		return Result{
			Allowed:   true,
			Remaining: pol.MaxRequests,
			ResetAt:   now.Add(pol.Window),
			Limit:     pol.MaxRequests,
		}
	}

	remaining := pol.MaxRequests - count - 1
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:   count < pol.MaxRequests,
		Remaining: remaining,
		ResetAt:   now.Add(pol.Window),
		Limit:     pol.MaxRequests,
	}
	if !res.Allowed {
		l.rec.Add(metricDenied, 1, tags)
	}
	return res
}

// Ping probes the distributed store and reports its round-trip latency.
// It returns ErrNoRedis when the engine runs purely in-process.
func (l *Limiter) Ping(ctx context.Context) (time.Duration, error) {
	if l.redis == nil {
		return 0, ErrNoRedis
	}
	return l.redis.Ping(ctx)
}

// Close releases both stores: the local store's sweep goroutine and the
// shared Redis client, if one was ever established.
func (l *Limiter) Close() error {
	err := l.memory.Close()
	if l.redis != nil {
		if cerr := l.redis.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
