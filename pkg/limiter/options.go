package limiter

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Option configures a Limiter at construction time.
type Option func(*Limiter)

// WithRedis enables the distributed store against the given endpoint. The
// connection is established lazily on the first check.
func WithRedis(opts *redis.Options) Option {
	return func(l *Limiter) {
		l.redisOpts = opts
	}
}

// WithTimeout bounds each Redis operation when the caller's context carries
// no deadline of its own (default 5s).
func WithTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		l.timeout = d
	}
}

// WithSweepInterval sets how often the local store sweeps out identifiers
// whose records have all expired (default 5m).
func WithSweepInterval(d time.Duration) Option {
	return func(l *Limiter) {
		l.sweepInterval = d
	}
}

// WithLogger attaches a structured logger. The default logger discards
// everything.
func WithLogger(log *zap.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// WithRecorder injects a custom metrics backend.
func WithRecorder(rec MetricsRecorder) Option {
	return func(l *Limiter) {
		if rec != nil {
			l.rec = rec
		}
	}
}
