package limiter

import (
	"context"
	"fmt"
	"time"
)

// Policy describes one rate-limiting tier: how many requests an identifier
// may make within a trailing window. Policies are supplied fresh on every
// Check call; the engine keeps no policy registry.
type Policy struct {
	// MaxRequests is the upper bound of allowed requests per window.
	MaxRequests int64
	// Window is the width of the sliding window.
	Window time.Duration
	// KeyPrefix namespaces stored records. Two policies sharing a prefix
	// share a quota bucket; choosing distinct prefixes is the caller's job.
	KeyPrefix string
	// Message is optional throttling text passed through to HTTP responses.
	// The engine does not interpret it.
	Message string
}

// Validate reports whether the policy is usable. Call it where policies are
// defined; Check does not re-validate on the hot path.
func (p Policy) Validate() error {
	if p.MaxRequests <= 0 {
		return fmt.Errorf("limiter: max requests must be positive, got %d", p.MaxRequests)
	}
	if p.Window <= 0 {
		return fmt.Errorf("limiter: window must be positive, got %s", p.Window)
	}
	if p.KeyPrefix == "" {
		return fmt.Errorf("limiter: key prefix must not be empty")
	}
	return nil
}

// storageKey scopes records by prefix and identifier.
func (p Policy) storageKey(identifier string) string {
	return p.KeyPrefix + ":" + identifier
}

// Result is the outcome of a single check.
type Result struct {
	// Allowed reports whether this request may proceed.
	Allowed bool
	// Remaining is the number of requests left in the current window after
	// this one. Never negative; always zero when Allowed is false.
	Remaining int64
	// ResetAt is the rolling reset estimate, now+Window. It is not a fixed
	// window boundary; Retry-After rendering relies on the rolling semantics.
	ResetAt time.Time
	// Limit echoes Policy.MaxRequests for header rendering.
	Limit int64
}

// WindowStore records one request attempt and reports how many requests the
// identifier already had inside the trailing window.
//
// RecordAndCount atomically discards records older than now-window, records
// the attempt timestamped now, and returns the count of records that were in
// the window before this attempt. The limit is passed so that stores which
// skip recording denied attempts (MemoryStore) can tell the two cases apart;
// RedisStore records every attempt and ignores it.
type WindowStore interface {
	RecordAndCount(ctx context.Context, key string, now time.Time, window time.Duration, limit int64) (int64, error)
}
