// Package limiter provides local and distributed request rate limiting based
// on a sliding-window counter.
//
// The primary entry point is the Limiter engine:
//
//	res := engine.Check(ctx, id, policy)
//
// The returned Result contains whether the request is allowed, how many
// requests remain in the current window, and timing hints for callers that
// want to set rate-limit headers (for example, Retry-After).
//
// # Overview
//
// Each identity keeps a set of timestamped request records. A check discards
// records older than the trailing window, records the current attempt, and
// compares the number of records already in the window against the policy's
// ceiling. Unlike fixed-window counters, a sliding window has no boundary
// burst problem: a caller can never squeeze 2x the quota through by straddling
// a window edge.
//
// # Core Types
//
// Policy defines the rule being enforced:
//
//   - MaxRequests: ceiling of allowed requests per window
//   - Window: the trailing time window requests are counted over
//   - KeyPrefix: namespace separating policies that share a store
//   - Message: optional throttling text passed through to HTTP responses
//
// The identifier passed to Check defines "who" is being limited. It is an
// opaque string; any two distinct identifiers are fully independent quota
// buckets. HTTP callers typically combine the client address and endpoint
// path (see Middleware and ClientIP).
//
// # Backends
//
// The package provides two WindowStore implementations:
//
//   - MemoryStore: an in-process store backed by a Go map. Useful for unit
//     tests, local development, and single-instance deployments. Its state is
//     local to the process, so it does not enforce a global limit across
//     replicas.
//
//   - RedisStore: a distributed store backed by Redis. Each check runs one
//     MULTI/EXEC batch (trim, count, insert, refresh expiry) against a sorted
//     set, which makes it safe to use across many application instances while
//     enforcing a single global budget per identity.
//
// The engine selects RedisStore when a Redis endpoint was configured and
// MemoryStore otherwise. The absence of an endpoint is a supported
// configuration, not an error. Note that the two stores never share counts:
// a deployment that flips between them observes a one-time quota reset.
//
// # Counting Semantics
//
// RecordAndCount returns the number of requests that were already inside the
// window before the current attempt, so for the k-th request in a window the
// store reports k-1 and the engine computes
//
//	allowed   = count < MaxRequests
//	remaining = max(0, MaxRequests-count-1)
//
// The stores differ in how they treat denied attempts: RedisStore records
// every attempt, so hammering a limit keeps the window extended, while
// MemoryStore records only allowed requests. Both yield the same allow/deny
// boundary for well-behaved callers.
//
// # Failure Policy
//
// Check never returns an error. When the Redis batch fails for any reason
// (endpoint unreachable, timeout, network error) the engine fails open: the
// request is allowed with a full Remaining quota, the incident is logged, and
// no per-call fallback to MemoryStore happens. Availability is deliberately
// prioritized over strict enforcement during store incidents; a broken quota
// store must never itself block all traffic.
//
// # Concurrency
//
// MemoryStore is safe for concurrent use by multiple goroutines (a mutex
// protects its map, so checks for one identifier are serialized). RedisStore
// delegates per-identifier ordering to the atomicity of the MULTI/EXEC batch.
// The shared Redis connection is created lazily, at most once, and reused by
// all concurrent checks in the process.
//
// # Lifecycle
//
// MemoryStore owns a background sweep that removes identifiers whose records
// have all aged out; it starts on construction and stops on Close. The engine
// is an explicit instance holding both stores: construct one at process
// startup, inject it wherever checks are needed, and Close it on shutdown.
//
// # Configuration
//
// The engine is configured with the functional options pattern:
//
//	engine := limiter.New(
//		limiter.WithRedis(&redis.Options{Addr: "localhost:6379"}),
//		limiter.WithLogger(log),
//		limiter.WithRecorder(myMetrics),
//	)
//
// Supported options:
//
//   - WithRedis(*redis.Options): enables the distributed store.
//   - WithTimeout(time.Duration): per-check Redis deadline (default 5s),
//     applied only when the caller's context carries none.
//   - WithSweepInterval(time.Duration): MemoryStore sweep cadence (default 5m).
//   - WithLogger(*zap.Logger): structured logging (default no-op).
//   - WithRecorder(MetricsRecorder): injects a custom metrics backend.
//
// Named policy presets for common endpoint classes (auth, api, search,
// upload, payment, public) are provided in presets.go and can be overridden
// from a YAML file with LoadPresets.
package limiter
