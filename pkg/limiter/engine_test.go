package limiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock pins the engine to scripted instants.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestLimiter_MemoryScenario(t *testing.T) {
	ctx := context.Background()
	engine := New()
	defer engine.Close()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	engine.now = clock.Now
	base := clock.Now()

	pol := Policy{MaxRequests: 3, Window: time.Second, KeyPrefix: "t"}
	id := "ip:/api/test"

	steps := []struct {
		at            time.Duration
		wantAllowed   bool
		wantRemaining int64
	}{
		{0, true, 2},
		{100 * time.Millisecond, true, 1},
		{200 * time.Millisecond, true, 0},
		{300 * time.Millisecond, false, 0},
		// The first request has fallen out of the trailing window by now, and
		// the denied attempt at 300ms was never recorded locally.
		{1050 * time.Millisecond, true, 0},
	}

	for _, step := range steps {
		clock.Set(base.Add(step.at))
		res := engine.Check(ctx, id, pol)
		assert.Equal(t, step.wantAllowed, res.Allowed, "t=%s", step.at)
		assert.Equal(t, step.wantRemaining, res.Remaining, "t=%s", step.at)
		assert.Equal(t, pol.MaxRequests, res.Limit, "t=%s", step.at)
		assert.Equal(t, base.Add(step.at).Add(pol.Window), res.ResetAt, "t=%s", step.at)
	}
}

func TestLimiter_RedisQuotaBoundary(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	engine := New(WithRedis(&redis.Options{Addr: mr.Addr()}))
	defer engine.Close()

	pol := Policy{MaxRequests: 3, Window: time.Minute, KeyPrefix: "t"}

	// Boundary checks at exactly MaxRequests and MaxRequests+1.
	for i := int64(1); i <= pol.MaxRequests; i++ {
		res := engine.Check(ctx, "ip:/api/test", pol)
		require.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, pol.MaxRequests-i, res.Remaining, "request %d", i)
	}

	res := engine.Check(ctx, "ip:/api/test", pol)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining, "denied requests always report zero remaining")
}

func TestLimiter_FailOpen(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	engine := New(
		WithRedis(&redis.Options{Addr: mr.Addr()}),
		WithTimeout(500*time.Millisecond),
	)
	defer engine.Close()
	mr.Close()

	pol := Policy{MaxRequests: 5, Window: time.Minute, KeyPrefix: "t"}
	res := engine.Check(ctx, "ip:/api/test", pol)

	assert.True(t, res.Allowed)
	assert.Equal(t, pol.MaxRequests, res.Remaining)
	assert.Equal(t, pol.MaxRequests, res.Limit)
	assert.False(t, res.ResetAt.IsZero())

	// Fail-open must not fall back to the local store for the call: a store
	// switch would silently reset the effective count.
	engine.memory.mu.Lock()
	defer engine.memory.mu.Unlock()
	assert.Empty(t, engine.memory.buckets)
}

func TestLimiter_RemainingMonotonicity(t *testing.T) {
	ctx := context.Background()
	engine := New()
	defer engine.Close()

	pol := Policy{MaxRequests: 10, Window: time.Minute, KeyPrefix: "t"}

	prev := pol.MaxRequests
	for i := 0; i < 15; i++ {
		res := engine.Check(ctx, "ip:/api/test", pol)
		assert.LessOrEqual(t, res.Remaining, prev, "remaining may never grow within a window")
		assert.GreaterOrEqual(t, res.Remaining, int64(0))
		prev = res.Remaining
	}
}

func TestLimiter_IdentifierIsolation(t *testing.T) {
	ctx := context.Background()
	engine := New()
	defer engine.Close()

	pol := Policy{MaxRequests: 3, Window: time.Minute, KeyPrefix: "t"}

	for i := 0; i < 4; i++ {
		engine.Check(ctx, "ip:1.2.3.4:/api/test", pol)
	}

	res := engine.Check(ctx, "ip:5.6.7.8:/api/test", pol)
	assert.True(t, res.Allowed, "an exhausted neighbor must not affect a fresh identifier")
	assert.Equal(t, int64(2), res.Remaining)
}

func TestLimiter_PrefixesShareOneBucket(t *testing.T) {
	ctx := context.Background()
	engine := New()
	defer engine.Close()

	a := Policy{MaxRequests: 2, Window: time.Minute, KeyPrefix: "shared"}
	b := Policy{MaxRequests: 2, Window: time.Minute, KeyPrefix: "shared"}

	engine.Check(ctx, "user_1", a)
	engine.Check(ctx, "user_1", b)

	res := engine.Check(ctx, "user_1", a)
	assert.False(t, res.Allowed, "policies sharing a prefix collide by design")
}

// Race test: concurrent checks for one identifier must serialize.
func TestLimiter_ThreadSafety(t *testing.T) {
	ctx := context.Background()
	engine := New()
	defer engine.Close()

	pol := Policy{MaxRequests: 100, Window: time.Minute, KeyPrefix: "t"}

	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		go func() {
			defer wg.Done()
			engine.Check(ctx, "ip:/api/test", pol)
		}()
	}
	wg.Wait()

	res := engine.Check(ctx, "ip:/api/test", pol)
	assert.False(t, res.Allowed, "the 101st request should find the quota exhausted")
}

func TestLimiter_PingWithoutRedis(t *testing.T) {
	engine := New()
	defer engine.Close()

	_, err := engine.Ping(context.Background())
	assert.ErrorIs(t, err, ErrNoRedis)
}

func TestLimiter_PingWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	engine := New(WithRedis(&redis.Options{Addr: mr.Addr()}))
	defer engine.Close()

	latency, err := engine.Ping(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, latency, time.Duration(0))
}
