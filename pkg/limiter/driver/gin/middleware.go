// Package gin adapts the limiter engine to gin's middleware chain.
package gin

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohasinac/letitrip.in-sub054/pkg/limiter"
)

// Middleware holds the per-route wiring of a limiter check.
type Middleware struct {
	Limiter    *limiter.Limiter
	Policy     limiter.Policy
	OnExceeded func(*gin.Context, limiter.Result)
	KeyGetter  func(*gin.Context) string
}

// New returns a gin handler enforcing pol via l. By default requests are
// keyed by client IP and request path, and throttled requests get a JSON 429.
func New(l *limiter.Limiter, pol limiter.Policy, options ...Option) gin.HandlerFunc {
	m := &Middleware{
		Limiter:    l,
		Policy:     pol,
		OnExceeded: DefaultExceededHandler(pol),
		KeyGetter:  DefaultKeyGetter,
	}

	for _, opt := range options {
		opt(m)
	}

	return func(c *gin.Context) {
		m.Handle(c)
	}
}

// Handle runs the check for one request.
func (m *Middleware) Handle(c *gin.Context) {
	res := m.Limiter.Check(c.Request.Context(), m.KeyGetter(c), m.Policy)

	c.Header("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

	if !res.Allowed {
		m.OnExceeded(c, res)
		return
	}

	c.Next()
}

// Option customizes a Middleware.
type Option func(*Middleware)

// WithExceededHandler replaces the throttled-request handler.
func WithExceededHandler(handler func(*gin.Context, limiter.Result)) Option {
	return func(m *Middleware) {
		m.OnExceeded = handler
	}
}

// WithKeyGetter replaces how the quota identifier is derived.
func WithKeyGetter(getter func(*gin.Context) string) Option {
	return func(m *Middleware) {
		m.KeyGetter = getter
	}
}

// DefaultKeyGetter keys requests by client IP and path.
func DefaultKeyGetter(c *gin.Context) string {
	return c.ClientIP() + ":" + c.Request.URL.Path
}

// DefaultExceededHandler aborts with a 429, a Retry-After hint and the
// policy's message.
func DefaultExceededHandler(pol limiter.Policy) func(*gin.Context, limiter.Result) {
	return func(c *gin.Context, res limiter.Result) {
		retryAfter := int64(math.Ceil(time.Until(res.ResetAt).Seconds()))
		if retryAfter < 0 {
			retryAfter = 0
		}
		msg := pol.Message
		if msg == "" {
			msg = "Too many requests, please try again later"
		}
		c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		c.AbortWithStatusJSON(429, gin.H{
			"error":      msg,
			"retryAfter": retryAfter,
			"limit":      res.Limit,
			"remaining":  0,
		})
	}
}
