package limiter

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
)

const defaultThrottleMessage = "Too many requests, please try again later"

// KeyFunc derives the quota identifier for a request. Any two distinct
// strings are fully independent buckets.
type KeyFunc func(*http.Request) string

// throttleBody is the JSON payload of a 429 response.
type throttleBody struct {
	Error      string `json:"error"`
	RetryAfter int64  `json:"retryAfter"`
	Limit      int64  `json:"limit"`
	Remaining  int64  `json:"remaining"`
}

// Middleware wraps an http.Handler with a rate-limit check under pol.
// A nil keyFn limits per client IP and endpoint path.
//
// Allowed requests carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset headers into the downstream handler's response. Throttled
// requests are short-circuited with a 429, the policy's message, the same
// quota headers and a Retry-After hint in whole seconds.
func Middleware(l *Limiter, pol Policy, keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = EndpointKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := l.Check(r.Context(), keyFn(r), pol)

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retryAfter := int64(math.Ceil(res.ResetAt.Sub(l.now()).Seconds()))
				if retryAfter < 0 {
					retryAfter = 0
				}
				msg := pol.Message
				if msg == "" {
					msg = defaultThrottleMessage
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(throttleBody{
					Error:      msg,
					RetryAfter: retryAfter,
					Limit:      res.Limit,
					Remaining:  0,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// EndpointKey combines the client address and endpoint path, so each client
// gets an independent quota per endpoint.
func EndpointKey(r *http.Request) string {
	return ClientIP(r) + ":" + r.URL.Path
}

// ClientIP extracts the originating client address, preferring the first hop
// of X-Forwarded-For, then X-Real-IP, then the connection's remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
