package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Limiter counts hits for a scope inside a fixed window.
type Limiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (redisclient.Window, error)
}

// RateLimitPolicy defines the throttling parameters for a traffic surface.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

// NewRateLimitPolicy builds a per-client-IP policy.
func NewRateLimitPolicy(name string, window time.Duration, limit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) scope(ip string) string {
	name := p.name
	if name == "" {
		name = "api"
	}
	return "ip:" + name + ":" + ip
}

// RateLimit rejects clients that exceed policy with 429 and reports the
// window in X-RateLimit-* headers on every response. Counting goes through
// limiter, which redis backs; a nil limiter disables the middleware.
func RateLimit(policy RateLimitPolicy, limiter Limiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)

			win, err := limiter.FixedWindowAllow(ctx, policy.scope(ip), int64(policy.limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}

			remaining := int64(policy.limit) - win.Count
			if remaining < 0 {
				remaining = 0
			}
			resetSeconds := int(win.ResetIn.Round(time.Second) / time.Second)
			if resetSeconds < 1 {
				resetSeconds = 1
			}
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(policy.limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.Itoa(resetSeconds))

			if !win.Allowed {
				h.Set("Retry-After", strconv.Itoa(resetSeconds))
				logBlocked(ctx, logg, policy, ip, win.Count)
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LocalRateLimit applies policy with in-process counters, for deployments
// without redis. Counters are per instance.
func LocalRateLimit(policy RateLimitPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	if !policy.enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		policy.limit,
		policy.window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return policy.scope(clientIP(r)), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logBlocked(ctx, logg, policy, clientIP(r), -1)
			responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
		}),
	)
}

// logBlocked records a throttled request; attempts below zero are unknown.
func logBlocked(ctx context.Context, logg *logger.Logger, policy RateLimitPolicy, ip string, attempts int64) {
	if logg == nil {
		return
	}
	fields := map[string]any{
		"ip":             ip,
		"policy":         policy.name,
		"limit":          policy.limit,
		"window_seconds": int(policy.window.Seconds()),
	}
	if attempts >= 0 {
		fields["attempts"] = attempts
	}
	logg.Warn(logg.WithFields(ctx, fields), "rate_limit.blocked")
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
