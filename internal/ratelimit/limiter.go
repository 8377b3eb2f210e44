package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/socialsuit/Backend-Socialsuit/internal/logger"
)

const keyPrefix = "ratelimit"

// Limiter decides whether a request identity has exceeded its quota within
// the current window bucket. A nil store puts the limiter into disabled mode:
// every request is allowed with a warning, favoring availability over strict
// enforcement (fail-open).
type Limiter struct {
	store Store
	cfg   Config
	log   *zap.Logger
	now   func() time.Time
}

// NewLimiter creates a limiter over the given counter store. store may be nil
// when the platform starts degraded.
func NewLimiter(store Store, cfg Config, log *zap.Logger) *Limiter {
	return &Limiter{
		store: store,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Check performs an atomic check-and-increment for (identity, current window
// bucket) and returns the decision. Store failures fail open: the request is
// allowed and a warning is logged.
func (l *Limiter) Check(ctx context.Context, identity, route string) Decision {
	rule := l.cfg.RuleFor(route)
	limit := rule.EffectiveLimit()

	if l.store == nil {
		l.log.Warn("rate_limiter_disabled_allowing_request",
			zap.String("identity", logpkg.SanitizeIdentity(identity)),
		)
		return Decision{Allowed: true, Reason: ReasonLimiterDisabled, Limit: limit, Remaining: limit}
	}

	now := l.now()
	bucketStart := now.Truncate(rule.Window)
	key := fmt.Sprintf("%s:%s:%d", keyPrefix, identity, bucketStart.Unix())

	// TTL carries a one-second buffer past the bucket end so a counter never
	// vanishes while its bucket is still current.
	count, err := l.store.Increment(ctx, key, rule.Window+time.Second)
	if err != nil {
		l.log.Warn("rate_limit_store_unavailable_failing_open",
			zap.String("identity", logpkg.SanitizeIdentity(identity)),
			zap.Error(err),
		)
		return Decision{Allowed: true, Reason: ReasonStoreUnavailable, Limit: limit, Remaining: limit}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	if int(count) > limit {
		return Decision{
			Allowed:    false,
			Reason:     ReasonRateLimitExceeded,
			Limit:      limit,
			Remaining:  0,
			RetryAfter: bucketStart.Add(rule.Window).Sub(now),
		}
	}

	return Decision{Allowed: true, Limit: limit, Remaining: remaining}
}

// SetNowFunc overrides the clock, for tests.
func (l *Limiter) SetNowFunc(now func() time.Time) {
	l.now = now
}
