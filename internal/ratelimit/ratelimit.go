// Package ratelimit implements fixed-window request counting against a shared
// counter store. Windows are aligned buckets keyed by floor(now/window), so a
// client can admit up to 2x the limit across a bucket boundary; that trade-off
// is accepted in exchange for race-tolerant atomic counting.
package ratelimit

import (
	"sort"
	"strings"
	"time"
)

// Rule is a rate limit rule: at most MaxRequests+Burst requests per Window.
type Rule struct {
	Window      time.Duration
	MaxRequests int
	Burst       int
}

// EffectiveLimit is the number of requests admitted per window.
func (r Rule) EffectiveLimit() int {
	return r.MaxRequests + r.Burst
}

// Config holds the default rule plus per-route overrides. It is immutable
// after construction.
type Config struct {
	Default   Rule
	overrides []routeRule
}

type routeRule struct {
	prefix string
	rule   Rule
}

// NewConfig builds a Config from a default rule and route-prefix overrides.
// An override replaces the default entirely for matching routes. When several
// overrides match a route, the longest prefix wins.
func NewConfig(def Rule, overrides map[string]Rule) Config {
	cfg := Config{Default: def}
	for prefix, rule := range overrides {
		cfg.overrides = append(cfg.overrides, routeRule{prefix: prefix, rule: rule})
	}
	sort.Slice(cfg.overrides, func(i, j int) bool {
		return len(cfg.overrides[i].prefix) > len(cfg.overrides[j].prefix)
	})
	return cfg
}

// RuleFor resolves the rule for a route. Longest matching override prefix
// wins; otherwise the default applies.
func (c Config) RuleFor(route string) Rule {
	for _, o := range c.overrides {
		if strings.HasPrefix(route, o.prefix) {
			return o.rule
		}
	}
	return c.Default
}

// Deny reasons carried in decisions and audit records.
const (
	ReasonRateLimitExceeded = "rate_limit_exceeded"
	ReasonStoreUnavailable  = "store_unavailable"
	ReasonLimiterDisabled   = "limiter_disabled"
)

// Decision is the outcome of a single rate check. It is produced and consumed
// within one request's lifetime.
type Decision struct {
	Allowed    bool
	Reason     string
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}
