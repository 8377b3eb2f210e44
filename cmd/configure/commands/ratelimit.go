package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/socialsuit/Backend-Socialsuit/internal/config"
	"github.com/socialsuit/Backend-Socialsuit/internal/ratelimit"
)

// NewRatelimitCmd creates the rate limit probe command.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Exercise the rate limiter",
	}
	cmd.AddCommand(newRatelimitProbeCmd())
	return cmd
}

func newRatelimitProbeCmd() *cobra.Command {
	var (
		identity string
		route    string
		count    int
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send counted checks through the configured limiter",
		Long:  "Runs the limiter against the configured Redis store (or in-memory when Redis is unset) and prints each decision.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			var store ratelimit.Store
			if cfg.RedisURL != "" {
				redisStore, err := ratelimit.NewRedisStore(cfg.RedisURL)
				if err != nil {
					return fmt.Errorf("connect to redis: %w", err)
				}
				defer func() { _ = redisStore.Close() }()
				store = redisStore
			} else {
				fmt.Println("REDIS_URL not set; probing against an in-memory store")
				store = ratelimit.NewMemoryStore()
			}

			overrides, err := config.LoadRouteOverrides(cfg.RateLimitOverridesFile)
			if err != nil {
				return fmt.Errorf("load route overrides: %w", err)
			}
			routeRules := make(map[string]ratelimit.Rule, len(overrides))
			for _, o := range overrides {
				routeRules[o.Route] = ratelimit.Rule{
					Window:      time.Duration(o.WindowSeconds) * time.Second,
					MaxRequests: o.MaxRequests,
					Burst:       o.Burst,
				}
			}
			limiterCfg := ratelimit.NewConfig(ratelimit.Rule{
				Window:      time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
				MaxRequests: cfg.RateLimitMaxRequests,
				Burst:       cfg.RateLimitBurst,
			}, routeRules)
			limiter := ratelimit.NewLimiter(store, limiterCfg, zap.NewNop())

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			for i := 0; i < count; i++ {
				d := limiter.Check(ctx, identity, route)
				if d.Allowed {
					fmt.Printf("%3d: allowed (remaining %d of %d)\n", i+1, d.Remaining, d.Limit)
				} else {
					fmt.Printf("%3d: DENIED (%s, retry after %s)\n", i+1, d.Reason, d.RetryAfter)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "ip:127.0.0.1", "Client identity to probe as")
	cmd.Flags().StringVar(&route, "route", "/", "Route path used for override matching")
	cmd.Flags().IntVar(&count, "count", 10, "Number of checks to run")
	return cmd
}
