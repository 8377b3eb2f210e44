package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/socialsuit/Backend-Socialsuit/internal/config"
)

// NewConfigCmd creates the config inspection command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect resolved configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the configuration the server would start with",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			fmt.Printf("Server port:       %s\n", cfg.ServerPort)
			fmt.Printf("Base URL:          %s\n", cfg.BaseURL)
			fmt.Printf("API prefix:        %s\n", cfg.APIPrefix)
			fmt.Printf("Docs enabled:      %t\n", cfg.DocsEnabled())
			fmt.Printf("Rate limit:        %d req / %ds (+%d burst)\n",
				cfg.RateLimitMaxRequests, cfg.RateLimitWindowSeconds, cfg.RateLimitBurst)
			fmt.Printf("Auth rate limit:   %s\n", cfg.AuthRateLimit)
			fmt.Printf("Sanitize exempt:   %s\n", strings.Join(cfg.SanitizeExemptPaths, ", "))
			fmt.Printf("CORS origins:      %s\n", strings.Join(cfg.CORSAllowOrigins, ", "))
			fmt.Printf("HSTS enabled:      %t\n", cfg.EnableHSTS)
			fmt.Printf("OTEL enabled:      %t\n", cfg.OTELEnabled)

			fmt.Printf("Redis configured:    %t\n", cfg.RedisURL != "")
			fmt.Printf("Postgres configured: %t\n", cfg.DatabaseURL != "")
			fmt.Printf("Mongo configured:    %t\n", cfg.MongoURL != "")
			fmt.Printf("RabbitMQ configured: %t\n", cfg.RabbitMQURL != "")

			if cfg.RateLimitOverridesFile != "" {
				overrides, err := config.LoadRouteOverrides(cfg.RateLimitOverridesFile)
				if err != nil {
					return fmt.Errorf("load route overrides: %w", err)
				}
				fmt.Printf("Route overrides (%s):\n", cfg.RateLimitOverridesFile)
				for _, o := range overrides {
					fmt.Printf("  %s: %d req / %ds (+%d burst)\n",
						o.Route, o.MaxRequests, o.WindowSeconds, o.Burst)
				}
			}
			return nil
		},
	}
}
