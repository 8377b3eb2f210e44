package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/socialsuit/Backend-Socialsuit/internal/config"
)

// CORS builds the CORS middleware from startup configuration. The allow-lists
// are immutable for the process lifetime. With no configured origins the
// policy defaults to the local frontend, which keeps development working
// while production deployments set explicit origins.
func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   cfg.CORSAllowMethods,
		AllowedHeaders:   cfg.CORSAllowHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           86400,
	})
	return c.Handler
}
