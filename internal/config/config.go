package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. It is loaded once at process start
// and must not be mutated afterwards.
type Config struct {
	ServerPort string `validate:"required,numeric"`
	BaseURL    string
	APIPrefix  string `validate:"required,startswith=/"`

	DatabaseURL string
	RedisURL    string
	MongoURL    string
	RabbitMQURL string

	CORSAllowOrigins     []string
	CORSAllowMethods     []string
	CORSAllowHeaders     []string
	CORSAllowCredentials bool

	RateLimitWindowSeconds  int `validate:"gte=1"`
	RateLimitMaxRequests    int `validate:"gte=1"`
	RateLimitBurst          int `validate:"gte=0"`
	RateLimitOverridesFile  string
	AuthRateLimit           string
	SanitizeExemptPaths     []string

	EnableHSTS      bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// RouteOverride is a per-route rate limit rule loaded from the overrides file.
// An override replaces the global default entirely for matching routes; there
// is no field-level merging.
type RouteOverride struct {
	Route         string `yaml:"route"`
	WindowSeconds int    `yaml:"window_seconds"`
	MaxRequests   int    `yaml:"max_requests"`
	Burst         int    `yaml:"burst"`
}

// Load loads configuration from the environment. A .env file is honored if
// present but never required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),
		APIPrefix:  getEnv("API_PREFIX", "/api/v1/social-suit"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		MongoURL:    getEnv("MONGO_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		CORSAllowOrigins:     getEnvList("CORS_ALLOW_ORIGINS", nil),
		CORSAllowMethods:     getEnvList("CORS_ALLOW_METHODS", []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"}),
		CORSAllowHeaders:     getEnvList("CORS_ALLOW_HEADERS", []string{"Content-Type", "Authorization", "X-API-Key"}),
		CORSAllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),

		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitMaxRequests:   getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitBurst:         getEnvInt("RATE_LIMIT_BURST", 0),
		RateLimitOverridesFile: getEnv("RATE_LIMIT_OVERRIDES_FILE", ""),
		AuthRateLimit:          getEnv("AUTH_RATE_LIMIT", "5-M"),
		SanitizeExemptPaths:    getEnvList("SANITIZE_EXEMPT_PATHS", []string{"/docs", "/redoc", "/openapi.json"}),

		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DocsEnabled reports whether interactive API docs should be served. Docs are
// disabled as soon as restricted CORS origins are configured, which is the
// production-safety default.
func (c *Config) DocsEnabled() bool {
	return len(c.CORSAllowOrigins) == 0
}

// LoadRouteOverrides reads per-route rate limit overrides from a YAML file.
// A missing path returns no overrides.
func LoadRouteOverrides(path string) ([]RouteOverride, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate limit overrides: %w", err)
	}
	var doc struct {
		Overrides []RouteOverride `yaml:"overrides"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rate limit overrides: %w", err)
	}
	for _, o := range doc.Overrides {
		if o.Route == "" || o.WindowSeconds < 1 || o.MaxRequests < 1 || o.Burst < 0 {
			return nil, fmt.Errorf("invalid override for route %q", o.Route)
		}
	}
	return doc.Overrides, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
