package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/socialsuit/Backend-Socialsuit/internal/app"
	"github.com/socialsuit/Backend-Socialsuit/internal/audit"
	"github.com/socialsuit/Backend-Socialsuit/internal/config"
	"github.com/socialsuit/Backend-Socialsuit/internal/database"
	"github.com/socialsuit/Backend-Socialsuit/internal/handlers"
	"github.com/socialsuit/Backend-Socialsuit/internal/logger"
	"github.com/socialsuit/Backend-Socialsuit/internal/metrics"
	"github.com/socialsuit/Backend-Socialsuit/internal/middleware"
	"github.com/socialsuit/Backend-Socialsuit/internal/ratelimit"
	"github.com/socialsuit/Backend-Socialsuit/internal/sanitize"
	"github.com/socialsuit/Backend-Socialsuit/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("api_prefix", cfg.APIPrefix),
		zap.Bool("docs_enabled", cfg.DocsEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, environmentName(debugMode), 1.0)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect backing resources. A failed connection degrades the pipeline
	// instead of blocking startup.
	application := app.New(cfg, zapLogger)
	report := application.Startup(context.Background())
	for _, status := range report {
		zapLogger.Info("startup_resource",
			zap.String("resource", status.Name),
			zap.Bool("connected", status.Connected),
		)
	}
	if report.Degraded() {
		zapLogger.Warn("starting_in_degraded_mode")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		application.Shutdown(shutdownCtx)
	}()

	srv, err := buildServer(cfg, application, report, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_build_server", zap.Error(err))
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// buildServer assembles the middleware chain and router around the connected
// resources.
func buildServer(cfg *config.Config, application *app.App, report app.StartupReport, zapLogger *zap.Logger) (*http.Server, error) {
	m := metrics.New()

	// Rate limiter. With no Redis the limiter runs disabled and every
	// request is allowed (fail-open).
	var store ratelimit.Store
	var redisClient *redis.Client
	if application.Redis != nil {
		store = application.Redis
		redisClient = application.Redis.Client()
	}

	overrides, err := config.LoadRouteOverrides(cfg.RateLimitOverridesFile)
	if err != nil {
		return nil, err
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
	limiter := ratelimit.NewLimiter(store, limiterCfg, zapLogger)

	// Audit fan-out: log always, persist and publish when attached.
	var eventStore audit.EventStore
	if application.DB != nil {
		eventStore = database.NewAuditLogRepository(application.DB)
	}
	var eventPublisher audit.EventPublisher
	if application.Publisher != nil {
		eventPublisher = application.Publisher
	}
	auditor := audit.NewRecorder(zapLogger, eventStore, eventPublisher)

	security := &middleware.Security{
		Limiter:    limiter,
		Sanitizer:  sanitize.New(cfg.SanitizeExemptPaths),
		Auditor:    auditor,
		Metrics:    m,
		Log:        zapLogger,
		EnableHSTS: cfg.EnableHSTS,
		SkipPaths:  []string{"/", "/health", "/metrics", "/docs", "/openapi.yaml", "/openapi.json"},
	}

	r := mux.NewRouter()
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}

	healthChecker := handlers.NewHealthChecker(map[string]handlers.Pinger{
		"redis":    pingerOrNil(application.Redis),
		"postgres": pingerOrNil(application.DB),
		"mongo":    pingerOrNil(application.Mongo),
		"rabbitmq": pingerOrNil(application.Publisher),
	}, zapLogger)
	r.HandleFunc("/health", healthChecker.HealthCheck).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")

	if cfg.DocsEnabled() {
		specPath := filepath.Join("api", "openapi", "openapi.yaml")
		handlers.NewOpenAPIHandler(specPath).RegisterRoutes(r)
		zapLogger.Info("docs_endpoints_enabled")
	}

	// Downstream handler groups dispatch under the configured prefix. The
	// product feature routers (scheduling, analytics, engagement) mount here
	// the same way.
	var degraded []string
	for _, status := range report {
		if !status.Connected {
			degraded = append(degraded, status.Name)
		}
	}
	statusHandler := handlers.NewStatusHandler(handlers.PipelineStatus{
		RateLimiterEnabled: store != nil,
		AuditPersistence:   application.DB != nil,
		AuditPublishing:    application.Publisher != nil,
		DegradedResources:  degraded,
	})
	api := r.PathPrefix(cfg.APIPrefix).Subrouter()
	mounted := handlers.Mount(api, cfg.APIPrefix, []handlers.Group{
		statusHandler.Group(),
	})
	r.Handle("/", handlers.NewRoot(cfg, mounted)).Methods("GET")

	// Auth-sensitive routes carry an extra strict limiter on top of the
	// platform-wide quota.
	authLimitMW, err := middleware.AuthRateLimit(redisClient, cfg.AuthRateLimit)
	if err != nil {
		return nil, err
	}
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.Use(authLimitMW)
	authRouter.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	})

	// Preflight requests short-circuit after the CORS stage.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// The chain is explicit and ordered; the first stage is outermost. The
	// body cap and timeout sit above security so the sanitizer never buffers
	// a request the limits would reject.
	stages := []middleware.Stage{
		{Name: "request_id", Enabled: true, Wrap: middleware.RequestID},
		{Name: "recover", Enabled: true, Wrap: middleware.Recover(zapLogger, m)},
		{Name: "logging", Enabled: true, Wrap: middleware.Logging(zapLogger)},
		{Name: "metrics", Enabled: true, Wrap: m.Middleware()},
		{Name: "cors", Enabled: true, Wrap: middleware.CORS(cfg)},
		{Name: "timeout", Enabled: true, Wrap: middleware.Timeout(middleware.DefaultRequestTimeout)},
		{Name: "max_request_size", Enabled: true, Wrap: middleware.MaxRequestSize(middleware.DefaultMaxRequestSize)},
		{Name: "content_type", Enabled: true, Wrap: middleware.ContentType},
		{Name: "security", Enabled: true, Wrap: security.Handler},
	}
	zapLogger.Info("middleware_chain_configured", zap.Strings("stages", middleware.StageNames(stages)))

	return &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        middleware.Chain(r, stages...),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}, nil
}

// pingerOrNil keeps typed-nil resources out of the health check map.
func pingerOrNil[T handlers.Pinger](p T) handlers.Pinger {
	var zero T
	if any(p) == any(zero) {
		return nil
	}
	return p
}

func environmentName(debugMode bool) string {
	if debugMode {
		return "development"
	}
	return "production"
}
