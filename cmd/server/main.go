package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/analysis"
	"github.com/behaviorlab/inconsistency-meter/internal/api"
	"github.com/behaviorlab/inconsistency-meter/internal/cache"
	"github.com/behaviorlab/inconsistency-meter/internal/config"
	"github.com/behaviorlab/inconsistency-meter/internal/database"
	"github.com/behaviorlab/inconsistency-meter/internal/errors"
	"github.com/behaviorlab/inconsistency-meter/internal/events"
	"github.com/behaviorlab/inconsistency-meter/internal/middleware"
	"github.com/behaviorlab/inconsistency-meter/internal/monitoring"
	"github.com/behaviorlab/inconsistency-meter/internal/privacy"
	"github.com/behaviorlab/inconsistency-meter/internal/ratelimit"
	"github.com/behaviorlab/inconsistency-meter/internal/realtime"
	"github.com/behaviorlab/inconsistency-meter/internal/resilience"
	"github.com/behaviorlab/inconsistency-meter/internal/security"
	"github.com/behaviorlab/inconsistency-meter/internal/session"
	"github.com/gin-gonic/gin"
)

// @title Inconsistency Meter API
// @version 1.0
// @description Heuristic behavioral inconsistency scoring for interview sessions
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging setup
	level := monitoring.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	appLogger := monitoring.NewLogger(level)
	appMetrics := monitoring.NewMetrics()

	gin.SetMode(cfg.Server.GinMode)

	db, err := database.NewDB(cfg.Storage.DataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer errors.SafeClose(db, "database")
	repo := database.NewRepository(db)

	// Lexicon files are editable; write the defaults once so there is
	// something to edit.
	lexicons := analysis.NewLexiconStore(cfg.Lexicon.Dir)
	if err := lexicons.BootstrapLexicons(map[string]analysis.Lexicon{cfg.Lexicon.Locale: analysis.DefaultLexicon()}); err != nil {
		slog.Warn("Failed to write default lexicon", "error", err)
	}
	lexicon, err := lexicons.LoadLexicon(cfg.Lexicon.Locale)
	if err != nil {
		slog.Error("Failed to load lexicon", "locale", cfg.Lexicon.Locale, "error", err)
		os.Exit(1)
	}

	engine, err := analysis.NewEngine(analysis.Config{Lexicon: lexicon, Weights: cfg.Weights})
	if err != nil {
		slog.Error("Failed to build scoring engine", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Redis backs rate limiting and the score cache when configured
	redisClient, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory rate limiting and score cache", "error", err)
	}
	defer errors.SafeClose(redisClient, "redis")

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:       cfg.RateLimit.IPPerMinute,
		AnalysisLimitPerMin: cfg.RateLimit.AnalysisPerMinute,
		CleanupInterval:     10 * time.Minute,
	}, appMetrics)
	defer limiter.Close()

	responseCache := cache.NewCache(cfg.CacheTTL())
	defer responseCache.Close()

	var scores cache.ScoreCache
	if redisClient.IsEnabled() {
		scores = cache.NewRedisScoreCache(redisClient.GetClient(), cfg.CacheTTL())
	} else {
		scoreMemory := cache.NewCache(cfg.CacheTTL())
		defer scoreMemory.Close()
		scores = cache.NewMemoryScoreCache(scoreMemory)
	}

	publisher, err := events.NewEventPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, appMetrics)
	if err != nil {
		slog.Warn("Event broker unavailable, event publishing is disabled", "error", err)
	}
	defer errors.SafeClose(publisher, "event publisher")

	sessions := session.NewService(session.Deps{
		Repo:      repo,
		Engine:    engine,
		Scores:    scores,
		Publisher: publisher,
		Metrics:   appMetrics,
		Logger:    appLogger,
	})

	privacyService := privacy.NewService(repo, sessions)

	// Schedule data cleanup (runs daily)
	go privacyService.StartRetentionLoop(ctx, 24*time.Hour, cfg.Privacy.RetentionDays)

	health := resilience.NewHealthRegistry(2 * time.Second)
	health.Register("sqlite", true, db.PingContext)
	if redisClient.IsEnabled() {
		health.Register("redis", false, redisClient.HealthCheck)
	}
	if publisher.Enabled() {
		health.Register("amqp", false, func(context.Context) error {
			if cb := resilience.GetCircuitBreaker("amqp", resilience.CircuitBreakerConfig{}); cb.State() == resilience.StateOpen {
				return resilience.NewCircuitBreakerError("event broker circuit is open", resilience.StateOpen)
			}
			return nil
		})
	}

	securityConfig := security.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = cfg.Server.CORSOrigins
	securityConfig.RequestTimeout = cfg.RequestTimeout()
	securityMiddleware := security.NewSecurityMiddleware(securityConfig)

	hub := realtime.NewHub(appMetrics, appLogger)

	r := api.NewRouter(api.Deps{
		Sessions:      sessions,
		Engine:        engine,
		Privacy:       privacyService,
		Security:      securityMiddleware,
		Limiter:       limiter,
		ResponseCache: responseCache,
		Compression:   middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		Realtime:      realtime.NewHandler(hub, cfg.Server.CORSOrigins),
		Health:        health,
		DB:            db,
		Metrics:       appMetrics,
		Logger:        appLogger,
		RetentionDays: cfg.Privacy.RetentionDays,
	})

	// Performance profiling endpoints (development only)
	if os.Getenv("ENABLE_PROFILING") == "true" {
		slog.Info("Enabling performance profiling endpoints")
		// gin rejects static routes next to a catch-all, so dispatch here
		r.GET("/debug/pprof/*name", func(c *gin.Context) {
			switch c.Param("name") {
			case "/cmdline":
				pprof.Cmdline(c.Writer, c.Request)
			case "/profile":
				pprof.Profile(c.Writer, c.Request)
			case "/symbol":
				pprof.Symbol(c.Writer, c.Request)
			case "/trace":
				pprof.Trace(c.Writer, c.Request)
			default:
				pprof.Index(c.Writer, c.Request)
			}
		})
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.SystemLogger("startup", "listening on :"+cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	stop()
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}
