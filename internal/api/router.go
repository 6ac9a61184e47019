package api

import (
	"net/http"
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/analysis"
	"github.com/behaviorlab/inconsistency-meter/internal/cache"
	"github.com/behaviorlab/inconsistency-meter/internal/database"
	apperrors "github.com/behaviorlab/inconsistency-meter/internal/errors"
	"github.com/behaviorlab/inconsistency-meter/internal/middleware"
	"github.com/behaviorlab/inconsistency-meter/internal/monitoring"
	"github.com/behaviorlab/inconsistency-meter/internal/privacy"
	"github.com/behaviorlab/inconsistency-meter/internal/ratelimit"
	"github.com/behaviorlab/inconsistency-meter/internal/realtime"
	"github.com/behaviorlab/inconsistency-meter/internal/resilience"
	"github.com/behaviorlab/inconsistency-meter/internal/security"
	"github.com/behaviorlab/inconsistency-meter/internal/session"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Version is reported by /health
const Version = "1.0.0"

// Deps are the services the HTTP layer is wired to. Limiter, ResponseCache,
// Compression, Realtime and DB are optional.
type Deps struct {
	Sessions      *session.Service
	Engine        *analysis.Engine
	Privacy       *privacy.PrivacyService
	Security      *security.SecurityMiddleware
	Limiter       *ratelimit.RateLimiter
	ResponseCache *cache.Cache
	Compression   *middleware.CompressionMiddleware
	Realtime      *realtime.Handler
	Health        *resilience.HealthRegistry
	DB            *database.DB
	Metrics       *monitoring.Metrics
	Logger        *monitoring.Logger
	RetentionDays int
}

// Server holds the HTTP handlers
type Server struct {
	deps Deps
}

// analysisPaths are pure functions of their body and share the response cache
var analysisPaths = []string{"/nlp/analyze", "/nlp/consistency", "/nlp/emotion"}

// NewRouter builds the gin engine with the full middleware chain
func NewRouter(d Deps) *gin.Engine {
	registerValidators()
	if d.Metrics == nil {
		d.Metrics = monitoring.NewMetrics()
	}
	if d.Logger == nil {
		d.Logger = monitoring.NewLogger(monitoring.ParseLevel("info"))
	}
	if d.Security == nil {
		d.Security = security.NewSecurityMiddleware(security.DefaultSecurityConfig())
	}

	s := &Server{deps: d}
	r := gin.New()

	if d.Compression != nil {
		r.Use(d.Compression.Handler())
	}
	r.Use(monitoring.MonitoringMiddleware(d.Metrics, d.Logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(d.Logger))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())

	r.Use(d.Security.SecurityHeaders)
	r.Use(d.Security.CORSConfig())
	r.Use(d.Security.RequestTimeout)
	r.Use(d.Security.ValidateContentType)

	pass := func(c *gin.Context) { c.Next() }
	analysisLimit := pass
	if d.Limiter != nil {
		r.Use(d.Limiter.IPRateLimitMiddleware())
		analysisLimit = d.Limiter.AnalysisRateLimitMiddleware()
	}
	// cache hits still spend the analysis budget, so the cache sits behind it
	responseCache := pass
	if d.ResponseCache != nil {
		responseCache = d.ResponseCache.MiddlewareUnless(d.Metrics, analyzeStoresAnswer, analysisPaths...)
	}

	r.GET("/health", s.health)
	r.GET("/metrics", s.metrics)
	r.GET("/privacy/policy", s.privacyPolicy)
	r.GET("/questions/templates", s.questionTemplates)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	sessions := r.Group("/sessions")
	{
		sessions.POST("", s.createSession)
		sessions.GET("/:id", s.getSession)
		sessions.DELETE("/:id", s.deleteSession)
		sessions.POST("/:id/bootstrap-questions", s.bootstrapQuestions)
		sessions.GET("/:id/questions", s.listQuestions)
		sessions.GET("/:id/questions/:questionId/consistency", s.questionConsistency)
		sessions.POST("/:id/answers", s.submitAnswer)
		sessions.POST("/:id/calculate-score", analysisLimit, s.calculateScore)
		sessions.GET("/:id/score", s.getScore)
	}

	nlp := r.Group("/nlp", analysisLimit, responseCache)
	{
		nlp.POST("/analyze", s.analyze)
		nlp.POST("/consistency", s.consistency)
		nlp.POST("/emotion", s.emotion)
	}

	if d.Realtime != nil {
		r.GET("/ws/metrics", d.Realtime.Serve)
	}

	r.NoRoute(func(c *gin.Context) {
		s.fail(c, apperrors.NewNotFoundError("route", c.Request.URL.Path))
	})

	return r
}

// fail renders err as an AppError response
func (s *Server) fail(c *gin.Context, err error) {
	appErr := apperrors.ToAppError(err)
	appErr.RequestID = c.GetHeader("X-Request-ID")
	apperrors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}

// health godoc
// @Summary Service health
// @Description Checks the database, redis and the event broker
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	status := "ok"
	var deps []resilience.DependencyHealth
	if s.deps.Health != nil {
		status, deps = s.deps.Health.Check(c.Request.Context())
	}

	code := http.StatusOK
	if status == "unavailable" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":       status,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"version":      Version,
		"dependencies": deps,
	})
}

// metrics godoc
// @Summary Runtime counters
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics [get]
func (s *Server) metrics(c *gin.Context) {
	stats := gin.H{
		"app":              s.deps.Metrics.GetStats(),
		"circuit_breakers": resilience.GetCircuitBreakerStats(),
	}
	if s.deps.ResponseCache != nil {
		stats["cache"] = s.deps.ResponseCache.Stats()
	}
	if s.deps.Limiter != nil {
		stats["rate_limit"] = s.deps.Limiter.GetStats()
	}
	if s.deps.Compression != nil {
		stats["compression"] = s.deps.Compression.GetStats()
	}
	if s.deps.DB != nil {
		stats["database"] = s.deps.DB.GetPoolStats()
	}
	if n, err := s.deps.Sessions.StoredSessions(c.Request.Context()); err == nil {
		stats["sessions_stored"] = n
	}
	c.JSON(http.StatusOK, stats)
}

// privacyPolicy godoc
// @Summary Data retention policy
// @Tags privacy
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /privacy/policy [get]
func (s *Server) privacyPolicy(c *gin.Context) {
	if s.deps.Privacy == nil {
		s.fail(c, apperrors.NewNotFoundError("route", c.Request.URL.Path))
		return
	}
	c.JSON(http.StatusOK, s.deps.Privacy.GetDataRetentionInfo(s.deps.RetentionDays))
}
