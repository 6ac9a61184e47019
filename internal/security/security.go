package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/behaviorlab/inconsistency-meter/internal/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxTextLength  int           `json:"max_text_length"`
	AllowedOrigins []string      `json:"allowed_origins"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableHSTS     bool          `json:"enable_hsts"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxTextLength:  5000,
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware provides the HTTP hardening middleware and the text
// checks applied to every answer before it is analyzed.
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{config: config}
}

var (
	scriptPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// ValidateText rejects answer or question text that cannot be analyzed
func (sm *SecurityMiddleware) ValidateText(field, input string) error {
	if utf8.RuneCountInString(input) > sm.config.MaxTextLength {
		return apperrors.NewValidationError(fmt.Sprintf("%s exceeds maximum length of %d characters", field, sm.config.MaxTextLength))
	}

	// null bytes never occur in typed or transcribed speech
	if strings.Contains(input, "\x00") {
		return apperrors.NewValidationError(fmt.Sprintf("%s contains invalid characters", field))
	}

	if !utf8.ValidString(input) {
		return apperrors.NewValidationError(fmt.Sprintf("%s contains invalid UTF-8 encoding", field))
	}

	return nil
}

// SanitizeText strips markup and collapses whitespace. Punctuation and
// letters are kept since the analyzers normalize them.
func (sm *SecurityMiddleware) SanitizeText(input string) string {
	input = scriptPattern.ReplaceAllString(input, " ")
	input = htmlTagPattern.ReplaceAllString(input, " ")
	input = spacePattern.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// SecurityHeaders adds security headers to responses. Camera and microphone
// stay available to the first-party page that captures face and voice signals.
func (sm *SecurityMiddleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("X-XSS-Protection", "1; mode=block")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Permissions-Policy", "camera=(self), microphone=(self), geolocation=()")
	c.Header("Content-Security-Policy", "default-src 'self'; connect-src 'self' ws: wss:; img-src 'self' data:; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'")

	if sm.config.EnableHSTS || c.Request.TLS != nil {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	c.Next()
}

// ValidateContentType rejects bodies that are not JSON
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.ContentLength == 0 || c.Request.Method == http.MethodGet {
		c.Next()
		return
	}

	contentType := strings.ToLower(c.GetHeader("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "application/json") {
		appErr := apperrors.NewValidationError("unsupported content type", contentType)
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, appErr)
		return
	}

	c.Next()
}

// RequestTimeout bounds the request context
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	if sm.config.RequestTimeout <= 0 {
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// CORSConfig builds the CORS middleware for the configured origins
func (sm *SecurityMiddleware) CORSConfig() gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     sm.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", "X-Cache"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}
