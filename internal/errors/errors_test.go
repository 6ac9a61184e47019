package errors

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		category ErrorCategory
		status   int
		message  string
	}{
		{"validation", NewValidationError("answer is required", "answer"), CategoryValidation, http.StatusBadRequest, "[VALIDATION_ERROR] answer is required"},
		{"not found", NewNotFoundError("session", "abc"), CategoryNotFound, http.StatusNotFound, "[NOT_FOUND] session not found"},
		{"conflict", NewConflictError("questions already bootstrapped"), CategoryConflict, http.StatusConflict, "[CONFLICT] questions already bootstrapped"},
		{"timeout", NewTimeoutError("Request timeout", context.DeadlineExceeded), CategoryTimeout, http.StatusGatewayTimeout, "[TIMEOUT_ERROR] Request timeout"},
		{"rate limit", NewRateLimitError("60s"), CategoryRateLimit, http.StatusTooManyRequests, "[RATE_LIMIT_EXCEEDED] Rate limit exceeded"},
		{"internal", NewInternalError("db exploded", fmt.Errorf("boom")), CategoryInternal, http.StatusInternalServerError, "[INTERNAL_ERROR] Internal server error"},
		{"configuration", NewConfigurationError("bad weights", nil), CategoryConfiguration, http.StatusInternalServerError, "[CONFIGURATION_ERROR] Configuration error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.message, tt.err.Error())
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestNewValidationErrorWithMap(t *testing.T) {
	err := NewValidationErrorWithMap(map[string]string{
		"answer":    "is required",
		"faceScore": "must be between 0 and 10",
	})

	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, errbuilder.CodeInvalidArgument, err.ErrCode())
	assert.Len(t, err.Details.Errors, 2)
}

func TestToAppError(t *testing.T) {
	existing := NewConflictError("dup")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
	}{
		{"keeps app errors", existing, CategoryConflict},
		{"unwraps wrapped app errors", fmt.Errorf("ctx: %w", existing), CategoryConflict},
		{"no rows", fmt.Errorf("get session: %w", sql.ErrNoRows), CategoryNotFound},
		{"canceled", context.Canceled, CategoryTimeout},
		{"deadline", context.DeadlineExceeded, CategoryTimeout},
		{"anything else", fmt.Errorf("disk full"), CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, ToAppError(tt.err).Category)
		})
	}

	assert.Nil(t, ToAppError(nil))
	assert.Same(t, existing, ToAppError(existing))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewInternalError("wrapped", cause)

	assert.ErrorIs(t, err, cause)
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/missing", func(c *gin.Context) {
		_ = c.Error(NewNotFoundError("session", "s1"))
	})
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-ID", "req-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["category"])
	assert.Equal(t, "req-1", body["request_id"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RecoveryHandler())
	router.GET("/panic", func(c *gin.Context) {
		panic("scoring exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal")
}

func TestAppError_MarshalJSON(t *testing.T) {
	err := NewValidationErrorWithMap(map[string]string{"faceScore": "must be at most 10"})
	err.StackTrace = "goroutine 1"

	raw, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "validation", body["category"])
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, float64(http.StatusBadRequest), body["http_status"])
	assert.NotContains(t, body, "stack_trace")

	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details["faceScore"], "must be at most 10")
}
