package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), "input=%q", tt.input)
	}
}

func TestLogger_ScoringLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

	logger.ScoringLogger("s1", 3, 4, 42.5, 15*time.Millisecond)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Session Scored", entry["msg"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, float64(3), entry["answered_questions"])
	assert.Equal(t, float64(4), entry["total_questions"])
	assert.Equal(t, 42.5, entry["final_score"])
	assert.Contains(t, entry, "timestamp")
}

func TestLogger_CacheLoggerIsDebugOnly(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter(&buf, slog.LevelInfo).CacheLogger("score", "0123456789abcdef", true)
	assert.Empty(t, buf.String())

	NewLoggerWithWriter(&buf, slog.LevelDebug).CacheLogger("score", "0123456789abcdef", true)
	assert.Contains(t, buf.String(), `"key":"01234567..."`)
	assert.Contains(t, buf.String(), `"cache":"score"`)
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementSessionScored()
	m.RecordEventPublish(true)
	m.RecordEventPublish(false)
	assert.Equal(t, int64(1), m.RealtimeConnected(1))
	assert.Equal(t, int64(0), m.RealtimeConnected(-1))

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.Equal(t, 50.0, stats["cache_hit_rate_percent"])
	assert.Equal(t, int64(1), stats["sessions_scored"])
	assert.Equal(t, int64(1), stats["events_published"])
	assert.Equal(t, int64(1), stats["event_publish_errors"])
}

func TestMetrics_Percentiles(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, time.Duration(0), m.GetPercentileResponseTime(50))

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	assert.Equal(t, 50*time.Millisecond, m.GetPercentileResponseTime(50))
	assert.Equal(t, 100*time.Millisecond, m.GetPercentileResponseTime(100))
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	metrics := NewMetrics()
	router := gin.New()
	router.Use(MonitoringMiddleware(metrics, NewLoggerWithWriter(&buf, slog.LevelInfo)))
	router.GET("/sessions/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/secret-id", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, int64(2), metrics.RequestCount)
	assert.Equal(t, int64(1), metrics.ErrorCount)
	assert.Equal(t, map[int]int64{200: 1, 500: 1}, metrics.GetStatusCodeDistribution())
	assert.Contains(t, buf.String(), `"path":"/sessions/:id"`)
	assert.NotContains(t, buf.String(), "secret-id")
	assert.Contains(t, buf.String(), "API Error")
}

func TestSecurityMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := gin.New()
	router.Use(SecurityMonitoringMiddleware(NewLoggerWithWriter(&buf, slog.LevelInfo)))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, buf.String())

	req = httptest.NewRequest(http.MethodGet, "/health?q=1%20UNION%20SELECT", nil)
	req.Header.Set("User-Agent", "sqlmap/1.7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(buf.String(), "suspicious_activity_detected"))
}
