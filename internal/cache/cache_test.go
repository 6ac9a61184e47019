package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/analysis"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	hits   int64
	misses int64
}

func (m *countingMetrics) IncrementCacheHit()  { atomic.AddInt64(&m.hits, 1) }
func (m *countingMetrics) IncrementCacheMiss() { atomic.AddInt64(&m.misses, 1) }

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c := NewCache(ttl)
	t.Cleanup(c.Close)
	return c
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("a", []byte("1"))
	data, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), data)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := newTestCache(t, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	now = now.Add(2 * time.Minute)
	stats := c.Stats()
	assert.Equal(t, 2, stats["expired_items"])
	assert.Equal(t, 0, stats["active_items"])

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size(), "expired item is dropped on read")

	assert.Equal(t, 1, c.sweep())
	assert.Equal(t, 0, c.Size())
}

func TestCacheClear(t *testing.T) {
	c := newTestCache(t, time.Minute)
	c.Set("a", []byte("1"))
	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("/nlp/analyze", []byte(`{"a":1}`)), Key("/nlp/analyze", []byte(`{"a":1}`)))
	assert.NotEqual(t, Key("/nlp/analyze", []byte(`{"a":1}`)), Key("/nlp/emotion", []byte(`{"a":1}`)))
	assert.Len(t, Key("", nil), 64)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestCache(t, time.Minute)
	metrics := &countingMetrics{}

	calls := 0
	router := gin.New()
	router.Use(c.Middleware(metrics, "/nlp/analyze"))
	router.POST("/nlp/analyze", func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	router.POST("/other", func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	do := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	first := do("/nlp/analyze", `{"question":"q","answer":"a"}`)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := do("/nlp/analyze", `{"question":"q","answer":"a"}`)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	do("/nlp/analyze", `{"question":"q","answer":"b"}`)
	assert.Equal(t, 2, calls)

	do("/other", `{}`)
	do("/other", `{}`)
	assert.Equal(t, 4, calls, "unlisted paths are never cached")

	assert.Equal(t, int64(1), metrics.hits)
	assert.Equal(t, int64(2), metrics.misses)
}

func TestMiddleware_ErrorsAreNotCached(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestCache(t, time.Minute)

	router := gin.New()
	router.Use(c.Middleware(nil, "/nlp/analyze"))
	router.POST("/nlp/analyze", func(ctx *gin.Context) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/nlp/analyze", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, c.Size())
}

func TestMiddlewareUnless(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestCache(t, time.Minute)
	metrics := &countingMetrics{}

	stored := func(body []byte) bool { return strings.Contains(string(body), `"sessionId"`) }

	calls := 0
	router := gin.New()
	router.Use(c.MiddlewareUnless(metrics, stored, "/nlp/analyze"))
	router.POST("/nlp/analyze", func(ctx *gin.Context) {
		raw, err := io.ReadAll(ctx.Request.Body)
		require.NoError(t, err)
		calls++
		ctx.Data(http.StatusOK, "application/json", raw)
	})

	tests := []struct {
		name      string
		body      string
		wantCache string
		wantCalls int
	}{
		{"session body runs", `{"sessionId":"s1","answer":"a"}`, "", 1},
		{"session body runs again", `{"sessionId":"s1","answer":"a"}`, "", 2},
		{"plain body misses", `{"answer":"a"}`, "MISS", 3},
		{"plain body hits", `{"answer":"a"}`, "HIT", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/nlp/analyze", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantCache, w.Header().Get("X-Cache"))
			assert.JSONEq(t, tt.body, w.Body.String(), "the handler still sees the body")
			assert.Equal(t, tt.wantCalls, calls)
		})
	}

	assert.Equal(t, 1, c.Size())
	assert.Equal(t, int64(1), metrics.hits)
	assert.Equal(t, int64(1), metrics.misses)
}

func TestMemoryScoreCache(t *testing.T) {
	sc := NewMemoryScoreCache(newTestCache(t, time.Minute))
	ctx := context.Background()

	_, err := sc.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrMiss)

	final := 42.5
	want := &analysis.SessionScoreResult{
		SessionID:         "s1",
		FinalScore:        final,
		TotalQuestions:    2,
		AnsweredQuestions: 1,
		AnswerScores:      []analysis.AnswerScore{},
		AverageFaceScore:  &final,
		CategoryBreakdown: map[string]analysis.CategoryStats{"acik_uclu": {Count: 1, AverageScore: 42.5}},
	}
	require.NoError(t, sc.Set(ctx, want))

	got, err := sc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, sc.Delete(ctx, "s1"))
	_, err = sc.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewRedisScoreCache_TTLAlwaysExpires(t *testing.T) {
	tests := []struct {
		name     string
		ttl      time.Duration
		expected time.Duration
	}{
		{"configured", time.Minute, time.Minute},
		{"zero", 0, DefaultScoreTTL},
		{"negative", -time.Second, DefaultScoreTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, ok := NewRedisScoreCache(nil, tt.ttl).(*redisScoreCache)
			require.True(t, ok)
			assert.Equal(t, tt.expected, sc.ttl)
		})
	}
}
