package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxResponseSamples = 1000

// Metrics holds application counters. Counters are updated atomically; the
// response time window and status map are guarded by their own mutexes.
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	AverageResponseTime int64 // in nanoseconds
	StartTime           time.Time

	SessionsCreated  int64
	AnswersSubmitted int64
	AnswersAnalyzed  int64
	SessionsScored   int64
	SessionsDeleted  int64

	RealtimeConnections int64
	RealtimeFrames      int64

	EventsPublished    int64
	EventPublishErrors int64

	RateLimitIPBlocks      int64
	RateLimitRedisErrors   int64
	RateLimitFallbackCount int64

	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, maxResponseSamples),
		RequestCountByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

func (m *Metrics) IncrementSessionCreated() {
	atomic.AddInt64(&m.SessionsCreated, 1)
}

func (m *Metrics) IncrementAnswerSubmitted() {
	atomic.AddInt64(&m.AnswersSubmitted, 1)
}

func (m *Metrics) IncrementAnswerAnalyzed() {
	atomic.AddInt64(&m.AnswersAnalyzed, 1)
}

func (m *Metrics) IncrementSessionScored() {
	atomic.AddInt64(&m.SessionsScored, 1)
}

func (m *Metrics) IncrementSessionDeleted() {
	atomic.AddInt64(&m.SessionsDeleted, 1)
}

// RealtimeConnected adjusts the live websocket gauge by delta and returns the
// new value.
func (m *Metrics) RealtimeConnected(delta int64) int64 {
	return atomic.AddInt64(&m.RealtimeConnections, delta)
}

func (m *Metrics) IncrementRealtimeFrame() {
	atomic.AddInt64(&m.RealtimeFrames, 1)
}

// RecordEventPublish counts a publish attempt on the event bus
func (m *Metrics) RecordEventPublish(success bool) {
	if success {
		atomic.AddInt64(&m.EventsPublished, 1)
		return
	}
	atomic.AddInt64(&m.EventPublishErrors, 1)
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback increments fallback rate limiter usage count
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbackCount, 1)
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	newAverage := (current + duration.Nanoseconds()) / 2
	atomic.StoreInt64(&m.AverageResponseTime, newAverage)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > maxResponseSamples {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)
	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetStats returns a snapshot for the /metrics endpoint
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"start_time":             m.StartTime.Format(time.RFC3339),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"avg_response_time_ms":   float64(atomic.LoadInt64(&m.AverageResponseTime)) / 1e6,
		"p50_response_time_ms":   float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":   float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":   float64(m.GetPercentileResponseTime(99)) / 1e6,

		"status_code_distribution": m.GetStatusCodeDistribution(),

		"sessions_created":  atomic.LoadInt64(&m.SessionsCreated),
		"answers_submitted": atomic.LoadInt64(&m.AnswersSubmitted),
		"answers_analyzed":  atomic.LoadInt64(&m.AnswersAnalyzed),
		"sessions_scored":   atomic.LoadInt64(&m.SessionsScored),
		"sessions_deleted":  atomic.LoadInt64(&m.SessionsDeleted),

		"realtime_connections": atomic.LoadInt64(&m.RealtimeConnections),
		"realtime_frames":      atomic.LoadInt64(&m.RealtimeFrames),

		"events_published":     atomic.LoadInt64(&m.EventsPublished),
		"event_publish_errors": atomic.LoadInt64(&m.EventPublishErrors),

		"rate_limit": map[string]interface{}{
			"ip_blocks":      atomic.LoadInt64(&m.RateLimitIPBlocks),
			"redis_errors":   atomic.LoadInt64(&m.RateLimitRedisErrors),
			"fallback_count": atomic.LoadInt64(&m.RateLimitFallbackCount),
		},

		"go_goroutines":       runtime.NumGoroutine(),
		"go_gc_count":         mem.NumGC,
		"go_heap_alloc_bytes": mem.HeapAlloc,
		"go_heap_sys_bytes":   mem.HeapSys,
	}
}

