package monitoring

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger provides structured JSON logging with domain helpers
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout at the given level
func NewLogger(level slog.Level) *Logger {
	return NewLoggerWithWriter(os.Stdout, level)
}

// NewLoggerWithWriter is NewLogger with a custom destination, used by tests.
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps debug/info/warn/error onto slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoringLogger logs a completed session score
func (l *Logger) ScoringLogger(sessionID string, answered, total int, finalScore float64, duration time.Duration) {
	l.Info("Session Scored",
		"session_id", sessionID,
		"answered_questions", answered,
		"total_questions", total,
		"final_score", finalScore,
		"duration_ms", duration.Milliseconds(),
	)
}

// AnswerLogger logs a single answer analysis. Answer text is never logged.
func (l *Logger) AnswerLogger(sessionID, questionID string, answerLength int, nlpScore float64, emotionMismatch bool) {
	l.Info("Answer Analyzed",
		"session_id", sessionID,
		"question_id", questionID,
		"answer_tokens", answerLength,
		"nlp_score", nlpScore,
		"emotion_mismatch", emotionMismatch,
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// CacheLogger logs cache lookups at debug level
func (l *Logger) CacheLogger(cacheName, key string, hit bool) {
	if len(key) > 8 {
		key = key[:8] + "..."
	}
	l.Debug("Cache Operation",
		"cache", cacheName,
		"key", key,
		"hit", hit,
	)
}

// RealtimeLogger logs websocket lifecycle events
func (l *Logger) RealtimeLogger(event, remoteAddr string, connections int64) {
	l.Info("Realtime Event",
		"event", event,
		"remote_addr", remoteAddr,
		"connections", connections,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}
	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Warn("Security Event", attrs...)
}

var startTime = time.Now()
