package monitoring

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// slowRequestThreshold marks requests worth a warning in the logs
const slowRequestThreshold = 5 * time.Second

// MonitoringMiddleware creates Gin middleware for request monitoring
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)
		if statusCode >= 400 {
			metrics.IncrementError()
		}

		// route template keeps session ids out of the logs
		route := c.FullPath()
		if route == "" {
			route = path
		}
		logger.RequestLogger(method, route, ip, userAgent, statusCode, duration)

		for _, err := range c.Errors {
			logger.APIErrorLogger(err.Err, method, route, ip, statusCode)
		}

		if duration > slowRequestThreshold {
			logger.Warn("Slow request", "route", route, "duration_ms", duration.Milliseconds())
		}

		if statusCode >= 500 {
			logger.SystemLogger("server_error", fmt.Sprintf("Status %d for %s %s", statusCode, method, route))
		}
	}
}

// maxAnswerBodyBytes is the body size above which text endpoints are flagged
const maxAnswerBodyBytes = 16 << 10

// SecurityMonitoringMiddleware flags suspicious requests. It only logs; the
// request continues either way.
func SecurityMonitoringMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		details := make(map[string]interface{})

		if containsSQLInjectionPatterns(c.Request.URL.RawQuery) {
			details["type"] = "potential_sql_injection"
			details["query"] = c.Request.URL.RawQuery
		}

		if c.Request.Method == "POST" && isTextEndpoint(c.Request.URL.Path) && c.Request.ContentLength > maxAnswerBodyBytes {
			details["type"] = "large_request_body"
			details["size_bytes"] = c.Request.ContentLength
		}

		if containsSuspiciousUserAgent(userAgent) {
			details["type"] = "suspicious_user_agent"
			details["user_agent"] = userAgent
		}

		if len(details) > 0 {
			logger.SecurityLogger("suspicious_activity_detected", ip, userAgent, details)
		}

		c.Next()
	}
}

func isTextEndpoint(path string) bool {
	return strings.HasPrefix(path, "/nlp/") || strings.HasSuffix(path, "/answers")
}

func containsSQLInjectionPatterns(query string) bool {
	patterns := []string{
		"union select",
		"union all",
		"select * from",
		"drop table",
		"delete from",
		"';--",
		"/*",
		"*/",
	}

	if unescaped, err := url.QueryUnescape(query); err == nil {
		query = unescaped
	}
	q := strings.ToLower(query)
	for _, pattern := range patterns {
		if strings.Contains(q, pattern) {
			return true
		}
	}
	return false
}

func containsSuspiciousUserAgent(userAgent string) bool {
	suspiciousAgents := []string{
		"sqlmap",
		"nmap",
		"masscan",
		"zmap",
		"dirbuster",
		"gobuster",
		"nikto",
		"acunetix",
	}

	ua := strings.ToLower(userAgent)
	for _, agent := range suspiciousAgents {
		if strings.Contains(ua, agent) {
			return true
		}
	}
	return false
}
