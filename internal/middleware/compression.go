package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // Minimum response size to compress (bytes)
	CompressionLevel int      // Gzip compression level (1-9, 9 is best compression)
	ContentTypes     []string // Content types to compress
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes: []string{
			"application/json",
			"text/plain",
		},
	}
}

// CompressionMiddleware gzips JSON responses such as session scores with
// many answer entries.
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	level := config.CompressionLevel
	return &CompressionMiddleware{
		config: config,
		stats:  NewCompressionStats(),
		pool: sync.Pool{
			New: func() interface{} {
				gz, err := gzip.NewWriterLevel(io.Discard, level)
				if err != nil {
					gz = gzip.NewWriter(io.Discard)
				}
				return gz
			},
		},
	}
}

// Handler returns the Gin middleware. The response is buffered and only
// compressed once its final size and content type are known.
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// websocket upgrades need the raw writer
		if !cm.clientAcceptsGzip(c.Request) || c.GetHeader("Upgrade") != "" {
			c.Next()
			return
		}

		original := c.Writer
		bw := &bufferedWriter{ResponseWriter: original, status: http.StatusOK}
		c.Writer = bw

		c.Next()

		c.Writer = original
		body := bw.buf.Bytes()

		if len(body) < cm.config.MinSize || !cm.shouldCompress(original.Header().Get("Content-Type")) {
			cm.stats.RecordRequest(int64(len(body)), int64(len(body)), false)
			original.WriteHeader(bw.status)
			_, _ = original.Write(body)
			return
		}

		h := original.Header()
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")
		original.WriteHeader(bw.status)

		counter := &countingWriter{w: original}
		gz := cm.getGzipWriter(counter)
		_, _ = gz.Write(body)
		cm.returnGzipWriter(gz)

		cm.stats.RecordRequest(int64(len(body)), counter.n, true)
	}
}

func (cm *CompressionMiddleware) clientAcceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

func (cm *CompressionMiddleware) getGzipWriter(w io.Writer) *gzip.Writer {
	gz := cm.pool.Get().(*gzip.Writer)
	gz.Reset(w)
	return gz
}

func (cm *CompressionMiddleware) returnGzipWriter(gz *gzip.Writer) {
	gz.Close()
	cm.pool.Put(gz)
}

// bufferedWriter holds the handler output until the middleware decides how
// to encode it.
type bufferedWriter struct {
	gin.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
}

func (bw *bufferedWriter) WriteHeader(code int) {
	bw.status = code
	bw.wroteHeader = true
}

func (bw *bufferedWriter) WriteHeaderNow() {
	bw.wroteHeader = true
}

func (bw *bufferedWriter) Write(data []byte) (int, error) {
	bw.wroteHeader = true
	return bw.buf.Write(data)
}

func (bw *bufferedWriter) WriteString(s string) (int, error) {
	bw.wroteHeader = true
	return bw.buf.WriteString(s)
}

func (bw *bufferedWriter) Status() int {
	return bw.status
}

func (bw *bufferedWriter) Size() int {
	if !bw.wroteHeader {
		return -1
	}
	return bw.buf.Len()
}

func (bw *bufferedWriter) Written() bool {
	return bw.wroteHeader
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates new compression statistics
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, writtenSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	if compressed {
		cs.CompressedRequests++
		cs.TotalBytes += originalSize
		cs.CompressedBytes += writtenSize
	}
}

// GetStats returns current compression statistics. The ratio only covers
// responses that were compressed.
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(0)
	if cs.TotalBytes > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.TotalBytes)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
	}
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}
