package realtime

import (
	"sync"

	"github.com/behaviorlab/inconsistency-meter/internal/monitoring"
)

// Metrics is the subset of monitoring.Metrics the hub reports to
type Metrics interface {
	RealtimeConnected(delta int64) int64
	IncrementRealtimeFrame()
}

// Connection is one capture client streaming face and voice metrics
type Connection struct {
	RemoteAddr string
	Send       chan []byte
}

// Hub tracks live capture connections
type Hub struct {
	conns   map[*Connection]struct{}
	mu      sync.RWMutex
	metrics Metrics
	logger  *monitoring.Logger
}

// NewHub creates a new connection hub
func NewHub(metrics Metrics, logger *monitoring.Logger) *Hub {
	return &Hub{
		conns:   make(map[*Connection]struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	live := int64(h.Count())
	if h.metrics != nil {
		live = h.metrics.RealtimeConnected(1)
	}
	if h.logger != nil {
		h.logger.RealtimeLogger("connected", conn.RemoteAddr, live)
	}
}

// Unregister removes a connection and closes its send channel. Calling it
// twice for the same connection is a no-op.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, conn)
	close(conn.Send)
	h.mu.Unlock()

	live := int64(h.Count())
	if h.metrics != nil {
		live = h.metrics.RealtimeConnected(-1)
	}
	if h.logger != nil {
		h.logger.RealtimeLogger("disconnected", conn.RemoteAddr, live)
	}
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown closes every connection's send channel, which makes the write
// pumps send a close frame.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.Unregister(c)
	}
}

func (h *Hub) frameReceived() {
	if h.metrics != nil {
		h.metrics.IncrementRealtimeFrame()
	}
}

// send queues msg for conn unless the connection is gone or its buffer is
// full.
func (h *Hub) send(conn *Connection, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.conns[conn]; !ok {
		return false
	}
	select {
	case conn.Send <- msg:
		return true
	default:
		return false
	}
}
