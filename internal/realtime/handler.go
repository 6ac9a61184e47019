package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Event names on the metrics socket
const (
	EventMetrics    = "metrics"
	EventMetricsAck = "metrics:ack"
	EventError      = "error"
)

// Frame is the envelope of every message on the socket
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// FaceMetrics are the per-frame facial signals computed in the browser
type FaceMetrics struct {
	StressScore  *float64 `json:"stressScore,omitempty"`
	EyeBlinkRate *float64 `json:"eyeBlinkRate,omitempty"`
	HeadMovement *float64 `json:"headMovement,omitempty"`
}

// VoiceMetrics are the prosody signals computed in the browser
type VoiceMetrics struct {
	PitchVariability *float64 `json:"pitchVariability,omitempty"`
	SpeechRate       *float64 `json:"speechRate,omitempty"`
}

// MetricsPayload is the data of a metrics frame. QuestionID is kept raw
// since clients send either the question number or its id.
type MetricsPayload struct {
	QuestionID   json.RawMessage   `json:"questionId"`
	FaceMetrics  *FaceMetrics      `json:"faceMetrics,omitempty"`
	VoiceMetrics *VoiceMetrics     `json:"voiceMetrics,omitempty"`
	Timestamps   map[string]string `json:"timestamps,omitempty"`
}

// Ack acknowledges a metrics frame
type Ack struct {
	OK         bool            `json:"ok"`
	QuestionID json.RawMessage `json:"questionId"`
	ReceivedAt string          `json:"receivedAt"`
}

// Handler upgrades HTTP requests to the metrics socket
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewHandler creates a handler. An empty origin list accepts any origin.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowed) == 0 || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		now: time.Now,
	}
}

// Serve handles GET /ws/metrics
func (h *Handler) Serve(c *gin.Context) {
	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade error", "error", err, "remote_addr", c.ClientIP())
		return
	}

	conn := &Connection{
		RemoteAddr: c.ClientIP(),
		Send:       make(chan []byte, 256),
	}
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// handleFrame returns the reply to one inbound frame
func (h *Handler) handleFrame(raw []byte) Frame {
	var in Frame
	if err := json.Unmarshal(raw, &in); err != nil {
		return errorFrame("invalid frame")
	}

	switch in.Event {
	case EventMetrics:
		var p MetricsPayload
		if len(in.Data) > 0 {
			if err := json.Unmarshal(in.Data, &p); err != nil {
				return errorFrame("invalid metrics payload")
			}
		}
		h.hub.frameReceived()

		qid := p.QuestionID
		if len(qid) == 0 {
			qid = json.RawMessage("null")
		}
		data, _ := json.Marshal(Ack{
			OK:         true,
			QuestionID: qid,
			ReceivedAt: h.now().UTC().Format(time.RFC3339Nano),
		})
		return Frame{Event: EventMetricsAck, Data: data}
	default:
		return errorFrame("unknown event")
	}
}

func errorFrame(message string) Frame {
	data, _ := json.Marshal(map[string]string{"message": message})
	return Frame{Event: EventError, Data: data}
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket error", "error", err, "remote_addr", conn.RemoteAddr)
			}
			break
		}

		reply, err := json.Marshal(h.handleFrame(message))
		if err != nil {
			continue
		}
		if !h.hub.send(conn, reply) {
			slog.Warn("Dropping metrics reply", "remote_addr", conn.RemoteAddr)
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
