package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, origins ...string) (*httptest.Server, *Hub, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := monitoring.NewMetrics()
	hub := NewHub(metrics, nil)
	r := gin.New()
	r.GET("/ws/metrics", NewHandler(hub, origins).Serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, metrics
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/metrics"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) Frame {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestMetricsAck(t *testing.T) {
	srv, _, metrics := newServer(t)
	conn := dial(t, srv, nil)

	reply := roundTrip(t, conn, `{"event":"metrics","data":{"questionId":3,"faceMetrics":{"stressScore":4.2},"voiceMetrics":{"speechRate":5},"timestamps":{"answerStart":"2024-01-01T00:00:00Z"}}}`)
	require.Equal(t, EventMetricsAck, reply.Event)

	var ack Ack
	require.NoError(t, json.Unmarshal(reply.Data, &ack))
	assert.True(t, ack.OK)
	assert.JSONEq(t, `3`, string(ack.QuestionID))
	_, err := time.Parse(time.RFC3339Nano, ack.ReceivedAt)
	assert.NoError(t, err)

	assert.Equal(t, int64(1), metrics.GetStats()["realtime_frames"])
}

func TestMetricsAck_MissingQuestionID(t *testing.T) {
	srv, _, _ := newServer(t)
	conn := dial(t, srv, nil)

	reply := roundTrip(t, conn, `{"event":"metrics","data":{}}`)
	require.Equal(t, EventMetricsAck, reply.Event)

	var ack Ack
	require.NoError(t, json.Unmarshal(reply.Data, &ack))
	assert.Equal(t, "null", string(ack.QuestionID))
}

func TestErrorFrames(t *testing.T) {
	srv, _, _ := newServer(t)
	conn := dial(t, srv, nil)

	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"not json", `hello`, "invalid frame"},
		{"unknown event", `{"event":"stt"}`, "unknown event"},
		{"bad payload", `{"event":"metrics","data":{"faceMetrics":"x"}}`, "invalid metrics payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := roundTrip(t, conn, tt.msg)
			assert.Equal(t, EventError, reply.Event)
			assert.Contains(t, string(reply.Data), tt.want)
		})
	}
}

func TestHubCountsConnections(t *testing.T) {
	srv, hub, _ := newServer(t)
	conn := dial(t, srv, nil)

	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestOriginCheck(t *testing.T) {
	srv, _, _ := newServer(t, "http://localhost:5173")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/metrics"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	dial(t, srv, http.Header{"Origin": {"http://localhost:5173"}})
}

func TestHubUnregisterTwice(t *testing.T) {
	hub := NewHub(nil, nil)
	conn := &Connection{Send: make(chan []byte, 1)}

	hub.Register(conn)
	assert.True(t, hub.send(conn, []byte("x")))
	hub.Unregister(conn)
	hub.Unregister(conn)

	assert.Equal(t, 0, hub.Count())
	assert.False(t, hub.send(conn, []byte("y")))
}
