package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/model"
	"github.com/maruf7705/80MCQ/internal/store"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams the pending-student list to the admin panel over
// WebSocket, replacing per-client polling against the store.
type MonitorHandler struct {
	pending  *store.Pending
	interval time.Duration
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewMonitorHandler creates a MonitorHandler polling the store at interval.
func NewMonitorHandler(pending *store.Pending, interval time.Duration, allowedOrigins []string, log zerolog.Logger) *MonitorHandler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &MonitorHandler{
		pending:  pending,
		interval: interval,
		upgrader: buildUpgrader(allowedOrigins),
		log:      log.With().Str("component", "monitor_handler").Logger(),
	}
}

// PendingStream godoc
// WS /ws/pending-students
// Pushes the pending list on connect and again whenever it changes.
func (h *MonitorHandler) PendingStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Reader goroutine: its only job is to notice the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("monitor connected")

	var last []byte
	if last, err = h.push(ctx, conn, nil); err != nil {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("monitor disconnected")
			return
		case <-ticker.C:
			if last, err = h.push(ctx, conn, last); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.log.Debug().Err(err).Msg("monitor write failed")
				}
				return
			}
		}
	}
}

// push sends the current list if it differs from last, returning the bytes
// actually on the wire.
func (h *MonitorHandler) push(ctx context.Context, conn *websocket.Conn, last []byte) ([]byte, error) {
	students, err := h.pending.List(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("could not load pending students for stream")
		return last, nil
	}
	if students == nil {
		students = []model.PendingStudent{}
	}
	payload, err := json.Marshal(students)
	if err != nil {
		return last, err
	}
	if last != nil && string(payload) == string(last) {
		return last, nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return last, err
	}
	return payload, nil
}
