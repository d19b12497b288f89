// Package stream serves the websocket frame transport. A client dials
// /v1/sessions/{id}/stream, sends pose frames as JSON text messages and
// receives one step result per frame. Closing the socket leaves the
// session open; DELETE /v1/sessions/{id} ends it.
package stream

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/pugil/internal/domain/model"
	"github.com/okian/pugil/pkg/logger"
	"github.com/okian/pugil/pkg/metrics"
)

// Keepalive timing. The read deadline is refreshed by pongs; the ping
// ticker keeps deadlines progressing on idle streams.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// defaultReadLimit bounds one inbound message. Frames are small; anything
// larger is a misbehaving client.
const defaultReadLimit = 65_536

// closeReasonLimit keeps close payloads inside the 125-byte control frame
// budget.
const closeReasonLimit = 120

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // pose sources run on other local origins
	},
}

// Stepper exposes the session operations the stream needs.
type Stepper interface {
	HasSession(ctx context.Context, id string) bool
	Step(ctx context.Context, id string, frame model.Frame) (model.StepResult, error)
}

// Handler upgrades stream requests and relays frames into the session.
type Handler struct {
	svc       Stepper
	readLimit int64
	clients   atomic.Int64

	// Logging
	logger logger.Logger
}

// NewHandler creates a stream handler with configuration options.
func NewHandler(svc Stepper, opts ...Option) *Handler {
	h := &Handler{
		svc:       svc,
		readLimit: defaultReadLimit,
		logger:    logger.Get().Named("stream"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// ServeHTTP handles websocket upgrade requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.URL.Path)
	if id == "" || !h.svc.HasSession(r.Context(), id) {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	metrics.UpdateStreamClients(int(h.clients.Add(1)))
	defer func() {
		metrics.UpdateStreamClients(int(h.clients.Add(-1)))
	}()

	conn.SetReadLimit(h.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go h.ping(conn, stop)

	h.relay(r.Context(), conn, id)
}

// ping emits control pings until the stream ends. WriteControl is safe
// alongside the relay loop's writes.
func (h *Handler) ping(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

// relay reads frames until the peer goes away or the session disappears.
func (h *Handler) relay(ctx context.Context, conn *websocket.Conn, id string) {
	for {
		var frame model.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug(ctx, "stream read ended", logger.String("session_id", id), logger.Error(err))
			}
			return
		}

		res, err := h.svc.Step(ctx, id, frame)
		if err != nil {
			// Session closed underneath the stream, most likely.
			h.closeWith(conn, err)
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(res); err != nil {
			h.logger.Debug(ctx, "stream write failed", logger.String("session_id", id), logger.Error(err))
			return
		}
	}
}

// closeWith tells the peer why the stream is ending.
func (h *Handler) closeWith(conn *websocket.Conn, err error) {
	code := websocket.CloseInternalServerErr
	if strings.Contains(strings.ToLower(err.Error()), "not found") {
		code = websocket.ClosePolicyViolation
	}
	reason := err.Error()
	if len(reason) > closeReasonLimit {
		reason = reason[:closeReasonLimit]
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// sessionID pulls {id} out of /v1/sessions/{id}/stream.
func sessionID(path string) string {
	rest := strings.TrimPrefix(path, "/v1/sessions/")
	id, _, _ := strings.Cut(rest, "/")
	return id
}
