package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/overlay"
	"github.com/tripgauge/tripgauge/internal/settings"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamBuffer     = 16
)

// StreamHandler pushes rendered overlay views to a connected renderer.
type StreamHandler struct {
	overlays *overlay.Manager
	settings *settings.Service
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler. checkOrigin may be nil to
// accept same-origin upgrades only.
func NewStreamHandler(overlays *overlay.Manager, svc *settings.Service, logger zerolog.Logger, checkOrigin func(*http.Request) bool) *StreamHandler {
	return &StreamHandler{
		overlays: overlays,
		settings: svc,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Stream handles GET /v1/me/overlay/stream. The current view is sent on
// connect, then one message per overlay state change. Under backpressure
// intermediate states are skipped; the latest one is always delivered.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug().Err(err).Str("driver_id", driverID).Msg("overlay stream upgrade failed")
		return
	}
	defer conn.Close()

	// The request context ends when the handler returns, not when the peer leaves.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	updates := make(chan overlay.Snapshot, streamBuffer)
	unsubscribe := h.overlays.Subscribe(driverID, func(snap overlay.Snapshot) {
		enqueueLatest(updates, snap)
	})
	defer unsubscribe()

	machine := h.overlays.Machine(ctx, driverID)
	enqueueLatest(updates, machine.Snapshot())

	go h.readLoop(conn, cancel)

	logger := h.logger.With().Str("driver_id", driverID).Logger()
	logger.Info().Msg("overlay stream connected")
	defer logger.Info().Msg("overlay stream closed")

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return
		case snap := <-updates:
			view := overlay.Render(snap, h.settings.Get(ctx, driverID))
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(OverlayState{State: snap, View: view}); err != nil {
				logger.Debug().Err(err).Msg("overlay stream write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				logger.Debug().Err(err).Msg("overlay stream ping failed")
				return
			}
		}
	}
}

// readLoop drains client frames so control messages are processed, and
// cancels the stream when the peer goes away.
func (h *StreamHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// enqueueLatest enqueues snap without blocking, evicting the oldest queued state when full.
func enqueueLatest(updates chan overlay.Snapshot, snap overlay.Snapshot) {
	for {
		select {
		case updates <- snap:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
	}
}
