package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/campusbus/internal/broadcast"
)

// UpdatesHandler streams hub events to WebSocket clients. A client may narrow
// the stream with ?types=bus_created,booking_created; without the filter it
// receives every update kind.
type UpdatesHandler struct {
	hub            *broadcast.Hub
	logger         *slog.Logger
	allowedOrigins []string
}

// NewUpdatesHandler creates a new updates handler
func NewUpdatesHandler(hub *broadcast.Hub, logger *slog.Logger, allowedOrigins []string) *UpdatesHandler {
	return &UpdatesHandler{
		hub:            hub,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *UpdatesHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed || allowed == "*" {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/updates
func (h *UpdatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	// Hub callbacks fire from mutation goroutines; gorilla connections allow
	// one writer at a time, so events are funneled through a channel and
	// written from this goroutine only.
	events := make(chan broadcast.Event, 64)
	unsubscribe := h.subscribe(r, func(ev broadcast.Event) {
		select {
		case events <- ev:
		default:
			// Slow consumer: drop rather than block the hub.
		}
	})
	defer unsubscribe()

	h.logger.Debug("updates subscriber attached", slog.String("remote", r.RemoteAddr))

	// Reader goroutine surfaces client disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case ev := <-events:
			if err := ws.WriteJSON(ev); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("websocket closed", slog.String("remote", r.RemoteAddr))
				}
				return
			}
		}
	}
}

func (h *UpdatesHandler) subscribe(r *http.Request, cb func(broadcast.Event)) func() {
	raw := r.URL.Query().Get("types")
	if raw == "" {
		return h.hub.SubscribeAll(cb)
	}

	types := []string{}
	for _, t := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			types = append(types, trimmed)
		}
	}
	if len(types) == 0 {
		return h.hub.SubscribeAll(cb)
	}
	return h.hub.Subscribe(types, cb)
}
