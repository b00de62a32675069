// internal/app/features/events/handler.go
//
// Package events streams an actor's notifications as server-sent events.
package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/dalemusser/vidcollab/internal/app/system/presence"
	"go.uber.org/zap"
)

const (
	streamBuffer     = 16
	defaultKeepalive = 25 * time.Second
)

type Handler struct {
	Presence  *presence.Registry
	Keepalive time.Duration
	Log       *zap.Logger
}

func NewHandler(reg *presence.Registry, logger *zap.Logger) *Handler {
	return &Handler{Presence: reg, Keepalive: defaultKeepalive, Log: logger}
}

// ServeStream handles GET /api/events. The stream stays open until the
// client goes away; a comment line every Keepalive keeps proxies from
// closing it.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	email := actor.Email(r.Context())

	msgs, unregister := h.Presence.Register(email, streamBuffer)
	defer unregister()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	h.Log.Debug("event stream opened", zap.String("actor", email))
	defer h.Log.Debug("event stream closed", zap.String("actor", email))

	ticker := time.NewTicker(h.Keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case m, ok := <-msgs:
			if !ok {
				return
			}
			data, err := json.Marshal(m.Payload)
			if err != nil {
				h.Log.Warn("event encode failed", zap.String("kind", m.Kind), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Kind, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
