package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	ws "go-case-records/internal/websocket"
)

type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler accepts upgrades from the configured origins, or from any
// origin when none are configured.
func NewWSHandler(hub *ws.Hub, origins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Serve upgrades the connection and streams change events until either side
// closes it.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "subject_id", session.SubjectID, "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, session.SubjectID)
	if !h.hub.Register(r.Context(), client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}
