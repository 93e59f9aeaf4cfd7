package server

import (
	"net/http"
	"time"

	"R2FM/logger"

	"github.com/gorilla/websocket"
)

const (
	statusPingInterval = 25 * time.Second
	statusPongWait     = 60 * time.Second
)

var statusUpgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StatusWSHandler holds a websocket open as a reachability signal for
// clients: the connection's lifetime is the signal, no payload is exchanged
// beyond keepalive frames.
// GET /api/ws/status
func (h *APIHandler) StatusWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := statusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[Status] Websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(statusPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(statusPongWait))
	})

	// Discard inbound frames; the read pump only services control frames.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statusPingInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			return
		}
	}
}
