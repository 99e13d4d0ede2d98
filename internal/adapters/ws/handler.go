package ws

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser client is served from arbitrary origins in development;
	// session-scoped data carries no credentials beyond the session id.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to websocket connections and attaches them
// to the hub.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("ws_upgrade_failed", "error", err)
			return
		}

		identity := r.RemoteAddr
		if host, _, splitErr := net.SplitHostPort(r.RemoteAddr); splitErr == nil {
			identity = host
		}

		c := &client{
			hub:      h,
			conn:     conn,
			send:     make(chan Envelope, sendBufferSize),
			identity: identity,
			state:    stateConnected,
		}
		h.register(c)

		go c.writePump()
		go c.readPump()
	})
}
