package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // local viewer tool
}

// Serve exposes the hub on addr under /ws. Blocks until the listener fails.
func (h *HubService) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.wsHandler)

	h.logger.Info("Viewer endpoint listening on ws://%s/ws", addr)
	return http.ListenAndServe(addr, mux)
}

func (h *HubService) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Upgrade error: %v", err)
		return
	}

	h.Register(conn)

	// Viewers only listen; the read loop just detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.Unregister(conn)
			return
		}
	}
}
