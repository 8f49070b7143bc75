package stream

import (
	"fmt"
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"github.com/pama-lee/ordo/pkg/websocket"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request to a WebSocket connection and subscribes it
// to the trace room for the ruleset named by the "ruleset" query parameter;
// read frames from the client are ignored beyond keeping the connection's
// ReadPump alive for ping/pong and close detection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("ruleset")
	if name == "" {
		http.Error(w, "missing ruleset query parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	id := fmt.Sprintf("stream-%p", conn)
	wsConn := websocket.NewConnection(id, conn, h.ws)

	h.ws.Register(wsConn)
	wsConn.JoinRoom(roomName(name))

	h.ws.TrackConnectionGoroutines()
	go wsConn.WritePump()
	go wsConn.ReadPump()
}
