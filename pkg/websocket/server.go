package websocket

import (
	"log"
	"sync"
)

// Hub maintains the set of active connections for one trace-broadcast
// server and dispatches room broadcasts to them. It has no generic
// message-routing or reconnection machinery: a trace subscriber is
// write-only, so the hub's job is register/unregister plus
// broadcast-to-room.
type Hub struct {
	connections map[*Connection]bool
	connMu      sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	broadcastToRoom chan *RoomMessage

	roomManager *RoomManager

	shutdown chan struct{}
	wg       sync.WaitGroup

	// WaitGroup for connection goroutines (ReadPump/WritePump)
	connWg sync.WaitGroup

	config *Config
}

// NewHub creates a new Hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultConfig())
}

// NewHubWithConfig creates a new Hub with custom configuration.
func NewHubWithConfig(config *Config) *Hub {
	if config == nil {
		config = DefaultConfig()
	}
	config.Validate()

	return &Hub{
		connections:     make(map[*Connection]bool),
		register:        make(chan *Connection),
		unregister:      make(chan *Connection),
		broadcastToRoom: make(chan *RoomMessage, 256),
		roomManager:     NewRoomManagerWithConfig(config),
		shutdown:        make(chan struct{}),
		config:          config,
	}
}

// Run starts the hub's register/unregister/broadcast loop. Call it in its
// own goroutine.
func (h *Hub) Run() {
	h.wg.Add(1)
	defer h.wg.Done()

	for {
		select {
		case conn := <-h.register:
			h.connMu.Lock()
			if h.config.MaxConnectionsPerHub > 0 && len(h.connections) >= h.config.MaxConnectionsPerHub {
				h.connMu.Unlock()
				log.Printf("[WS] connection rejected (limit reached): %s", conn.ID)
				if conn.conn != nil {
					conn.conn.Close()
				}
				continue
			}
			h.connections[conn] = true
			h.connMu.Unlock()

		case conn := <-h.unregister:
			h.connMu.Lock()
			if _, ok := h.connections[conn]; ok {
				delete(h.connections, conn)
				h.connMu.Unlock()
				close(conn.send)
				h.roomManager.RemoveConnectionFromAllRooms(conn)
			} else {
				h.connMu.Unlock()
			}

		case roomMsg := <-h.broadcastToRoom:
			if room, ok := h.roomManager.GetRoom(roomMsg.RoomName); ok {
				room.Broadcast(roomMsg.Message, roomMsg.ExcludeConn)
			}

		case <-h.shutdown:
			log.Printf("[WS] hub shutting down")
			return
		}
	}
}

// Shutdown closes every connection, waits for their pumps to exit, and
// stops the hub's run loop.
func (h *Hub) Shutdown() {
	h.connMu.RLock()
	for conn := range h.connections {
		if conn.conn != nil {
			conn.conn.Close()
		}
	}
	h.connMu.RUnlock()

	h.connWg.Wait()
	close(h.shutdown)
	h.wg.Wait()
}

// Register registers a connection with the hub. Call before starting its
// read/write pumps.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// TrackConnectionGoroutines marks two goroutines (read and write pumps) as
// in-flight for Shutdown's WaitGroup. Call once per connection before
// starting its ReadPump/WritePump.
func (h *Hub) TrackConnectionGoroutines() {
	h.connWg.Add(2)
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.connMu.RLock()
	defer h.connMu.RUnlock()
	return len(h.connections)
}

// BroadcastToRoom sends a message to all connections in a room.
func (h *Hub) BroadcastToRoom(roomName string, message []byte, exclude *Connection) {
	h.broadcastToRoom <- &RoomMessage{RoomName: roomName, Message: message, ExcludeConn: exclude}
}

// BroadcastJSONToRoom sends a JSON message to all connections in a room.
func (h *Hub) BroadcastJSONToRoom(roomName string, v interface{}, exclude *Connection) error {
	msg := NewJSONMessage(v)
	data, err := msg.ToJSON()
	if err != nil {
		return err
	}
	h.BroadcastToRoom(roomName, data, exclude)
	return nil
}

// GetRoomManager returns the room manager.
func (h *Hub) GetRoomManager() *RoomManager {
	return h.roomManager
}
