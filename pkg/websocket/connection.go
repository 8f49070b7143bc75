package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection wraps one upgraded WebSocket, tracked by a Hub and (for trace
// streaming) subscribed to exactly one room. It has no inbound message
// routing of its own: ReadPump only drains frames to keep the heartbeat and
// close-detection alive, since a trace subscriber never sends anything the
// hub needs to act on.
type Connection struct {
	ID string

	conn *websocket.Conn
	hub  *Hub

	// Buffered outbound messages
	send chan []byte

	rooms   map[string]bool
	roomsMu sync.RWMutex

	heartbeatMu  sync.RWMutex
	missedPongs  int
	lastPongTime time.Time
}

// NewConnection wraps an upgraded WebSocket connection.
func NewConnection(id string, conn *websocket.Conn, hub *Hub) *Connection {
	queueSize := hub.config.MessageQueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	return &Connection{
		ID:           id,
		conn:         conn,
		hub:          hub,
		send:         make(chan []byte, queueSize),
		rooms:        make(map[string]bool),
		lastPongTime: time.Now(),
	}
}

// ReadPump drains inbound frames until the connection closes or times out,
// unregistering from the hub on exit. It discards message bodies: a trace
// subscriber is a sink, not a source.
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.hub.connWg.Done()
	}()

	config := c.hub.config
	c.conn.SetReadDeadline(time.Now().Add(config.PongWaitTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.heartbeatMu.Lock()
		c.lastPongTime = time.Now()
		c.missedPongs = 0
		c.heartbeatMu.Unlock()

		c.conn.SetReadDeadline(time.Now().Add(config.PongWaitTimeout))
		return nil
	})
	c.conn.SetReadLimit(config.MaxMessageSize)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] connection %s read error: %v", c.ID, err)
			}
			return
		}
	}
}

// WritePump delivers queued broadcasts and pings the client on the
// configured interval, closing the connection after too many missed pongs.
func (c *Connection) WritePump() {
	config := c.hub.config
	var ticker *time.Ticker
	if config.EnableHeartbeat {
		ticker = time.NewTicker(config.HeartbeatInterval)
	} else {
		ticker = time.NewTicker(24 * time.Hour)
	}

	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.connWg.Done()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if !config.EnableHeartbeat {
				continue
			}

			c.heartbeatMu.Lock()
			c.missedPongs++
			missed := c.missedPongs
			c.heartbeatMu.Unlock()

			if missed > config.MaxMissedPongs {
				log.Printf("[WS] connection %s timed out (missed %d pongs)", c.ID, missed)
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// JoinRoom subscribes the connection to roomName, creating the room if it
// doesn't exist yet.
func (c *Connection) JoinRoom(roomName string) {
	c.roomsMu.Lock()
	c.rooms[roomName] = true
	c.roomsMu.Unlock()

	if err := c.hub.roomManager.AddConnectionToRoom(c, roomName); err != nil {
		log.Printf("[WS] failed to join room %s: %v", roomName, err)
	}
}
