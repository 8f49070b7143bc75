// Package stream broadcasts ruleset execution traces to connected WebSocket
// clients in real time. It adapts pkg/websocket's Hub/Room transport (built
// for generic pub/sub) to a single domain event: one room per ruleset name,
// one message per step transition, fed by pkg/executor's optional
// Options.Stream hook.
package stream

import (
	"github.com/pama-lee/ordo/pkg/executor"
	"github.com/pama-lee/ordo/pkg/websocket"
)

// roomName groups subscribers by ruleset name; all versions of a ruleset
// share one room since clients generally want "everything running for X".
func roomName(ruleset string) string {
	return "ruleset:" + ruleset
}

// Hub publishes executor.StreamEvents to WebSocket subscribers grouped by
// ruleset name. It implements executor.Publisher, so it can be assigned
// directly to Options.Stream. It wraps a websocket.Hub rather than
// reimplementing one: the register/unregister loop, ping/pong keepalive,
// and room bookkeeping are unchanged from pkg/websocket, only the payload
// and subscription key are domain-specific.
type Hub struct {
	ws *websocket.Hub
}

var _ executor.Publisher = (*Hub)(nil)

// NewHub creates a Hub and starts its underlying websocket.Hub run loop.
func NewHub() *Hub {
	ws := websocket.NewHub()
	go ws.Run()
	return &Hub{ws: ws}
}

// Publish broadcasts event to every connection subscribed to event.Ruleset.
// Publishing is fire-and-forget: if nobody is subscribed, BroadcastToRoom is
// a no-op, and publishers never block waiting on a slow subscriber since the
// underlying hub delivers through buffered channels.
func (h *Hub) Publish(event executor.StreamEvent) error {
	return h.ws.BroadcastJSONToRoom(roomName(event.Ruleset), event, nil)
}

// SubscriberCount reports how many connections are currently subscribed to
// a ruleset's trace room.
func (h *Hub) SubscriberCount(ruleset string) int {
	room, ok := h.ws.GetRoomManager().GetRoom(roomName(ruleset))
	if !ok {
		return 0
	}
	return room.Size()
}

// Shutdown closes every connection and stops the underlying hub.
func (h *Hub) Shutdown() {
	h.ws.Shutdown()
}
