// Package ws is the real-time event channel: it upgrades HTTP requests to
// websockets, authenticates them, keeps presence up to date and dispatches
// named events to the services.
package ws

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
	"github.com/dmitrijs2005/chitchat/internal/server/presence"
	"github.com/dmitrijs2005/chitchat/internal/server/services"
)

// Hub owns the presence registry and the set of open connections.
// Targeted events go to the registry's one handle per user; broadcasts go
// to every open connection, including anonymous and replaced ones.
// Connects and disconnects are serialized with the getOnlineUsers broadcast
// they trigger, so clients observe online lists in the order the registry
// changed.
type Hub struct {
	mu       sync.Mutex
	registry *presence.Registry
	log      logging.Logger

	liveMu sync.RWMutex
	live   map[presence.Handle]struct{}
}

var _ services.Notifier = (*Hub)(nil)

func NewHub(registry *presence.Registry, log logging.Logger) *Hub {
	return &Hub{
		registry: registry,
		log:      log.With("module", "hub"),
		live:     map[presence.Handle]struct{}{},
	}
}

// Attach adds an open connection to the broadcast set.
func (h *Hub) Attach(handle presence.Handle) {
	h.liveMu.Lock()
	defer h.liveMu.Unlock()
	h.live[handle] = struct{}{}
}

// Detach removes a closed connection from the broadcast set.
func (h *Hub) Detach(handle presence.Handle) {
	h.liveMu.Lock()
	defer h.liveMu.Unlock()
	delete(h.live, handle)
}

// Connect makes h the live connection of userID and broadcasts the new
// online list. A previous connection of the same user stops receiving
// targeted events.
func (h *Hub) Connect(ctx context.Context, userID string, handle presence.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Attach(handle)
	if prev := h.registry.Register(userID, handle); prev != nil && prev != handle {
		h.log.Info(ctx, "connection replaced", "user_id", userID)
	}
	h.broadcastOnline()
}

// Disconnect detaches handle and takes the user offline if it is still
// their live connection.
func (h *Hub) Disconnect(ctx context.Context, userID string, handle presence.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Detach(handle)
	if !h.registry.Unregister(userID, handle) {
		return
	}
	h.log.Info(ctx, "user offline", "user_id", userID)
	h.broadcastOnline()
}

func (h *Hub) IsOnline(userID string) bool {
	return h.registry.IsOnline(userID)
}

func (h *Hub) DeliverToUser(userID, event string, payload any) bool {
	handle, ok := h.registry.Get(userID)
	if !ok {
		return false
	}
	return handle.Push(event, payload)
}

// Broadcast pushes to every open connection.
func (h *Hub) Broadcast(event string, payload any) {
	h.liveMu.RLock()
	handles := make([]presence.Handle, 0, len(h.live))
	for handle := range h.live {
		handles = append(handles, handle)
	}
	h.liveMu.RUnlock()

	for _, handle := range handles {
		handle.Push(event, payload)
	}
}

func (h *Hub) broadcastOnline() {
	h.Broadcast(protocol.EventOnlineUsers, h.registry.Snapshot())
}
