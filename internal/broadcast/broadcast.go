// Package broadcast fans accepted samples out to live dashboard viewers
// over WebSocket. Delivery is fire-and-forget: a viewer that cannot keep up
// misses samples, and the next one it does receive carries the current
// cumulative totals.
package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sweeney/breath-sensor/internal/sleep"
)

// Hub tracks the connected viewers. All writes happen from the run loop
// goroutine, so each connection only ever has one concurrent writer.
type Hub struct {
	logger *zap.Logger

	mu    sync.RWMutex
	conns map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		conns:  make(map[*websocket.Conn]bool),
	}
}

// Subscribe registers a viewer connection.
func (h *Hub) Subscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

// Unsubscribe removes a viewer connection. The caller owns closing it.
func (h *Hub) Unsubscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Broadcast sends one sample to every viewer and returns the number of
// connections whose write failed. The sample is serialized once; a failed
// connection is not removed here, since it is cleaned up when its read loop
// notices the disconnect.
func (h *Hub) Broadcast(sample sleep.Sample) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.conns) == 0 {
		return 0
	}

	data, err := json.Marshal(sample)
	if err != nil {
		h.logger.Error("failed to marshal sample", zap.Error(err))
		return 0
	}

	failed := 0
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			failed++
			h.logger.Warn("failed to send sample to viewer",
				zap.String("remote", conn.RemoteAddr().String()),
				zap.Error(err),
			)
		}
	}
	return failed
}

// Count returns the number of connected viewers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
