// Copyright 2025 Seth Burkart
//
// Websocket state feed: pushes host state changes (live item, slide moves,
// service edits) to subscribed clients

package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const stateWriteTimeout = 5 * time.Second

// StateHub fans host state events out to websocket subscribers on /state.
// Subscribers are read-only; inbound frames are drained and discarded.
type StateHub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
	closed   bool
}

// NewStateHub creates an empty hub.
func NewStateHub() *StateHub {
	return &StateHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser origin checks don't apply to a loopback control
			// surface with permissive CORS on the sibling endpoints.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// HandleUpgrade upgrades GET /state requests to websocket subscriptions.
func (h *StateHub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("State feed upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.conns[conn] = true
	h.mu.Unlock()

	log.Printf("State feed client connected: %s", conn.RemoteAddr())

	// Drain inbound frames so pings and close frames are processed; any
	// read error means the client went away.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *StateHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
	}
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends the JSON encoding of v to every subscriber. Connections
// that fail to accept the write are dropped.
func (h *StateHub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("State feed encode error: %v", err)
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(stateWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("State feed write error for %s: %v", conn.RemoteAddr(), err)
			h.drop(conn)
		}
	}
}

// Count returns the number of connected subscribers.
func (h *StateHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects all subscribers and rejects future upgrades.
func (h *StateHub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = make(map[*websocket.Conn]bool)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(stateWriteTimeout))
		conn.Close()
	}
}
