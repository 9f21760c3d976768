// Copyright 2025 Seth Burkart
//
// HTTP/SSE transport for JSON-RPC 2.0 communication

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultAddress binds to loopback only. The server drives a live
// projection display, so it is not exposed beyond the machine unless the
// operator opts in.
const DefaultAddress = "127.0.0.1:8765"

// HTTPTransportConfig holds configuration for the HTTP transport.
//
// WriteTimeout defaults to 0 (disabled): SSE streams are long-lived and a
// server-wide write deadline would sever them.
type HTTPTransportConfig struct {
	Address           string
	CORSOrigin        string
	HeartbeatInterval time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	// RateLimit is the allowed requests per second, 0 to disable.
	RateLimit float64
}

// DefaultHTTPConfig returns the default HTTP transport configuration.
func DefaultHTTPConfig() *HTTPTransportConfig {
	return &HTTPTransportConfig{
		Address:           DefaultAddress,
		HeartbeatInterval: 15 * time.Second,
		CORSOrigin:        "*",
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
	}
}

// HTTPTransport serves MCP over HTTP: POST /message for requests, GET
// /events for the SSE response stream, plus /health, /metrics, and the
// /state websocket feed.
type HTTPTransport struct {
	config     *HTTPTransportConfig
	server     *http.Server
	handler    Handler
	clients    *ClientRegistry
	state      *StateHub
	metrics    *MetricsRegistry
	shutdownCh chan struct{}
	eventID    atomic.Uint64
	closed     atomic.Bool
}

// ClientRegistry tracks connected SSE clients and the recent-event store
// used for reconnection replay.
type ClientRegistry struct {
	clients    map[string]*SSEClient
	eventStore *EventStore
	mu         sync.RWMutex
	nextID     atomic.Uint64
}

// SSEClient is one connected SSE stream.
type SSEClient struct {
	ResponseChan chan *SSEEvent
	CreatedAt    time.Time
	ID           string
	LastEventID  string
}

// SSEEvent is a Server-Sent Event.
type SSEEvent struct {
	ID    string
	Event string
	Data  string
}

// EventStore keeps recent events so reconnecting clients can catch up via
// Last-Event-ID.
type EventStore struct {
	eventMap map[string]*SSEEvent
	events   []*SSEEvent
	mu       sync.RWMutex
	maxSize  int
}

// NewEventStore creates an event store holding at most maxSize events.
func NewEventStore(maxSize int) *EventStore {
	return &EventStore{
		events:   make([]*SSEEvent, 0, maxSize),
		maxSize:  maxSize,
		eventMap: make(map[string]*SSEEvent),
	}
}

// Add appends an event, evicting the oldest when full.
func (s *EventStore) Add(event *SSEEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxSize {
		oldest := s.events[0]
		delete(s.eventMap, oldest.ID)
		s.events = s.events[1:]
	}
	s.events = append(s.events, event)
	s.eventMap[event.ID] = event
}

// GetSince returns the events recorded after the given ID.
func (s *EventStore) GetSince(lastEventID string) []*SSEEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if lastEventID == "" {
		return nil
	}
	found := false
	var result []*SSEEvent
	for _, e := range s.events {
		if found {
			result = append(result, e)
		}
		if e.ID == lastEventID {
			found = true
		}
	}
	return result
}

// NewClientRegistry creates an empty registry.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients:    make(map[string]*SSEClient),
		eventStore: NewEventStore(1000),
	}
}

// Add registers a new client.
func (r *ClientRegistry) Add(lastEventID string) *SSEClient {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := fmt.Sprintf("client-%d", r.nextID.Add(1))
	client := &SSEClient{
		ID:           id,
		ResponseChan: make(chan *SSEEvent, 100),
		CreatedAt:    time.Now(),
		LastEventID:  lastEventID,
	}
	r.clients[id] = client
	return client
}

// Remove deregisters a client and closes its channel.
func (r *ClientRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[id]; ok {
		close(client.ResponseChan)
		delete(r.clients, id)
	}
}

// Broadcast records the event and delivers it to every connected client.
// Clients with a full buffer miss the event rather than block the sender.
func (r *ClientRegistry) Broadcast(event *SSEEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.eventStore.Add(event)

	for _, client := range r.clients {
		select {
		case client.ResponseChan <- event:
		default:
			log.Printf("Warning: dropping event %s for client %s (buffer full)", event.ID, client.ID)
		}
	}
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// NewHTTPTransport creates an HTTP/SSE transport. A nil config uses the
// defaults.
func NewHTTPTransport(config *HTTPTransportConfig) *HTTPTransport {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	if config.HeartbeatInterval == 0 {
		config.HeartbeatInterval = 15 * time.Second
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}

	t := &HTTPTransport{
		config:     config,
		clients:    NewClientRegistry(),
		state:      NewStateHub(),
		metrics:    DefaultMetrics(),
		shutdownCh: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/message", t.handleMessage)
	mux.HandleFunc("/events", t.handleSSE)
	mux.HandleFunc("/health", t.handleHealth)
	mux.HandleFunc("/metrics", t.handleMetrics)
	mux.HandleFunc("/state", t.state.HandleUpgrade)

	limiter := NewRateLimiter(config.RateLimit)
	t.server = &http.Server{
		Handler:      t.corsMiddleware(RateLimitMiddleware(limiter, mux)),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return t
}

// State returns the websocket state hub, for wiring host state events.
func (t *HTTPTransport) State() *StateHub { return t.state }

func (t *HTTPTransport) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", t.config.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleMessage handles POST /message for JSON-RPC requests.
func (t *HTTPTransport) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if t.handler == nil {
		http.Error(w, "Handler not set", http.StatusInternalServerError)
		return
	}

	response, err := t.handler(&msg)
	if err != nil {
		response = &Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &ErrorObj{
				Code:    ErrCodeInternalError,
				Message: err.Error(),
			},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding response: %v", err)
	}

	// Streaming clients see responses too.
	if response != nil {
		eventData, _ := json.Marshal(response)
		t.broadcast(&SSEEvent{
			ID:    fmt.Sprintf("%d", t.eventID.Add(1)),
			Event: "message",
			Data:  string(eventData),
		})
	}
}

func (t *HTTPTransport) broadcast(event *SSEEvent) {
	t.clients.Broadcast(event)
	t.metrics.RecordSSEEvent()
}

// handleSSE handles GET /events for SSE streaming.
func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	lastEventID := r.Header.Get("Last-Event-ID")

	client := t.clients.Add(lastEventID)
	t.metrics.SetSSEConnections(t.clients.Count())
	defer func() {
		t.clients.Remove(client.ID)
		t.metrics.SetSSEConnections(t.clients.Count())
	}()

	log.Printf("SSE client connected: %s", client.ID)

	// Replay anything the client missed while reconnecting.
	if lastEventID != "" {
		for _, event := range t.clients.eventStore.GetSince(lastEventID) {
			if err := writeSSEEvent(w, event); err != nil {
				log.Printf("SSE client %s: write error during reconnect replay: %v", client.ID, err)
				return
			}
		}
		flusher.Flush()
	}

	heartbeatTicker := time.NewTicker(t.config.HeartbeatInterval)
	defer heartbeatTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Printf("SSE client disconnected: %s", client.ID)
			return
		case <-t.shutdownCh:
			fmt.Fprintf(w, "event: complete\ndata: server shutdown\n\n")
			flusher.Flush()
			return
		case <-heartbeatTicker.C:
			if _, err := fmt.Fprintf(w, ": heartbeat\n\n"); err != nil {
				log.Printf("SSE client %s: heartbeat write error: %v", client.ID, err)
				return
			}
			flusher.Flush()
		case event, ok := <-client.ResponseChan:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				log.Printf("SSE client %s: write error: %v", client.ID, err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes one event, splitting multiline payloads onto
// separate data: lines per the SSE spec.
func writeSSEEvent(w io.Writer, event *SSEEvent) error {
	if _, err := fmt.Fprintf(w, "id: %s\n", event.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Event); err != nil {
		return err
	}
	for _, line := range strings.Split(event.Data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

// handleHealth handles GET /health.
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"clients":       t.clients.Count(),
		"state_clients": t.state.Count(),
		"server_time":   time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Printf("Error encoding health response: %v", err)
	}
}

// handleMetrics handles GET /metrics in Prometheus text format.
func (t *HTTPTransport) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if err := t.metrics.WritePrometheus(w); err != nil {
		log.Printf("Error writing metrics: %v", err)
	}
}

// Serve starts the HTTP server and blocks until it shuts down.
func (t *HTTPTransport) Serve(handler Handler) error {
	t.handler = handler

	listener, err := net.Listen("tcp", t.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.config.Address, err)
	}
	log.Printf("HTTP/SSE transport listening on %s", t.config.Address)

	if err := t.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ReadMessage is not supported; the HTTP transport is callback-driven.
func (t *HTTPTransport) ReadMessage() (*Message, error) {
	return nil, fmt.Errorf("ReadMessage is not supported by HTTPTransport: use Serve(handler) instead")
}

// WriteMessage broadcasts a message to all connected SSE clients.
func (t *HTTPTransport) WriteMessage(msg *Message) error {
	if t.closed.Load() {
		return fmt.Errorf("transport is closed")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	t.broadcast(&SSEEvent{
		ID:    fmt.Sprintf("%d", t.eventID.Add(1)),
		Event: "message",
		Data:  string(data),
	})
	return nil
}

// Close shuts the server down, notifying SSE and state clients first.
func (t *HTTPTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}

	close(t.shutdownCh)
	t.state.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := t.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// IsClosed reports whether the transport is closed.
func (t *HTTPTransport) IsClosed() bool {
	return t.closed.Load()
}
