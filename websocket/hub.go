package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	Close()
	BroadcastProgress(msgType string, report types.ProgressReport)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	ClientCount() int
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	clients map[*Client]bool

	// Broadcast channel for progress updates
	broadcast chan types.ProgressMessage

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan types.ProgressMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Debug("WebSocket client connected", "clients", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Debug("WebSocket client disconnected", "clients", h.ClientCount())

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Close stops the event loop and disconnects every client
func (h *hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// BroadcastProgress queues a progress report for every connected client
func (h *hub) BroadcastProgress(msgType string, report types.ProgressReport) {
	msg := NewProgressMessage(msgType, report)

	select {
	case h.broadcast <- msg:
	default:
		slog.Warn("WebSocket broadcast channel full, dropping message", "type", msgType)
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewProgressMessage wraps a report for the wire
func NewProgressMessage(msgType string, report types.ProgressReport) types.ProgressMessage {
	return types.ProgressMessage{
		Type:      msgType,
		Report:    report,
		Timestamp: time.Now(),
	}
}
