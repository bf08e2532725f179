package sse

import (
	"net/http"
	"time"

	"github.com/mcoot/gamepoints/internal/model"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client represents a connected SSE client
type Client struct {
	hub         *Hub
	subscriber  string
	player      model.Identity // empty receives every player's events
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client. A non-empty player limits the stream
// to that player's events.
func NewClient(hub *Hub, subscriber string, player model.Identity) *Client {
	return &Client{
		hub:         hub,
		subscriber:  subscriber,
		player:      player,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

func (c *Client) wants(player model.Identity) bool {
	return c.player.IsZero() || c.player == player
}

// ServeSSE handles the SSE connection for a client
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, player model.Identity) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(hub, r.RemoteAddr, player)
	hub.Register(client)
	defer hub.Unregister(client)

	// Send initial connection event
	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
