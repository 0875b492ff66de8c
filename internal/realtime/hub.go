// Package realtime fans equipment state changes out to connected dashboard
// clients over server-sent events. Delivery is best-effort: a slow client's
// buffer fills and messages are dropped rather than blocking the writer.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"equipment-tracker-backend/internal/propagate"
)

const clientBufferSize = 16

// Client is one connected observer.
type Client struct {
	ID       uuid.UUID
	Outbound chan propagate.StateChangedMessage
}

// Hub tracks connected clients and broadcasts to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client

	heartbeat time.Duration
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[uuid.UUID]*Client),
		heartbeat: 15 * time.Second,
	}
}

// Subscribe registers a new client.
func (h *Hub) Subscribe() *Client {
	client := &Client{
		ID:       uuid.New(),
		Outbound: make(chan propagate.StateChangedMessage, clientBufferSize),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	log.Printf("SSE client %s connected", client.ID)
	return client
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Outbound)
	}
	h.mu.Unlock()

	log.Printf("SSE client %s disconnected", client.ID)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify implements propagate.Broadcaster. It never blocks on a slow client;
// a full outbound buffer drops the message for that client.
func (h *Hub) Notify(ctx context.Context, topic string, msg propagate.StateChangedMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Outbound <- msg:
		default:
			log.Printf("Dropping state change for SSE client %s; outbound buffer full", client.ID)
		}
	}
	return nil
}

// Serve streams state changes to one client until it disconnects.
func (h *Hub) Serve(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Streaming unsupported"})
		return
	}

	client := h.Subscribe()
	defer h.Unsubscribe(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			body, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to marshal SSE message: %v", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", msg.Topic, body)
			flusher.Flush()
		}
	}
}
