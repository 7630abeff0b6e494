package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var ErrHubFull = errors.New("stream capacity reached")

// Hub tracks open detection streams and caps how many run at once.
type Hub struct {
	clients    map[*Client]bool
	maxClients int
	mu         sync.RWMutex
}

func NewHub(maxClients int) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		maxClients: maxClients,
	}
}

// Run blocks until ctx is done, then tells every client the server is
// closing and ends their write pumps.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

func (h *Hub) addClient(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		return ErrHubFull
	}
	h.clients[client] = true
	return nil
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
	}
}

func (h *Hub) broadcastAll(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.enqueue(message) {
			delete(h.clients, client)
			client.closeSend()
		}
	}
}

func (h *Hub) closeAll() {
	h.broadcastAll(Event{
		Type:      EventClosing,
		Timestamp: time.Now().UTC(),
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		client.closeSend()
	}
}

func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
