package stream

import (
	"sync"
)

// Hub fans live snapshots out to the clients watching a topic (the feed, or
// one post's comment thread). Clients that fall behind drop snapshots rather
// than block the producer; a newer snapshot supersedes anything missed.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

// Client is one subscriber's delivery channel.
type Client struct {
	Topic string
	Send  chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: map[string]map[*Client]struct{}{}}
}

// Register subscribes a new client to a topic.
func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 16),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

// Unregister tears a client down. Must be called when the owning view is no
// longer displayed.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topicClients, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := topicClients[client]; !ok {
		return
	}
	delete(topicClients, client)
	if len(topicClients) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

// Broadcast delivers a payload to every client on a topic.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[topic]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// Watchers returns how many clients follow a topic.
func (h *Hub) Watchers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
