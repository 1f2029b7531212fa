package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a live-update notification pushed to the clients of one topic.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// AdminTopic is the topic every signed-in page of one admin subscribes to.
func AdminTopic(adminID int64) string {
	return fmt.Sprintf("admin:%d", adminID)
}

// ShareTopic is the topic of a public read-only member page.
func ShareTopic(shareID string) string {
	return "share:" + shareID
}

// Hub tracks connected clients by topic.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Client]struct{}
	count   int
	logger  *slog.Logger
	onCount func(int)
}

// NewHub creates a new Hub. onCount, if non-nil, is called with the client
// count after every register and unregister.
func NewHub(logger *slog.Logger, onCount func(int)) *Hub {
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		logger:  logger,
		onCount: onCount,
	}
}

// Register adds a client to its topic.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.topics[c.topic]
	if !ok {
		set = make(map[*Client]struct{})
		h.topics[c.topic] = set
	}
	if _, dup := set[c]; !dup {
		set[c] = struct{}{}
		h.count++
	}
	n := h.count
	h.mu.Unlock()
	h.notify(n)
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	set := h.topics[c.topic]
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.topics, c.topic)
	}
	close(c.send)
	h.count--
	n := h.count
	h.mu.Unlock()
	h.notify(n)
}

func (h *Hub) notify(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// Publish sends a message to every client subscribed to topic.
func (h *Hub) Publish(topic string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal publish", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.topics[topic] {
		select {
		case c.send <- data:
		default:
			// Slow client; drop rather than block the publisher.
			h.logger.Debug("dropped message", "topic", topic, "type", msg.Type)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// TopicCount returns the number of clients subscribed to topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
