package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const channelName = "realtime:events"

// Message is one realtime update pushed to SSE subscribers.
type Message struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Hub fans realtime messages out to local SSE subscribers. When a redis
// client is present, messages travel through a pub/sub channel so every
// instance sees updates published by any of them.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	redis   *redis.Client
	logger  *logrus.Logger
}

func NewHub(redisClient *redis.Client, logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[chan []byte]struct{}),
		redis:   redisClient,
		logger:  logger,
	}
}

// Run consumes the redis channel and fans messages out locally until ctx is
// cancelled. Without redis there is nothing to consume; Publish delivers
// directly.
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}

	sub := h.redis.Subscribe(ctx, channelName)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.fanOut([]byte(msg.Payload))
		}
	}
}

// Publish sends a message to all subscribers, through redis when available.
func (h *Hub) Publish(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal realtime message")
		return
	}

	if h.redis != nil {
		if err := h.redis.Publish(ctx, channelName, data).Err(); err != nil {
			h.logger.WithError(err).Warn("Failed to publish realtime message, delivering locally")
			h.fanOut(data)
		}
		return
	}
	h.fanOut(data)
}

func (h *Hub) fanOut(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client <- data:
		default:
			// Slow subscriber; drop rather than block the hub.
		}
	}
}

// Subscribe registers a new SSE client. The returned cancel func must be
// called when the client disconnects.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	client := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
	}
	return client, cancel
}
