package stream

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "posts:"
	channelSuffix  = ":created"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Hub fans out new-post events to websocket clients watching an author.
// With Redis every instance publishes to and receives from a shared
// channel per author; without it delivery stays in-process.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Author string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx := context.Background()
		pubsub := redisClient.PSubscribe(ctx, channelPattern)
		if _, err := pubsub.Receive(ctx); err != nil {
			slog.Warn("stream: redis subscribe failed, delivering locally", "err", err)
			_ = pubsub.Close()
			return h
		}
		h.redis = redisClient
		h.pubsub = pubsub
		go h.subscribeRedis(pubsub)
	}
	return h
}

func (h *Hub) Register(author string) *Client {
	client := &Client{
		Author: author,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[author] == nil {
		h.clients[author] = map[*Client]struct{}{}
	}
	h.clients[author][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if authorClients, ok := h.clients[client.Author]; ok {
		if _, ok := authorClients[client]; !ok {
			return
		}
		delete(authorClients, client)
		if len(authorClients) == 0 {
			delete(h.clients, client.Author)
		}
		close(client.Send)
	}
}

// Publish announces payload to everyone watching author.
func (h *Hub) Publish(author string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(author), payload).Err()
		if err == nil {
			return
		}
		slog.Error("stream: redis publish failed", "author", author, "err", err)
	}
	h.deliver(author, payload)
}

func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

func (h *Hub) deliver(author string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[author] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		author := authorFromChannel(msg.Channel)
		if author == "" {
			continue
		}
		h.deliver(author, []byte(msg.Payload))
	}
}

func redisChannel(author string) string {
	return channelPrefix + author + channelSuffix
}

func authorFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
