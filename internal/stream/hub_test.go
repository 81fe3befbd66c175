package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func expectMessage(t *testing.T, client *Client, want string) {
	t.Helper()
	select {
	case msg := <-client.Send:
		if string(msg) != want {
			t.Fatalf("expected %q, got %q", want, msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func TestHubPublishLocal(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("leo")
	defer hub.Unregister(client)
	other := hub.Register("anna")
	defer hub.Unregister(other)

	hub.Publish("leo", []byte("hello"))
	expectMessage(t, client, "hello")

	select {
	case <-other.Send:
		t.Fatalf("other author's watchers must not receive the event")
	default:
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("leo")
	if ch != "posts:leo:created" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if authorFromChannel(ch) != "leo" {
		t.Fatalf("unexpected author")
	}
	if authorFromChannel("bad") != "" || authorFromChannel("tracking:x:broadcast") != "" {
		t.Fatalf("expected empty author")
	}
}

func TestUnregisterClosesOnce(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("leo")
	hub.Unregister(client)
	hub.Unregister(client)
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisFanOut(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	defer hub.Close()
	ws := hub.Register("leo")
	defer hub.Unregister(ws)

	hub.Publish("leo", []byte("ping"))
	expectMessage(t, ws, "ping")

	// another instance publishing on the shared channel
	if err := client.Publish(context.Background(), "posts:leo:created", "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	expectMessage(t, ws, "pong")
}

func TestHubRedisUnavailableFallsBackToLocal(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	if hub.redis != nil {
		t.Fatalf("expected local delivery when redis is down")
	}
	ws := hub.Register("leo")
	defer hub.Unregister(ws)

	hub.Publish("leo", []byte("ping"))
	expectMessage(t, ws, "ping")
	if err := hub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
