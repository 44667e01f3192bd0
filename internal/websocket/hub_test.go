package websocket

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newIdleClient(t *testing.T) *Client {
	return &Client{
		send:      make(chan WriteData, 4),
		done:      make(chan struct{}),
		connID:    "test-conn",
		userID:    "user-1",
		validator: NewMessageValidator(),
		logger:    zaptest.NewLogger(t),
	}
}

func TestSendQueuesForLiveClient(t *testing.T) {
	client := newIdleClient(t)

	client.sendJSON(CreatePongMessage("hello"))

	if len(client.send) != 1 {
		t.Errorf("Expected 1 queued message, got %d", len(client.send))
	}
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	client := newIdleClient(t)

	for i := 0; i <= cap(client.send); i++ {
		client.sendJSON(CreatePongMessage("fill"))
	}

	if len(client.send) != cap(client.send) {
		t.Errorf("Expected buffer capped at %d, got %d", cap(client.send), len(client.send))
	}
}

func TestSendAfterUnregisterIsDropped(t *testing.T) {
	hub := NewHub(nil, nil, zaptest.NewLogger(t))
	go hub.Run()

	client := newIdleClient(t)
	client.hub = hub
	hub.register <- client
	hub.unregister <- client

	select {
	case <-client.done:
	case <-time.After(time.Second):
		t.Fatal("Expected done closed after unregister")
	}

	// A pipeline goroutine can finish minutes after the owner hung up. Its
	// result must be dropped, not crash the process.
	client.sendJSON(CreateErrorMessage("pipeline_failed", "late result", true))
	if len(client.send) != 0 {
		t.Errorf("Expected no message queued for a gone client, got %d", len(client.send))
	}
}

func TestUnregisterTwiceIsHarmless(t *testing.T) {
	hub := NewHub(nil, nil, zaptest.NewLogger(t))
	go hub.Run()

	client := newIdleClient(t)
	client.hub = hub
	hub.register <- client
	hub.unregister <- client
	hub.unregister <- client

	// The loop is still serving registrations afterwards.
	second := newIdleClient(t)
	second.connID = "test-conn-2"
	second.hub = hub
	hub.register <- second

	deadline := time.After(time.Second)
	for {
		hub.mu.RLock()
		_, ok := hub.clients[second.connID]
		hub.mu.RUnlock()
		if ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("Expected hub to keep accepting clients")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
