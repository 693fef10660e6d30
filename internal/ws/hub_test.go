package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := startHub(t)

	client := &Client{hub: hub, send: make(chan []byte, 1)}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, hub.ConnectedClients())

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, hub.ConnectedClients())

	_, open := <-client.send
	assert.False(t, open, "send channel should be closed")
}

func TestHub_Broadcast(t *testing.T) {
	hub := startHub(t)

	client := &Client{hub: hub, send: make(chan []byte, 10)}
	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(EventFaceConfirmed, map[string]any{"faceId": "f1", "personId": 3})

	select {
	case msg := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, EventFaceConfirmed, event.Type)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHub_TopicFiltering(t *testing.T) {
	hub := startHub(t)

	review := &Client{hub: hub, topic: "review", send: make(chan []byte, 10)}
	training := &Client{hub: hub, topic: "training", send: make(chan []byte, 10)}
	all := &Client{hub: hub, send: make(chan []byte, 10)}

	hub.register <- review
	hub.register <- training
	hub.register <- all
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(EventTrainingProgress, map[string]int{"processed": 1})
	time.Sleep(50 * time.Millisecond)

	select {
	case <-training.send:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("training client should receive message")
	}
	select {
	case <-all.send:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("unfiltered client should receive message")
	}
	select {
	case <-review.send:
		t.Fatal("review client should not receive training events")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)

	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.register <- slow
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(EventFacesCleared, nil)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients())
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 0, hub.ConnectedClients())
}

func TestHub_StoppedHubDoesNotBlockClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	require.True(t, hub.join(client))

	cancel()
	<-stopped

	left := make(chan struct{})
	go func() {
		hub.leave(client)
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("leave blocked after the hub stopped")
	}

	joined := make(chan bool, 1)
	go func() { joined <- hub.join(&Client{hub: hub, send: make(chan []byte, 1)}) }()
	select {
	case ok := <-joined:
		assert.False(t, ok, "a stopped hub must refuse new clients")
	case <-time.After(500 * time.Millisecond):
		t.Fatal("join blocked after the hub stopped")
	}
}

func TestEventType_Topic(t *testing.T) {
	assert.Equal(t, "review", EventFaceRejected.Topic())
	assert.Equal(t, "training", EventAggregatesRebuilt.Topic())
}

func TestUpgradeMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/events", UpgradeMiddleware(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("topic").(string))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/events", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)

	req := httptest.NewRequest("GET", "/events?topic=nope", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest("GET", "/events?topic=review", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
