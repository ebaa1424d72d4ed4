package services

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestHub() *Hub {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	return hub
}

func newTestClient(hub *Hub, id uint) *Client {
	return &Client{
		ID:       id,
		UserType: "customer",
		Send:     make(chan []byte, 8),
		Hub:      hub,
	}
}

// waitFor polls cond until it holds or the deadline passes. Hub membership
// changes go through the run loop, so tests have to wait for them to land.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case payload := <-c.Send:
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestRegisterJoinsUserTopic(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	client := newTestClient(hub, 5)
	hub.Register(client)
	waitFor(t, func() bool { return hub.SubscriberCount(UserTopic(5)) == 1 })

	hub.Publish(UserTopic(5), EventNotification, map[string]any{"hello": true})

	event := receiveEvent(t, client)
	if event.Type != EventNotification {
		t.Errorf("event type = %q, want %q", event.Type, EventNotification)
	}
	if event.Topic != UserTopic(5) {
		t.Errorf("event topic = %q, want %q", event.Topic, UserTopic(5))
	}
	if event.ID == "" {
		t.Error("event ID should be set")
	}
}

func TestSubscribeAndUnsubscribeLoadTopic(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	client := newTestClient(hub, 5)
	hub.Register(client)
	waitFor(t, func() bool { return hub.ConnectedClients() == 1 })

	hub.Subscribe(client, LoadTopic(3))
	waitFor(t, func() bool { return hub.SubscriberCount(LoadTopic(3)) == 1 })

	hub.Publish(LoadTopic(3), EventStatusChanged, map[string]any{"loadId": 3})
	if event := receiveEvent(t, client); event.Type != EventStatusChanged {
		t.Errorf("event type = %q, want %q", event.Type, EventStatusChanged)
	}

	hub.Unsubscribe(client, LoadTopic(3))
	waitFor(t, func() bool { return hub.SubscriberCount(LoadTopic(3)) == 0 })

	hub.Publish(LoadTopic(3), EventStatusChanged, map[string]any{"loadId": 3})
	select {
	case payload := <-client.Send:
		t.Errorf("received %s after unsubscribe", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	first := newTestClient(hub, 1)
	second := newTestClient(hub, 2)
	hub.Register(first)
	hub.Register(second)
	waitFor(t, func() bool { return hub.ConnectedClients() == 2 })

	hub.Subscribe(first, LoadTopic(9))
	hub.Subscribe(second, LoadTopic(9))
	waitFor(t, func() bool { return hub.SubscriberCount(LoadTopic(9)) == 2 })

	hub.Publish(LoadTopic(9), EventETAUpdated, map[string]any{"etaMinutes": 12})

	for _, c := range []*Client{first, second} {
		if event := receiveEvent(t, c); event.Type != EventETAUpdated {
			t.Errorf("client %d event type = %q, want %q", c.ID, event.Type, EventETAUpdated)
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	client := newTestClient(hub, 5)
	client.Send = make(chan []byte) // no buffer, no reader
	hub.Register(client)
	waitFor(t, func() bool { return hub.SubscriberCount(UserTopic(5)) == 1 })

	done := make(chan struct{})
	go func() {
		// Must not block; a slow consumer misses the event.
		hub.Publish(UserTopic(5), EventNotification, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full send buffer")
	}
}

func TestUnregisterDropsTopicMemberships(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	client := newTestClient(hub, 5)
	hub.Register(client)
	waitFor(t, func() bool { return hub.ConnectedClients() == 1 })

	hub.Subscribe(client, LoadTopic(3))
	waitFor(t, func() bool { return hub.SubscriberCount(LoadTopic(3)) == 1 })

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ConnectedClients() == 0 })

	if n := hub.SubscriberCount(LoadTopic(3)); n != 0 {
		t.Errorf("load topic subscribers after unregister = %d, want 0", n)
	}
	if n := hub.SubscriberCount(UserTopic(5)); n != 0 {
		t.Errorf("user topic subscribers after unregister = %d, want 0", n)
	}

	if _, open := <-client.Send; open {
		t.Error("send channel should be closed on unregister")
	}
}

func TestMultiPublisherForwardsToAll(t *testing.T) {
	t.Parallel()

	first := &fakePublisher{}
	second := &fakePublisher{}
	multi := MultiPublisher{first, second}

	multi.Publish("load:1", EventStatusChanged, nil)

	if len(first.events) != 1 || len(second.events) != 1 {
		t.Errorf("events = %d/%d, want 1/1", len(first.events), len(second.events))
	}
}
