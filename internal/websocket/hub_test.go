package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func subscribe(t *testing.T, hub *Hub, roomID uuid.UUID) *Client {
	t.Helper()
	client := NewClient(hub, nil, roomID, uuid.Nil)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.Subscribers(roomID) > 0 }, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestPublishReachesOnlyRoomSubscribers(t *testing.T) {
	hub := runHub(t)
	roomA, roomB := uuid.New(), uuid.New()
	a := subscribe(t, hub, roomA)
	b := subscribe(t, hub, roomB)

	hub.Publish(roomA, EventMessageCreated, map[string]string{"body": "hello"})

	ev := receive(t, a)
	assert.Equal(t, EventMessageCreated, ev.Type)
	assert.Equal(t, roomA, ev.RoomID)
	assert.JSONEq(t, `{"body":"hello"}`, string(ev.Data))

	select {
	case <-b.Send:
		t.Fatal("event leaked into another room")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := runHub(t)
	room := uuid.New()
	c := subscribe(t, hub, room)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.Subscribers(room) == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestRoomDeletedDropsSubscribers(t *testing.T) {
	hub := runHub(t)
	room := uuid.New()
	c := subscribe(t, hub, room)

	hub.Publish(room, EventRoomDeleted, nil)

	ev := receive(t, c)
	assert.Equal(t, EventRoomDeleted, ev.Type)
	require.Eventually(t, func() bool { return hub.Subscribers(room) == 0 }, time.Second, 5*time.Millisecond)
}

func TestPublishAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	for i := 0; i < broadcastBuffer*2; i++ {
		hub.Publish(uuid.New(), EventRoomUpdated, nil)
	}
	hub.Register(NewClient(hub, nil, uuid.New(), uuid.Nil))
}
