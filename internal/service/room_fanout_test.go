package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom/internal/dto"
)

func receiveEvent(t *testing.T, ch <-chan dto.RoomEvent) dto.RoomEvent {
	t.Helper()

	select {
	case event, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room event")
	}
	return dto.RoomEvent{}
}

func requireNoEvent(t *testing.T, ch <-chan dto.RoomEvent) {
	t.Helper()

	select {
	case event := <-ch:
		t.Fatalf("unexpected room event %q", event.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRoomFanoutLocalDelivery(t *testing.T) {
	fanout := NewRoomFanout(nil, "", nil, testLogger())

	events, cancel := fanout.Subscribe(7)
	other, cancelOther := fanout.Subscribe(8)
	defer cancelOther()

	fanout.Publish(context.Background(), 7, dto.RoomEventParticipantAdded, dto.ParticipantEvent{UserID: 3, Name: "Ada", Role: "student"})

	event := receiveEvent(t, events)
	require.Equal(t, dto.RoomEventParticipantAdded, event.Event)
	require.EqualValues(t, 7, event.RoomID)

	var payload dto.ParticipantEvent
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	require.Equal(t, "Ada", payload.Name)

	requireNoEvent(t, other)

	cancel()
	cancel()
	_, open := <-events
	require.False(t, open)
}

func TestRoomFanoutRelaysThroughRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	clientA := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer clientB.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	nodeA := NewRoomFanout(clientA, "test", nil, testLogger())
	nodeB := NewRoomFanout(clientB, "test", nil, testLogger())
	nodeA.Start(ctx)
	nodeB.Start(ctx)

	require.Eventually(t, func() bool {
		return server.PubSubNumSub("test:rooms")["test:rooms"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	local, cancelLocal := nodeA.Subscribe(1)
	defer cancelLocal()
	remote, cancelRemote := nodeB.Subscribe(1)
	defer cancelRemote()

	nodeA.Publish(ctx, 1, dto.RoomEventMessage, dto.ChatMessageResponse{ID: 10, RoomID: 1, Content: "hi"})

	require.Equal(t, dto.RoomEventMessage, receiveEvent(t, local).Event)
	require.Equal(t, dto.RoomEventMessage, receiveEvent(t, remote).Event)

	// The publishing node skips its own relayed copy.
	requireNoEvent(t, local)
}
