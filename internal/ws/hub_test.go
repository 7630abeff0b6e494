package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := NewHub(0)
	client := newClient(hub, newFakeConn(), "")

	require.NoError(t, hub.addClient(client))
	assert.Equal(t, 1, hub.ConnectedClients())

	hub.removeClient(client)
	assert.Equal(t, 0, hub.ConnectedClients())

	_, open := <-client.send
	assert.False(t, open)

	// removing twice must not close the channel twice
	hub.removeClient(client)
}

func TestHub_RejectsAboveCapacity(t *testing.T) {
	hub := NewHub(1)

	require.NoError(t, hub.addClient(newClient(hub, newFakeConn(), "")))
	assert.ErrorIs(t, hub.addClient(newClient(hub, newFakeConn(), "")), ErrHubFull)
	assert.Equal(t, 1, hub.ConnectedClients())
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := NewHub(0)
	a := newClient(hub, newFakeConn(), "")
	b := newClient(hub, newFakeConn(), "")
	require.NoError(t, hub.addClient(a))
	require.NoError(t, hub.addClient(b))

	hub.broadcastAll(Event{Type: EventClosing})

	for _, client := range []*Client{a, b} {
		var event Event
		require.NoError(t, json.Unmarshal(<-client.send, &event))
		assert.Equal(t, EventClosing, event.Type)
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(0)
	client := newClient(hub, newFakeConn(), "")
	require.NoError(t, hub.addClient(client))

	for i := 0; i < cap(client.send)+1; i++ {
		hub.broadcastAll(Event{Type: EventDetection})
	}

	assert.Equal(t, 0, hub.ConnectedClients())
	assert.False(t, client.enqueue([]byte("late")))
}

func TestHub_RunClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(0)
	ctx, cancel := context.WithCancel(context.Background())

	client := newClient(hub, newFakeConn(), "")
	require.NoError(t, hub.addClient(client))

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	msg, open := <-client.send
	require.True(t, open)
	var event Event
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, EventClosing, event.Type)

	_, open = <-client.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ConnectedClients())
}
