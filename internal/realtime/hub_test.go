package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-tracker-backend/internal/model"
	"equipment-tracker-backend/internal/propagate"
)

func testMessage(equipmentID int) propagate.StateChangedMessage {
	return propagate.StateChangedMessage{
		Topic:         propagate.Topic,
		EquipmentID:   equipmentID,
		EquipmentName: "Moulding 1",
		State:         model.StateRed,
		StateLabel:    "Red",
		Timestamp:     time.Now().UTC(),
	}
}

func TestHub_NotifyDeliversToAllClients(t *testing.T) {
	hub := NewHub()

	a := hub.Subscribe()
	b := hub.Subscribe()
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	require.NoError(t, hub.Notify(context.Background(), propagate.Topic, testMessage(1)))

	for _, client := range []*Client{a, b} {
		select {
		case msg := <-client.Outbound:
			assert.Equal(t, 1, msg.EquipmentID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestHub_NotifyWithNoClientsSucceeds(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.Notify(context.Background(), propagate.Topic, testMessage(1)))
}

func TestHub_SlowClientDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()

	client := hub.Subscribe()
	defer hub.Unsubscribe(client)

	// Fill the client's buffer and then some; Notify must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < clientBufferSize*2; i++ {
			_ = hub.Notify(context.Background(), propagate.Topic, testMessage(i))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow client")
	}

	assert.Len(t, client.Outbound, clientBufferSize)
}

func TestHub_CancelledContextReturnsError(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, hub.Notify(ctx, propagate.Topic, testMessage(1)))
}

func TestHub_UnsubscribeRemovesClient(t *testing.T) {
	hub := NewHub()

	client := hub.Subscribe()
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unsubscribe(client)
	assert.Equal(t, 0, hub.ClientCount())

	// Double unsubscribe is safe.
	hub.Unsubscribe(client)
	assert.Equal(t, 0, hub.ClientCount())
}
