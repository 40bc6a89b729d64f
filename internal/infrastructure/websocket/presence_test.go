package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPresence(ttl time.Duration) (*Manager, *PresenceTracker, *Client, *Client) {
	m := NewManager()
	p := NewPresenceTracker(m, ttl)
	m.AttachPresence(p)

	buyer := newTestClient("conn-1", "buyer-1")
	seller := newTestClient("conn-2", "seller-1")
	m.addClient(buyer)
	m.addClient(seller)
	m.JoinOrder("order-1", buyer)
	m.JoinOrder("order-1", seller)

	return m, p, buyer, seller
}

func TestTypingBroadcastsToOtherParty(t *testing.T) {
	_, p, buyer, seller := setupPresence(time.Minute)

	p.SetTyping("order-1", "buyer-1", "alice")

	event := drainOne(t, seller)
	assert.Equal(t, EventUserTyping, event.Type)
	assert.Empty(t, buyer.Send, "the typist does not hear their own indicator")
	assert.True(t, p.IsTyping("order-1", "buyer-1"))
}

func TestTypingAutoExpires(t *testing.T) {
	_, p, _, seller := setupPresence(40 * time.Millisecond)

	p.SetTyping("order-1", "buyer-1", "alice")
	assert.Equal(t, EventUserTyping, drainOne(t, seller).Type)

	require.Eventually(t, func() bool {
		return !p.IsTyping("order-1", "buyer-1")
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, EventUserStopTyping, drainOne(t, seller).Type)
}

func TestTypingRefreshExtendsWindow(t *testing.T) {
	_, p, _, seller := setupPresence(60 * time.Millisecond)

	p.SetTyping("order-1", "buyer-1", "alice")
	assert.Equal(t, EventUserTyping, drainOne(t, seller).Type)

	// Keep refreshing past the original window; indicator must stay alive
	// and not re-broadcast user_typing.
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		p.SetTyping("order-1", "buyer-1", "alice")
	}
	assert.True(t, p.IsTyping("order-1", "buyer-1"))
	assert.Empty(t, seller.Send, "refresh must not repeat the typing event")
}

func TestStopTypingExplicit(t *testing.T) {
	_, p, _, seller := setupPresence(time.Minute)

	p.SetTyping("order-1", "buyer-1", "alice")
	assert.Equal(t, EventUserTyping, drainOne(t, seller).Type)

	p.StopTyping("order-1", "buyer-1")
	assert.Equal(t, EventUserStopTyping, drainOne(t, seller).Type)
	assert.False(t, p.IsTyping("order-1", "buyer-1"))

	// Stopping again is a no-op, no duplicate event.
	p.StopTyping("order-1", "buyer-1")
	assert.Empty(t, seller.Send)
}

func TestDisconnectClearsTyping(t *testing.T) {
	m, p, buyer, seller := setupPresence(time.Minute)

	p.SetTyping("order-1", "buyer-1", "alice")
	assert.Equal(t, EventUserTyping, drainOne(t, seller).Type)

	m.removeClient(buyer.ConnID)

	assert.False(t, p.IsTyping("order-1", "buyer-1"))
	assert.Equal(t, EventUserStopTyping, drainOne(t, seller).Type)
}
