package websocket

import (
	"sync"
	"time"
)

// PresenceTracker owns the ephemeral typing state per order room. Indicators
// expire on their own after ttl so a crashed client never leaves a stuck
// "typing" badge behind.
type PresenceTracker struct {
	mu      sync.Mutex
	ttl     time.Duration
	timers  map[string]*time.Timer // orderID|userID -> expiry timer
	manager *Manager
}

func NewPresenceTracker(manager *Manager, ttl time.Duration) *PresenceTracker {
	return &PresenceTracker{
		ttl:     ttl,
		timers:  make(map[string]*time.Timer),
		manager: manager,
	}
}

type typingPayload struct {
	OrderID  string `json:"order_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// SetTyping marks a user as typing in an order room and (re)arms the expiry
// timer. Repeated calls while already typing just push the expiry out.
func (p *PresenceTracker) SetTyping(orderID, userID, username string) {
	key := orderID + "|" + userID

	p.mu.Lock()
	fresh := true
	if timer, ok := p.timers[key]; ok {
		timer.Stop()
		fresh = false
	}
	p.timers[key] = time.AfterFunc(p.ttl, func() {
		p.expire(orderID, userID, username)
	})
	p.mu.Unlock()

	if fresh {
		p.manager.BroadcastToOrder(orderID, MarshalEvent(EventUserTyping, typingPayload{
			OrderID:  orderID,
			UserID:   userID,
			Username: username,
		}), userID)
	}
}

// StopTyping clears the indicator immediately, ahead of the ttl.
func (p *PresenceTracker) StopTyping(orderID, userID string) {
	key := orderID + "|" + userID

	p.mu.Lock()
	timer, ok := p.timers[key]
	if ok {
		timer.Stop()
		delete(p.timers, key)
	}
	p.mu.Unlock()

	if ok {
		p.manager.BroadcastToOrder(orderID, MarshalEvent(EventUserStopTyping, typingPayload{
			OrderID: orderID,
			UserID:  userID,
		}), userID)
	}
}

// IsTyping reports whether the user currently has a live indicator in the
// order room.
func (p *PresenceTracker) IsTyping(orderID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.timers[orderID+"|"+userID]
	return ok
}

func (p *PresenceTracker) expire(orderID, userID, username string) {
	key := orderID + "|" + userID

	p.mu.Lock()
	delete(p.timers, key)
	p.mu.Unlock()

	p.manager.BroadcastToOrder(orderID, MarshalEvent(EventUserStopTyping, typingPayload{
		OrderID:  orderID,
		UserID:   userID,
		Username: username,
	}), userID)
}
