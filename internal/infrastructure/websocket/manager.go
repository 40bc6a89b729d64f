package websocket

import (
	"context"
	"sync"
	"time"

	"peertrade/pkg/logger"
)

// Manager is the channel registry: it maps the two channel namespaces
// (per-order rooms, per-user channels) to live connections. Membership is
// ephemeral; nothing here survives a disconnect.
type Manager struct {
	mu sync.RWMutex

	// connection id -> client
	clients map[string]*Client
	// user id -> connection ids (a user may have several tabs open)
	userConns map[string]map[string]*Client
	// order id -> connection ids currently viewing that order
	orderRooms map[string]map[string]*Client
	// connection id -> order ids joined, for cleanup on disconnect
	joinedOrders map[string]map[string]bool

	Register   chan *Client
	Unregister chan *Client

	presence *PresenceTracker
	chat     ChatDispatcher
	limiter  ActionLimiter
}

// ActionLimiter throttles per-user socket actions (typing floods).
type ActionLimiter interface {
	Allow(userID, action string) (bool, time.Duration)
}

func NewManager() *Manager {
	m := &Manager{
		clients:      make(map[string]*Client),
		userConns:    make(map[string]map[string]*Client),
		orderRooms:   make(map[string]map[string]*Client),
		joinedOrders: make(map[string]map[string]bool),
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
	}
	return m
}

// AttachChat wires the chat use case in after construction; the use case
// itself depends on the manager, so this breaks the construction cycle.
func (m *Manager) AttachChat(chat ChatDispatcher) {
	m.chat = chat
}

func (m *Manager) AttachPresence(presence *PresenceTracker) {
	m.presence = presence
}

func (m *Manager) AttachLimiter(limiter ActionLimiter) {
	m.limiter = limiter
}

// Start runs the register/unregister loop until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.addClient(client)
				logger.Info("websocket: client %s registered for user %s", client.ConnID, client.UserID)

			case client := <-m.Unregister:
				m.removeClient(client.ConnID)
				logger.Info("websocket: client %s unregistered for user %s", client.ConnID, client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) addClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[client.ConnID] = client
	if m.userConns[client.UserID] == nil {
		m.userConns[client.UserID] = make(map[string]*Client)
	}
	m.userConns[client.UserID][client.ConnID] = client
}

func (m *Manager) removeClient(connID string) {
	m.mu.Lock()
	client, ok := m.clients[connID]
	if !ok {
		m.mu.Unlock()
		return
	}

	delete(m.clients, connID)
	if conns := m.userConns[client.UserID]; conns != nil {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(m.userConns, client.UserID)
		}
	}
	var left []string
	for orderID := range m.joinedOrders[connID] {
		if room := m.orderRooms[orderID]; room != nil {
			delete(room, connID)
			if len(room) == 0 {
				delete(m.orderRooms, orderID)
			}
		}
		left = append(left, orderID)
	}
	delete(m.joinedOrders, connID)
	client.closeSend()
	m.mu.Unlock()

	// A dropped connection also ends any typing indicator it was showing.
	if m.presence != nil {
		for _, orderID := range left {
			m.presence.StopTyping(orderID, client.UserID)
		}
	}
}

// JoinOrder subscribes a connection to an order room.
func (m *Manager) JoinOrder(orderID string, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.orderRooms[orderID] == nil {
		m.orderRooms[orderID] = make(map[string]*Client)
	}
	m.orderRooms[orderID][client.ConnID] = client

	if m.joinedOrders[client.ConnID] == nil {
		m.joinedOrders[client.ConnID] = make(map[string]bool)
	}
	m.joinedOrders[client.ConnID][orderID] = true
}

// LeaveOrder removes a connection from an order room.
func (m *Manager) LeaveOrder(orderID string, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room := m.orderRooms[orderID]; room != nil {
		delete(room, client.ConnID)
		if len(room) == 0 {
			delete(m.orderRooms, orderID)
		}
	}
	if joined := m.joinedOrders[client.ConnID]; joined != nil {
		delete(joined, orderID)
	}
}

// BroadcastToOrder delivers payload to every connection in the order room,
// except connections of excludeUserID when set. An empty room is a no-op.
func (m *Manager) BroadcastToOrder(orderID string, payload []byte, excludeUserID string) {
	if payload == nil {
		return
	}

	m.mu.RLock()
	room := m.orderRooms[orderID]
	targets := make([]*Client, 0, len(room))
	for _, client := range room {
		if excludeUserID != "" && client.UserID == excludeUserID {
			continue
		}
		targets = append(targets, client)
	}
	m.mu.RUnlock()

	for _, client := range targets {
		m.send(client, payload)
	}
}

// SendToUser delivers payload to every live connection of a user. A no-op
// when the user is offline; durability is the notification store's job.
func (m *Manager) SendToUser(userID string, payload []byte) {
	if payload == nil {
		return
	}

	m.mu.RLock()
	conns := m.userConns[userID]
	targets := make([]*Client, 0, len(conns))
	for _, client := range conns {
		targets = append(targets, client)
	}
	m.mu.RUnlock()

	for _, client := range targets {
		m.send(client, payload)
	}
}

// IsUserViewingOrder reports whether any of the user's connections is
// currently joined to the order room.
func (m *Manager) IsUserViewingOrder(orderID, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.orderRooms[orderID] {
		if client.UserID == userID {
			return true
		}
	}
	return false
}

func (m *Manager) send(client *Client, payload []byte) {
	if client.trySend(payload) {
		return
	}
	// Slow consumer (or one already gone): drop the connection rather than
	// block everyone. Removing an already-removed client is a no-op.
	logger.Warn("websocket: undeliverable payload, dropping client %s (user %s)", client.ConnID, client.UserID)
	m.removeClient(client.ConnID)
}
