package websocket

import (
	"context"
	"encoding/json"
	"time"

	"peertrade/internal/domain/entity"
	"peertrade/pkg/logger"
)

// ChatDispatcher is what the manager needs from the chat use case to serve
// socket-originated traffic. Implemented by usecase.ChatUseCase.
type ChatDispatcher interface {
	IsParty(ctx context.Context, orderID, userID string) (bool, error)
	SendFromSocket(ctx context.Context, orderID, senderID, body, msgType string, file *entity.FileRef) error
}

type inboundMessage struct {
	Type        string          `json:"type"`
	OrderID     string          `json:"order_id"`
	Message     string          `json:"message"`
	MessageType string          `json:"message_type"`
	File        *entity.FileRef `json:"file,omitempty"`
}

const socketOpTimeout = 10 * time.Second

// HandleClientMessage dispatches one inbound frame. Malformed or unauthorized
// frames get an error event back on the same connection; the connection stays
// open.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.sendError(client, "invalid message format")
		return
	}

	switch msg.Type {
	case inboundPing:
		m.send(client, MarshalEvent(EventPong, nil))

	case inboundJoinOrder:
		m.handleJoinOrder(client, msg.OrderID)

	case inboundLeaveOrder:
		if msg.OrderID == "" {
			m.sendError(client, "order_id is required")
			return
		}
		m.LeaveOrder(msg.OrderID, client)
		if m.presence != nil {
			m.presence.StopTyping(msg.OrderID, client.UserID)
		}

	case inboundSendMessage:
		m.handleSendMessage(client, msg)

	case inboundTyping:
		m.handleTyping(client, msg.OrderID, true)

	case inboundStopTyping:
		m.handleTyping(client, msg.OrderID, false)

	default:
		m.sendError(client, "unknown message type: "+msg.Type)
	}
}

func (m *Manager) handleJoinOrder(client *Client, orderID string) {
	if orderID == "" {
		m.sendError(client, "order_id is required")
		return
	}
	if m.chat == nil {
		m.sendError(client, "chat is not available")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
	defer cancel()

	ok, err := m.chat.IsParty(ctx, orderID, client.UserID)
	if err != nil {
		logger.Error("websocket: join check failed for order %s: %v", orderID, err)
		m.sendError(client, "failed to join order")
		return
	}
	if !ok {
		m.sendError(client, "you are not a party to this order")
		return
	}

	m.JoinOrder(orderID, client)
}

func (m *Manager) handleSendMessage(client *Client, msg inboundMessage) {
	if msg.OrderID == "" {
		m.sendError(client, "order_id is required")
		return
	}
	if m.chat == nil {
		m.sendError(client, "chat is not available")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
	defer cancel()

	msgType := msg.MessageType
	if msgType == "" {
		msgType = entity.MessageTypeText
	}

	if err := m.chat.SendFromSocket(ctx, msg.OrderID, client.UserID, msg.Message, msgType, msg.File); err != nil {
		logger.Warn("websocket: send_message rejected for user %s on order %s: %v", client.UserID, msg.OrderID, err)
		m.sendError(client, "failed to send message")
		return
	}

	// Sending a message implies the user stopped typing.
	if m.presence != nil {
		m.presence.StopTyping(msg.OrderID, client.UserID)
	}
}

func (m *Manager) handleTyping(client *Client, orderID string, start bool) {
	if orderID == "" {
		m.sendError(client, "order_id is required")
		return
	}
	if m.presence == nil {
		return
	}

	// Only members of the room may emit typing signals.
	m.mu.RLock()
	_, inRoom := m.orderRooms[orderID][client.ConnID]
	m.mu.RUnlock()
	if !inRoom {
		return
	}

	if start {
		if !m.allow(client, "typing") {
			return
		}
		m.presence.SetTyping(orderID, client.UserID, client.Username)
	} else {
		m.presence.StopTyping(orderID, client.UserID)
	}
}

func (m *Manager) allow(client *Client, action string) bool {
	if m.limiter == nil {
		return true
	}
	ok, wait := m.limiter.Allow(client.UserID, action)
	if !ok {
		logger.Debug("websocket: user %s throttled on %s, retry in %s", client.UserID, action, wait)
	}
	return ok
}

func (m *Manager) sendError(client *Client, message string) {
	m.send(client, MarshalEvent(EventError, map[string]string{"message": message}))
}
