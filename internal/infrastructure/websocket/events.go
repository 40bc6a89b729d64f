package websocket

import (
	"encoding/json"
	"time"

	"peertrade/pkg/logger"
)

// Event types pushed to subscribed channels.
const (
	EventOrderStatusChanged = "order_status_changed"
	EventNewMessage         = "new_message"
	EventUserTyping         = "user_typing"
	EventUserStopTyping     = "user_stop_typing"
	EventNotification       = "notification"
	EventPong               = "pong"
	EventError              = "error"
)

// Inbound message types accepted from clients.
const (
	inboundPing        = "ping"
	inboundJoinOrder   = "join_order"
	inboundLeaveOrder  = "leave_order"
	inboundSendMessage = "send_message"
	inboundTyping      = "typing"
	inboundStopTyping  = "stop_typing"
)

// Event is the wire envelope for everything pushed over a channel.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// MarshalEvent builds the envelope and serializes it. A marshal failure is a
// programming error on the payload type; it is logged and returns nil.
func MarshalEvent(eventType string, data interface{}) []byte {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("websocket: failed to marshal %s event: %v", eventType, err)
		return nil
	}
	return payload
}
