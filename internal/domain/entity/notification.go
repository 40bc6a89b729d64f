package entity

import "time"

const (
	NotificationTypeNewOrder    = "new_order"
	NotificationTypeOrderStatus = "order_status"
	NotificationTypeNewMessage  = "new_message"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Notification struct {
	ID       string                 `json:"id" firestore:"id"`
	UserID   string                 `json:"user_id" firestore:"userId"`
	Type     string                 `json:"type" firestore:"type"`
	Title    string                 `json:"title" firestore:"title"`
	Body     string                 `json:"body" firestore:"body"`
	Payload  map[string]interface{} `json:"payload,omitempty" firestore:"payload,omitempty"`
	Priority string                 `json:"priority" firestore:"priority"`

	// Read only ever goes false -> true.
	Read bool `json:"read" firestore:"read"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
