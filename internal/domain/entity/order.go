package entity

import (
	"time"
)

// Order statuses. Terminal statuses are never left again; disputed is
// terminal here and waits on out-of-band resolution.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusDisputed  = "disputed"
)

// Order actions accepted by the state machine.
const (
	ActionRequestBankDetails      = "request_bank_details"
	ActionConfirmBankDetails      = "confirm_bank_details"
	ActionMarkPaid                = "mark_paid"
	ActionConfirmReceivingAccount = "confirm_receiving_account"
	ActionComplete                = "complete"
	ActionCancel                  = "cancel"
)

// Role is the capability a user holds on a specific order.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleNone   Role = ""
)

type Order struct {
	ID         string `json:"id" firestore:"id"`
	AdID       string `json:"ad_id" firestore:"adId"`
	BuyerID    string `json:"buyer_id" firestore:"buyerId"`
	BuyerName  string `json:"buyer_name" firestore:"buyerName"`
	SellerID   string `json:"seller_id" firestore:"sellerId"`
	SellerName string `json:"seller_name" firestore:"sellerName"`

	// Trade terms, immutable after creation.
	CurrencyFrom string  `json:"currency_from" firestore:"currencyFrom"`
	CurrencyTo   string  `json:"currency_to" firestore:"currencyTo"`
	Amount       float64 `json:"amount" firestore:"amount"`
	ExchangeRate float64 `json:"exchange_rate" firestore:"exchangeRate"`
	TotalPrice   float64 `json:"total_price" firestore:"totalPrice"`

	Status       string     `json:"status" firestore:"status"`
	CountdownEnd *time.Time `json:"countdown_end,omitempty" firestore:"countdownEnd,omitempty"`

	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updated_at" firestore:"updatedAt"`
	PaidAt      *time.Time `json:"paid_at,omitempty" firestore:"paidAt,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" firestore:"cancelledAt,omitempty"`
	DisputedAt  *time.Time `json:"disputed_at,omitempty" firestore:"disputedAt,omitempty"`
}

// RoleOf returns the capability userID holds on this order.
func (o *Order) RoleOf(userID string) Role {
	switch userID {
	case o.BuyerID:
		return RoleBuyer
	case o.SellerID:
		return RoleSeller
	default:
		return RoleNone
	}
}

// Counterparty returns the other party's user id, or "" if userID is not a party.
func (o *Order) Counterparty(userID string) string {
	switch userID {
	case o.BuyerID:
		return o.SellerID
	case o.SellerID:
		return o.BuyerID
	default:
		return ""
	}
}

// IsTerminal reports whether no further transitions are possible.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted ||
		o.Status == OrderStatusCancelled ||
		o.Status == OrderStatusDisputed
}

// OrderLog is one audit record per state machine transition.
type OrderLog struct {
	ID        string    `json:"id" firestore:"id"`
	OrderID   string    `json:"order_id" firestore:"orderId"`
	Status    string    `json:"status" firestore:"status"`
	Action    string    `json:"action" firestore:"action"`
	Note      string    `json:"note,omitempty" firestore:"note,omitempty"`
	CreatedBy string    `json:"created_by" firestore:"createdBy"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
