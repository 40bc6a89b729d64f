package entity

import "time"

const (
	AdTypeBuy  = "buy"
	AdTypeSell = "sell"
)

const (
	AdStatusActive  = "active"
	AdStatusPaused  = "paused"
	AdStatusDeleted = "deleted"
)

// Ad is a standing offer to exchange currency. Orders are created against an
// ad by reserving part of its available amount.
type Ad struct {
	ID         string `json:"id" firestore:"id"`
	SellerID   string `json:"seller_id" firestore:"sellerId"`
	SellerName string `json:"seller_name" firestore:"sellerName"`
	Type       string `json:"type" firestore:"type"`

	CurrencyFrom string  `json:"currency_from" firestore:"currencyFrom"`
	CurrencyTo   string  `json:"currency_to" firestore:"currencyTo"`
	ExchangeRate float64 `json:"exchange_rate" firestore:"exchangeRate"`

	AmountAvailable float64 `json:"amount_available" firestore:"amountAvailable"`
	MinAmount       float64 `json:"min_amount" firestore:"minAmount"`
	MaxAmount       float64 `json:"max_amount" firestore:"maxAmount"`

	PaymentMethods []string `json:"payment_methods" firestore:"paymentMethods"`
	Status         string   `json:"status" firestore:"status"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
