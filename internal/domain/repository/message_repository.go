package repository

import (
	"context"

	"peertrade/internal/domain/entity"
)

type MessageRepository interface {
	// Create persists the message and assigns its per-order sequence number.
	// Sequence numbers are strictly increasing and gapless within an order.
	Create(ctx context.Context, message *entity.Message) error

	ListByOrderID(ctx context.Context, orderID string) ([]*entity.Message, error)
}
