package repository

import (
	"context"

	"peertrade/internal/domain/entity"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	ListByUserID(ctx context.Context, userID string, status string, limit, offset int) ([]*entity.Order, int64, error)

	// ListWithActiveCountdown returns non-terminal orders whose countdown_end
	// is set, for re-arming deadline timers after a restart.
	ListWithActiveCountdown(ctx context.Context) ([]*entity.Order, error)

	CreateLog(ctx context.Context, log *entity.OrderLog) error
	ListLogsByOrderID(ctx context.Context, orderID string) ([]*entity.OrderLog, error)
}
