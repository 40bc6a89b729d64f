package repository

import (
	"context"

	"peertrade/internal/domain/entity"
)

type AdRepository interface {
	Create(ctx context.Context, ad *entity.Ad) error
	GetByID(ctx context.Context, id string) (*entity.Ad, error)
	Update(ctx context.Context, ad *entity.Ad) error
	ListActive(ctx context.Context, limit, offset int) ([]*entity.Ad, int64, error)
	ListBySellerID(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Ad, int64, error)

	// ReserveAmount atomically decrements the ad's available amount. It fails
	// with InsufficientAmount when amount exceeds availability.
	ReserveAmount(ctx context.Context, adID string, amount float64) (*entity.Ad, error)

	// ReleaseAmount atomically restores a previously reserved amount.
	ReleaseAmount(ctx context.Context, adID string, amount float64) error
}
