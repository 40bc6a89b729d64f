package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"peertrade/internal/domain/entity"
	"peertrade/internal/domain/repository"
	"peertrade/pkg/errors"
)

type AdUseCase struct {
	adRepo   repository.AdRepository
	userRepo repository.UserRepository
}

func NewAdUseCase(adRepo repository.AdRepository, userRepo repository.UserRepository) *AdUseCase {
	return &AdUseCase{
		adRepo:   adRepo,
		userRepo: userRepo,
	}
}

type CreateAdInput struct {
	Type            string
	CurrencyFrom    string
	CurrencyTo      string
	ExchangeRate    float64
	AmountAvailable float64
	MinAmount       float64
	MaxAmount       float64
	PaymentMethods  []string
}

func (uc *AdUseCase) CreateAd(ctx context.Context, sellerID string, input CreateAdInput) (*entity.Ad, error) {
	if input.Type != entity.AdTypeBuy && input.Type != entity.AdTypeSell {
		return nil, errors.BadRequest("ad type must be buy or sell", nil)
	}
	if input.ExchangeRate <= 0 {
		return nil, errors.BadRequest("exchange rate must be positive", nil)
	}
	if input.AmountAvailable <= 0 {
		return nil, errors.BadRequest("available amount must be positive", nil)
	}
	if input.MinAmount > 0 && input.MaxAmount > 0 && input.MinAmount > input.MaxAmount {
		return nil, errors.BadRequest("min amount exceeds max amount", nil)
	}

	sellerName := ""
	if seller, err := uc.userRepo.GetByID(ctx, sellerID); err == nil {
		sellerName = seller.Username
	}

	now := time.Now()
	ad := &entity.Ad{
		ID:              uuid.New().String(),
		SellerID:        sellerID,
		SellerName:      sellerName,
		Type:            input.Type,
		CurrencyFrom:    input.CurrencyFrom,
		CurrencyTo:      input.CurrencyTo,
		ExchangeRate:    input.ExchangeRate,
		AmountAvailable: input.AmountAvailable,
		MinAmount:       input.MinAmount,
		MaxAmount:       input.MaxAmount,
		PaymentMethods:  input.PaymentMethods,
		Status:          entity.AdStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.adRepo.Create(ctx, ad); err != nil {
		return nil, errors.Internal("failed to create ad", err)
	}
	return ad, nil
}

func (uc *AdUseCase) GetAd(ctx context.Context, adID string) (*entity.Ad, error) {
	return uc.adRepo.GetByID(ctx, adID)
}

// ListMarketplace returns active ads visible to everyone.
func (uc *AdUseCase) ListMarketplace(ctx context.Context, limit, offset int) ([]*entity.Ad, int64, error) {
	return uc.adRepo.ListActive(ctx, limit, offset)
}

func (uc *AdUseCase) ListMyAds(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Ad, int64, error) {
	return uc.adRepo.ListBySellerID(ctx, sellerID, limit, offset)
}

type UpdateAdInput struct {
	ExchangeRate    *float64
	AmountAvailable *float64
	MinAmount       *float64
	MaxAmount       *float64
	PaymentMethods  []string
	Status          *string
}

func (uc *AdUseCase) UpdateAd(ctx context.Context, adID, sellerID string, input UpdateAdInput) (*entity.Ad, error) {
	ad, err := uc.adRepo.GetByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad.SellerID != sellerID {
		return nil, errors.Forbidden("ad belongs to another user", nil)
	}
	if ad.Status == entity.AdStatusDeleted {
		return nil, errors.BadRequest("ad has been deleted", nil)
	}

	if input.ExchangeRate != nil {
		if *input.ExchangeRate <= 0 {
			return nil, errors.BadRequest("exchange rate must be positive", nil)
		}
		ad.ExchangeRate = *input.ExchangeRate
	}
	if input.AmountAvailable != nil {
		if *input.AmountAvailable < 0 {
			return nil, errors.BadRequest("available amount cannot be negative", nil)
		}
		ad.AmountAvailable = *input.AmountAvailable
	}
	if input.MinAmount != nil {
		ad.MinAmount = *input.MinAmount
	}
	if input.MaxAmount != nil {
		ad.MaxAmount = *input.MaxAmount
	}
	if input.PaymentMethods != nil {
		ad.PaymentMethods = input.PaymentMethods
	}
	if input.Status != nil {
		if *input.Status != entity.AdStatusActive && *input.Status != entity.AdStatusPaused {
			return nil, errors.BadRequest("status must be active or paused", nil)
		}
		ad.Status = *input.Status
	}
	ad.UpdatedAt = time.Now()

	if err := uc.adRepo.Update(ctx, ad); err != nil {
		return nil, errors.Internal("failed to update ad", err)
	}
	return ad, nil
}

// DeleteAd soft-deletes the ad so existing orders keep a resolvable ad id.
func (uc *AdUseCase) DeleteAd(ctx context.Context, adID, sellerID string) error {
	ad, err := uc.adRepo.GetByID(ctx, adID)
	if err != nil {
		return err
	}
	if ad.SellerID != sellerID {
		return errors.Forbidden("ad belongs to another user", nil)
	}

	ad.Status = entity.AdStatusDeleted
	ad.UpdatedAt = time.Now()
	return uc.adRepo.Update(ctx, ad)
}
