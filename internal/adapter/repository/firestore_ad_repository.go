package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"peertrade/internal/domain/entity"
	"peertrade/internal/domain/repository"
	"peertrade/pkg/errors"
)

type firestoreAdRepository struct {
	client *firestore.Client
}

func NewFirestoreAdRepository(client *firestore.Client) repository.AdRepository {
	return &firestoreAdRepository{
		client: client,
	}
}

func (r *firestoreAdRepository) Create(ctx context.Context, ad *entity.Ad) error {
	if ad.ID == "" {
		ad.ID = uuid.New().String()
	}

	now := time.Now()
	if ad.CreatedAt.IsZero() {
		ad.CreatedAt = now
	}
	ad.UpdatedAt = now

	_, err := r.client.Collection("ads").Doc(ad.ID).Set(ctx, ad)
	if err != nil {
		return errors.Internal("Failed to create ad", err)
	}

	return nil
}

func (r *firestoreAdRepository) GetByID(ctx context.Context, id string) (*entity.Ad, error) {
	doc, err := r.client.Collection("ads").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Ad", err)
		}
		return nil, errors.Internal("Failed to get ad", err)
	}

	var ad entity.Ad
	if err := doc.DataTo(&ad); err != nil {
		return nil, errors.Internal("Failed to parse ad data", err)
	}

	return &ad, nil
}

func (r *firestoreAdRepository) Update(ctx context.Context, ad *entity.Ad) error {
	ad.UpdatedAt = time.Now()

	_, err := r.client.Collection("ads").Doc(ad.ID).Set(ctx, ad)
	if err != nil {
		return errors.Internal("Failed to update ad", err)
	}

	return nil
}

func (r *firestoreAdRepository) ListActive(ctx context.Context, limit, offset int) ([]*entity.Ad, int64, error) {
	query := r.client.Collection("ads").
		Where("status", "==", entity.AdStatusActive).
		OrderBy("createdAt", firestore.Desc)

	return r.listByQuery(ctx, query, limit, offset)
}

func (r *firestoreAdRepository) ListBySellerID(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Ad, int64, error) {
	query := r.client.Collection("ads").
		Where("sellerId", "==", sellerID).
		OrderBy("createdAt", firestore.Desc)

	return r.listByQuery(ctx, query, limit, offset)
}

func (r *firestoreAdRepository) listByQuery(ctx context.Context, query firestore.Query, limit, offset int) ([]*entity.Ad, int64, error) {
	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count ads", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var ads []*entity.Ad
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate ads", err)
		}

		var ad entity.Ad
		if err := doc.DataTo(&ad); err != nil {
			return nil, 0, errors.Internal("Failed to parse ad data", err)
		}
		ads = append(ads, &ad)
	}

	return ads, total, nil
}

// ReserveAmount decrements availability inside a transaction so concurrent
// orders against the same ad cannot oversell it.
func (r *firestoreAdRepository) ReserveAmount(ctx context.Context, adID string, amount float64) (*entity.Ad, error) {
	docRef := r.client.Collection("ads").Doc(adID)
	var reserved entity.Ad

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var ad entity.Ad
		if err := doc.DataTo(&ad); err != nil {
			return err
		}

		if ad.AmountAvailable < amount {
			return errors.InsufficientAmount(fmt.Sprintf("only %g available on this ad", ad.AmountAvailable))
		}

		ad.AmountAvailable -= amount
		ad.UpdatedAt = time.Now()
		reserved = ad

		return tx.Set(docRef, ad)
	})
	if err != nil {
		if errors.Is(err, "INSUFFICIENT_AMOUNT") {
			return nil, err
		}
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Ad", err)
		}
		return nil, errors.Internal("Failed to reserve ad amount", err)
	}

	return &reserved, nil
}

func (r *firestoreAdRepository) ReleaseAmount(ctx context.Context, adID string, amount float64) error {
	docRef := r.client.Collection("ads").Doc(adID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var ad entity.Ad
		if err := doc.DataTo(&ad); err != nil {
			return err
		}

		ad.AmountAvailable += amount
		ad.UpdatedAt = time.Now()

		return tx.Set(docRef, ad)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Ad", err)
		}
		return errors.Internal("Failed to release ad amount", err)
	}

	return nil
}
