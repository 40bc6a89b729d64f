package repository

import (
	"context"
	"sort"
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

type firestoreOrderRepository struct {
	client *firestore.Client
}

func NewFirestoreOrderRepository(client *firestore.Client) repository.OrderRepository {
	return &firestoreOrderRepository{
		client: client,
	}
}

func (r *firestoreOrderRepository) Create(ctx context.Context, order *entity.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	_, err := r.client.Collection("orders").Doc(order.ID).Set(ctx, order)
	if err != nil {
		return errors.Internal("Failed to create order", err)
	}

	return nil
}

func (r *firestoreOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	doc, err := r.client.Collection("orders").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Order", err)
		}
		return nil, errors.Internal("Failed to get order", err)
	}

	var order entity.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, errors.Internal("Failed to parse order data", err)
	}

	return &order, nil
}

func (r *firestoreOrderRepository) Update(ctx context.Context, order *entity.Order) error {
	order.UpdatedAt = time.Now()

	_, err := r.client.Collection("orders").Doc(order.ID).Set(ctx, order)
	if err != nil {
		return errors.Internal("Failed to update order", err)
	}

	return nil
}

// ListByUserID returns orders where the user is buyer or seller. Firestore
// cannot OR across fields in one query, so it is two queries merged and
// paginated in memory.
func (r *firestoreOrderRepository) ListByUserID(ctx context.Context, userID string, statusFilter string, limit, offset int) ([]*entity.Order, int64, error) {
	var all []*entity.Order
	seen := make(map[string]bool)

	for _, field := range []string{"buyerId", "sellerId"} {
		query := r.client.Collection("orders").Where(field, "==", userID)
		if statusFilter != "" {
			query = query.Where("status", "==", statusFilter)
		}

		iter := query.Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, 0, errors.Internal("Failed to iterate orders", err)
			}

			var order entity.Order
			if err := doc.DataTo(&order); err != nil {
				return nil, 0, errors.Internal("Failed to parse order data", err)
			}
			if seen[order.ID] {
				continue
			}
			seen[order.ID] = true
			all = append(all, &order)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	if offset > 0 {
		if offset >= len(all) {
			return []*entity.Order{}, total, nil
		}
		all = all[offset:]
	}
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	return all, total, nil
}

func (r *firestoreOrderRepository) ListWithActiveCountdown(ctx context.Context) ([]*entity.Order, error) {
	iter := r.client.Collection("orders").
		Where("status", "==", entity.OrderStatusPaid).
		Documents(ctx)

	var orders []*entity.Order
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate orders", err)
		}

		var order entity.Order
		if err := doc.DataTo(&order); err != nil {
			return nil, errors.Internal("Failed to parse order data", err)
		}
		if order.CountdownEnd == nil {
			continue
		}
		orders = append(orders, &order)
	}

	return orders, nil
}

func (r *firestoreOrderRepository) CreateLog(ctx context.Context, log *entity.OrderLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("order_logs").Doc(log.ID).Set(ctx, log)
	if err != nil {
		return errors.Internal("Failed to create order log", err)
	}

	return nil
}

func (r *firestoreOrderRepository) ListLogsByOrderID(ctx context.Context, orderID string) ([]*entity.OrderLog, error) {
	iter := r.client.Collection("order_logs").
		Where("orderId", "==", orderID).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)

	var logs []*entity.OrderLog
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate order logs", err)
		}

		var log entity.OrderLog
		if err := doc.DataTo(&log); err != nil {
			return nil, errors.Internal("Failed to parse order log data", err)
		}
		logs = append(logs, &log)
	}

	return logs, nil
}
