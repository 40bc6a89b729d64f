package repository

import (
	"context"
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

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

type messageCounter struct {
	LastSeq int64 `firestore:"lastSeq"`
}

// Create persists the message and assigns its sequence number inside a
// Firestore transaction against a per-order counter document. The
// transaction makes seq assignment atomic: concurrent senders get
// consecutive numbers, never colliding or gapping.
func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	counterRef := r.client.Collection("message_counters").Doc(message.OrderID)
	messageRef := r.client.Collection("messages").Doc(message.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var counter messageCounter

		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
		} else {
			if err := doc.DataTo(&counter); err != nil {
				return err
			}
		}

		counter.LastSeq++
		message.Seq = counter.LastSeq

		if err := tx.Set(counterRef, counter); err != nil {
			return err
		}
		return tx.Set(messageRef, message)
	})
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) ListByOrderID(ctx context.Context, orderID string) ([]*entity.Message, error) {
	iter := r.client.Collection("messages").
		Where("orderId", "==", orderID).
		OrderBy("seq", firestore.Asc).
		Documents(ctx)

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}
