package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"peertrade/internal/domain/entity"
	"peertrade/internal/domain/repository"
	"peertrade/internal/infrastructure/websocket"
	"peertrade/pkg/errors"
	"peertrade/pkg/logger"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	registry         ChannelRegistry
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	registry ChannelRegistry,
) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		registry:         registry,
	}
}

// Notify persists a notification and pushes it to the recipient's personal
// channel. Delivery to a live connection is best-effort; the stored record
// is what guarantees the recipient eventually sees it.
func (uc *NotificationUseCase) Notify(ctx context.Context, userID, notificationType, title, body string, payload map[string]interface{}, priority string) error {
	notification := &entity.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Body:      body,
		Payload:   payload,
		Priority:  priority,
		Read:      false,
		CreatedAt: time.Now(),
	}

	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		return errors.Internal("failed to create notification", err)
	}

	uc.registry.SendToUser(userID, websocket.MarshalEvent(websocket.EventNotification, notification))
	return nil
}

func (uc *NotificationUseCase) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByUserID(ctx, userID, limit, offset)
}

func (uc *NotificationUseCase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead flips the read flag to true. It is idempotent: marking an
// already-read notification succeeds without touching the record.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, notificationID, requesterID string) error {
	notification, err := uc.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if notification.UserID != requesterID {
		return errors.Forbidden("notification belongs to another user", nil)
	}
	if notification.Read {
		return nil
	}

	notification.Read = true
	return uc.notificationRepo.Update(ctx, notification)
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, userID string) error {
	return uc.notificationRepo.MarkAllRead(ctx, userID)
}

// ClearAll deletes every notification owned by the user.
func (uc *NotificationUseCase) ClearAll(ctx context.Context, userID string) error {
	if err := uc.notificationRepo.DeleteByUserID(ctx, userID); err != nil {
		return errors.Internal("failed to clear notifications", err)
	}
	logger.Debug("cleared notifications for user %s", userID)
	return nil
}
