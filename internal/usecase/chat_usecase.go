package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"peertrade/internal/domain/entity"
	"peertrade/internal/domain/repository"
	"peertrade/internal/infrastructure/websocket"
	"peertrade/pkg/errors"
	"peertrade/pkg/logger"
)

// RateLimiter throttles per-user actions. Satisfied by ratelimit.RateLimiter.
type RateLimiter interface {
	Allow(userID, action string) (bool, time.Duration)
}

// ChatUseCase is the message stream for an order: party-gated append and
// list, gapless per-order ordering, realtime fan-out.
type ChatUseCase struct {
	messageRepo repository.MessageRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	notifier    *NotificationUseCase
	registry    ChannelRegistry
	limiter     RateLimiter

	// Shared with OrderUseCase so chat and status events for the same order
	// serialize through one point.
	locks *OrderLocks
}

func NewChatUseCase(
	messageRepo repository.MessageRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	notifier *NotificationUseCase,
	registry ChannelRegistry,
	limiter RateLimiter,
	locks *OrderLocks,
) *ChatUseCase {
	return &ChatUseCase{
		messageRepo: messageRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		registry:    registry,
		limiter:     limiter,
		locks:       locks,
	}
}

// SendMessage appends one message to the order's stream. The sender must be
// a party to the order. The assigned sequence number defines the total order
// every client observes.
func (uc *ChatUseCase) SendMessage(ctx context.Context, orderID, senderID, body, msgType string, file *entity.FileRef) (*entity.Message, error) {
	if msgType == "" {
		msgType = entity.MessageTypeText
	}
	switch msgType {
	case entity.MessageTypeText:
		if strings.TrimSpace(body) == "" {
			return nil, errors.BadRequest("message body is required", nil)
		}
	case entity.MessageTypeFile:
		if file == nil || file.Path == "" {
			return nil, errors.BadRequest("file reference is required", nil)
		}
	default:
		return nil, errors.BadRequest(fmt.Sprintf("unsupported message type: %s", msgType), nil)
	}

	if uc.limiter != nil {
		if allowed, wait := uc.limiter.Allow(senderID, "send_message"); !allowed {
			return nil, errors.TooManyRequests(fmt.Sprintf("rate limit exceeded, retry in %s", wait.Round(time.Second)))
		}
	}

	release := uc.locks.Acquire(orderID)
	defer release()

	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RoleOf(senderID) == entity.RoleNone {
		return nil, errors.Forbidden("you are not a party to this order", nil)
	}

	senderName := ""
	if sender, err := uc.userRepo.GetByID(ctx, senderID); err == nil {
		senderName = sender.Username
	} else {
		logger.Warn("failed to resolve sender %s name: %v", senderID, err)
	}

	message := &entity.Message{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		SenderID:   senderID,
		SenderName: senderName,
		Type:       msgType,
		Body:       body,
		File:       file,
		CreatedAt:  time.Now(),
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, errors.Internal("failed to persist message", err)
	}

	uc.registry.BroadcastToOrder(orderID, websocket.MarshalEvent(websocket.EventNewMessage, message), senderID)
	uc.notifyRecipient(ctx, order, message)

	return message, nil
}

// ListMessages returns the full ordered history of an order's stream.
func (uc *ChatUseCase) ListMessages(ctx context.Context, orderID, requesterID string) ([]*entity.Message, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RoleOf(requesterID) == entity.RoleNone {
		return nil, errors.Forbidden("you are not a party to this order", nil)
	}

	return uc.messageRepo.ListByOrderID(ctx, orderID)
}

// SendSystemMessage appends a system-authored message visible to both
// parties. No notification is raised; callers pair it with their own.
func (uc *ChatUseCase) SendSystemMessage(ctx context.Context, orderID, body string) error {
	message := &entity.Message{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		SenderID:  "system",
		Type:      entity.MessageTypeSystem,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return errors.Internal("failed to persist system message", err)
	}

	uc.registry.BroadcastToOrder(orderID, websocket.MarshalEvent(websocket.EventNewMessage, message), "")
	return nil
}

// IsParty reports whether userID is buyer or seller on the order. Used by
// the websocket layer to gate room joins.
func (uc *ChatUseCase) IsParty(ctx context.Context, orderID, userID string) (bool, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return false, nil
		}
		return false, err
	}
	return order.RoleOf(userID) != entity.RoleNone, nil
}

// SendFromSocket adapts SendMessage for the websocket inbound path.
func (uc *ChatUseCase) SendFromSocket(ctx context.Context, orderID, senderID, body, msgType string, file *entity.FileRef) error {
	_, err := uc.SendMessage(ctx, orderID, senderID, body, msgType, file)
	return err
}

// notifyRecipient raises a new_message notification for the counterparty
// unless they are already viewing the order room.
func (uc *ChatUseCase) notifyRecipient(ctx context.Context, order *entity.Order, message *entity.Message) {
	recipient := order.Counterparty(message.SenderID)
	if recipient == "" {
		return
	}
	if uc.registry.IsUserViewingOrder(order.ID, recipient) {
		return
	}

	preview := message.Body
	if message.Type == entity.MessageTypeFile && message.File != nil {
		preview = message.File.OriginalName
	}
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}

	err := uc.notifier.Notify(ctx, recipient, entity.NotificationTypeNewMessage,
		fmt.Sprintf("New message from %s", message.SenderName), preview,
		map[string]interface{}{
			"order_id":   order.ID,
			"message_id": message.ID,
		}, entity.PriorityLow)
	if err != nil {
		logger.Error("failed to notify user %s about message %s: %v", recipient, message.ID, err)
	}
}
