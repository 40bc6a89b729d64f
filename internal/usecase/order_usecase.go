package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"peertrade/internal/domain/entity"
	"peertrade/internal/domain/repository"
	"peertrade/internal/infrastructure/websocket"
	"peertrade/pkg/errors"
	"peertrade/pkg/logger"
)

// transitionRule describes one edge of the order state machine. A rule with
// role RoleNone is open to both parties; a rule with an empty target leaves
// the status unchanged (notification-only actions).
type transitionRule struct {
	role entity.Role
	from map[string]bool
	to   string
}

var transitionRules = map[string]transitionRule{
	entity.ActionRequestBankDetails: {
		role: entity.RoleBuyer,
		from: map[string]bool{entity.OrderStatusPending: true},
	},
	entity.ActionConfirmBankDetails: {
		role: entity.RoleSeller,
		from: map[string]bool{entity.OrderStatusPending: true},
	},
	entity.ActionMarkPaid: {
		role: entity.RoleBuyer,
		from: map[string]bool{entity.OrderStatusPending: true},
		to:   entity.OrderStatusPaid,
	},
	entity.ActionConfirmReceivingAccount: {
		role: entity.RoleBuyer,
		from: map[string]bool{entity.OrderStatusPaid: true},
	},
	entity.ActionComplete: {
		role: entity.RoleSeller,
		from: map[string]bool{entity.OrderStatusPaid: true},
		to:   entity.OrderStatusCompleted,
	},
	entity.ActionCancel: {
		role: entity.RoleNone,
		from: map[string]bool{entity.OrderStatusPending: true, entity.OrderStatusPaid: true},
		to:   entity.OrderStatusCancelled,
	},
}

// OrderUseCase is the authoritative order lifecycle controller: role-gated
// transitions, deadline timers, audit logs, and the domain events that feed
// the notification dispatcher and realtime channels.
type OrderUseCase struct {
	orderRepo repository.OrderRepository
	adRepo    repository.AdRepository
	userRepo  repository.UserRepository
	notifier  *NotificationUseCase
	chat      *ChatUseCase
	registry  ChannelRegistry
	limiter   RateLimiter
	locks     *OrderLocks

	paymentWindow    time.Duration
	completionWindow time.Duration
}

func NewOrderUseCase(
	orderRepo repository.OrderRepository,
	adRepo repository.AdRepository,
	userRepo repository.UserRepository,
	notifier *NotificationUseCase,
	chat *ChatUseCase,
	registry ChannelRegistry,
	limiter RateLimiter,
	locks *OrderLocks,
	paymentWindow, completionWindow time.Duration,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:        orderRepo,
		adRepo:           adRepo,
		userRepo:         userRepo,
		notifier:         notifier,
		chat:             chat,
		registry:         registry,
		limiter:          limiter,
		locks:            locks,
		paymentWindow:    paymentWindow,
		completionWindow: completionWindow,
	}
}

// CreateOrder reserves amount on the ad and opens a pending order between
// the ad owner (seller) and the buyer. The reservation is atomic: either
// the full amount is held or the call fails with InsufficientAmount.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, adID, buyerID string, amount float64) (*entity.Order, error) {
	if amount <= 0 {
		return nil, errors.BadRequest("amount must be positive", nil)
	}
	if uc.limiter != nil {
		if allowed, wait := uc.limiter.Allow(buyerID, "create_order"); !allowed {
			return nil, errors.TooManyRequests(fmt.Sprintf("rate limit exceeded, retry in %s", wait.Round(time.Second)))
		}
	}

	ad, err := uc.adRepo.GetByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad.Status != entity.AdStatusActive {
		return nil, errors.BadRequest("ad is not active", nil)
	}
	if ad.SellerID == buyerID {
		return nil, errors.Forbidden("cannot trade on your own ad", nil)
	}
	if ad.MinAmount > 0 && amount < ad.MinAmount {
		return nil, errors.BadRequest(fmt.Sprintf("amount below the ad minimum of %g", ad.MinAmount), nil)
	}
	if ad.MaxAmount > 0 && amount > ad.MaxAmount {
		return nil, errors.BadRequest(fmt.Sprintf("amount above the ad maximum of %g", ad.MaxAmount), nil)
	}

	ad, err = uc.adRepo.ReserveAmount(ctx, adID, amount)
	if err != nil {
		return nil, err
	}

	buyerName := uc.displayName(ctx, buyerID)

	now := time.Now()
	order := &entity.Order{
		ID:           uuid.New().String(),
		AdID:         ad.ID,
		BuyerID:      buyerID,
		BuyerName:    buyerName,
		SellerID:     ad.SellerID,
		SellerName:   ad.SellerName,
		CurrencyFrom: ad.CurrencyFrom,
		CurrencyTo:   ad.CurrencyTo,
		Amount:       amount,
		ExchangeRate: ad.ExchangeRate,
		TotalPrice:   amount * ad.ExchangeRate,
		Status:       entity.OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.orderRepo.Create(ctx, order); err != nil {
		// Give the reservation back, the order never existed.
		if releaseErr := uc.adRepo.ReleaseAmount(ctx, ad.ID, amount); releaseErr != nil {
			logger.Error("failed to release reservation on ad %s after create failure: %v", ad.ID, releaseErr)
		}
		return nil, errors.Internal("failed to create order", err)
	}

	uc.appendLog(ctx, order, "create", buyerID, "")

	err = uc.notifier.Notify(ctx, order.SellerID, entity.NotificationTypeNewOrder,
		"New order received",
		fmt.Sprintf("%s opened an order for %g %s", buyerName, amount, order.CurrencyFrom),
		map[string]interface{}{"order_id": order.ID, "ad_id": ad.ID},
		entity.PriorityHigh)
	if err != nil {
		logger.Error("failed to notify seller %s about order %s: %v", order.SellerID, order.ID, err)
	}

	logger.Info("order %s created on ad %s by buyer %s", order.ID, ad.ID, buyerID)
	return order, nil
}

// Transition applies one action to the order on behalf of actorID. Calls
// serialize per order; the loser of a concurrent race observes the winner's
// state and fails with InvalidTransition.
func (uc *OrderUseCase) Transition(ctx context.Context, orderID, actorID, action string) (*entity.Order, error) {
	rule, ok := transitionRules[action]
	if !ok {
		return nil, errors.InvalidTransition(fmt.Sprintf("unknown action: %s", action))
	}

	release := uc.locks.Acquire(orderID)
	defer release()

	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	role := order.RoleOf(actorID)
	if role == entity.RoleNone {
		return nil, errors.InvalidRole("you are not a party to this order")
	}
	if rule.role != entity.RoleNone && rule.role != role {
		return nil, errors.InvalidRole(fmt.Sprintf("action %s is reserved for the %s", action, rule.role))
	}
	if !rule.from[order.Status] {
		return nil, errors.InvalidTransition(fmt.Sprintf("cannot %s an order in status %s", action, order.Status))
	}

	now := time.Now()
	if rule.to != "" {
		order.Status = rule.to
	}
	order.UpdatedAt = now

	switch action {
	case entity.ActionMarkPaid:
		order.PaidAt = &now
		// Firestore stores timestamps at microsecond precision; the armed
		// deadline must survive a reload unchanged so the timer's stale
		// check still matches it.
		deadline := now.Add(uc.paymentWindow).Truncate(time.Microsecond)
		order.CountdownEnd = &deadline
	case entity.ActionConfirmReceivingAccount:
		deadline := now.Add(uc.completionWindow).Truncate(time.Microsecond)
		order.CountdownEnd = &deadline
	case entity.ActionComplete:
		order.CompletedAt = &now
		order.CountdownEnd = nil
	case entity.ActionCancel:
		order.CancelledAt = &now
		order.CountdownEnd = nil
	}

	if err := uc.orderRepo.Update(ctx, order); err != nil {
		return nil, errors.Internal("failed to persist transition", err)
	}
	uc.appendLog(ctx, order, action, actorID, "")

	if action == entity.ActionCancel {
		if err := uc.adRepo.ReleaseAmount(ctx, order.AdID, order.Amount); err != nil {
			logger.Error("failed to release reservation on ad %s for cancelled order %s: %v", order.AdID, order.ID, err)
		}
	}
	if order.CountdownEnd != nil {
		uc.scheduleDeadline(order.ID, *order.CountdownEnd)
	}

	uc.emitTransition(ctx, order, action, actorID)

	logger.Info("order %s: %s by %s (%s) -> %s", order.ID, action, actorID, role, order.Status)
	return order, nil
}

// GetOrder returns the order to one of its parties.
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID, requesterID string) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RoleOf(requesterID) == entity.RoleNone {
		return nil, errors.Forbidden("you are not a party to this order", nil)
	}
	return order, nil
}

func (uc *OrderUseCase) ListOrders(ctx context.Context, userID, status string, limit, offset int) ([]*entity.Order, int64, error) {
	return uc.orderRepo.ListByUserID(ctx, userID, status, limit, offset)
}

func (uc *OrderUseCase) ListLogs(ctx context.Context, orderID, requesterID string) ([]*entity.OrderLog, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RoleOf(requesterID) == entity.RoleNone {
		return nil, errors.Forbidden("you are not a party to this order", nil)
	}
	return uc.orderRepo.ListLogsByOrderID(ctx, orderID)
}

// ResumeDeadlineTimers re-arms deadline checks for orders that were mid
// countdown when the process last stopped. Already-elapsed deadlines fire
// immediately.
func (uc *OrderUseCase) ResumeDeadlineTimers(ctx context.Context) error {
	orders, err := uc.orderRepo.ListWithActiveCountdown(ctx)
	if err != nil {
		return err
	}

	for _, order := range orders {
		if order.CountdownEnd == nil || order.IsTerminal() {
			continue
		}
		uc.scheduleDeadline(order.ID, *order.CountdownEnd)
	}

	logger.Info("resumed deadline timers for %d orders", len(orders))
	return nil
}

// scheduleDeadline arms a single deferred check for the given countdown. A
// stale timer (the order moved on, or the countdown was re-armed) is a
// no-op at firing time, so timers are never cancelled explicitly.
func (uc *OrderUseCase) scheduleDeadline(orderID string, deadline time.Time) {
	delay := time.Until(deadline)
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		uc.fireDeadline(orderID, deadline)
	})
}

func (uc *OrderUseCase) fireDeadline(orderID string, expected time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	release := uc.locks.Acquire(orderID)
	defer release()

	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		logger.Error("deadline check: failed to load order %s: %v", orderID, err)
		return
	}
	// Expected race: the order moved on or the countdown was re-armed
	// before this timer fired.
	if order.Status != entity.OrderStatusPaid || order.CountdownEnd == nil || !order.CountdownEnd.Equal(expected) {
		return
	}

	now := time.Now()
	order.Status = entity.OrderStatusDisputed
	order.DisputedAt = &now
	order.UpdatedAt = now
	order.CountdownEnd = nil

	if err := uc.orderRepo.Update(ctx, order); err != nil {
		logger.Error("deadline check: failed to dispute order %s: %v", orderID, err)
		return
	}
	uc.appendLog(ctx, order, "deadline_elapsed", "system", "payment deadline elapsed")

	uc.registry.BroadcastToOrder(order.ID, websocket.MarshalEvent(websocket.EventOrderStatusChanged, order), "")
	for _, userID := range []string{order.BuyerID, order.SellerID} {
		err := uc.notifier.Notify(ctx, userID, entity.NotificationTypeOrderStatus,
			"Order disputed",
			fmt.Sprintf("Order %s was escalated to a dispute after the deadline elapsed", order.ID),
			map[string]interface{}{"order_id": order.ID, "status": order.Status},
			entity.PriorityMedium)
		if err != nil {
			logger.Error("failed to notify user %s about dispute on order %s: %v", userID, order.ID, err)
		}
	}

	logger.Warn("order %s escalated to disputed, deadline %s elapsed", order.ID, expected.Format(time.RFC3339))
}

// emitTransition broadcasts the committed state to the order room, notifies
// the counterparty, and drops a system line in chat for the bank-details
// handshake actions.
func (uc *OrderUseCase) emitTransition(ctx context.Context, order *entity.Order, action, actorID string) {
	uc.registry.BroadcastToOrder(order.ID, websocket.MarshalEvent(websocket.EventOrderStatusChanged, order), "")

	actorName := uc.displayName(ctx, actorID)
	var systemLine, title, body string

	switch action {
	case entity.ActionRequestBankDetails:
		systemLine = fmt.Sprintf("%s requested bank details", actorName)
		title = "Bank details requested"
		body = fmt.Sprintf("%s asked you to share bank details for order %s", actorName, order.ID)
	case entity.ActionConfirmBankDetails:
		systemLine = fmt.Sprintf("%s confirmed bank details were sent", actorName)
		title = "Bank details sent"
		body = fmt.Sprintf("%s confirmed bank details for order %s", actorName, order.ID)
	case entity.ActionMarkPaid:
		title = "Payment sent"
		body = fmt.Sprintf("%s marked order %s as paid", actorName, order.ID)
	case entity.ActionConfirmReceivingAccount:
		systemLine = fmt.Sprintf("%s confirmed the receiving account", actorName)
		title = "Receiving account confirmed"
		body = fmt.Sprintf("%s confirmed the receiving account for order %s", actorName, order.ID)
	case entity.ActionComplete:
		title = "Order completed"
		body = fmt.Sprintf("%s completed order %s", actorName, order.ID)
	case entity.ActionCancel:
		title = "Order cancelled"
		body = fmt.Sprintf("%s cancelled order %s", actorName, order.ID)
	}

	if systemLine != "" {
		if err := uc.chat.SendSystemMessage(ctx, order.ID, systemLine); err != nil {
			logger.Error("failed to append system message for order %s: %v", order.ID, err)
		}
	}

	recipient := order.Counterparty(actorID)
	err := uc.notifier.Notify(ctx, recipient, entity.NotificationTypeOrderStatus,
		title, body,
		map[string]interface{}{"order_id": order.ID, "status": order.Status, "action": action},
		entity.PriorityMedium)
	if err != nil {
		logger.Error("failed to notify user %s about order %s: %v", recipient, order.ID, err)
	}
}

func (uc *OrderUseCase) appendLog(ctx context.Context, order *entity.Order, action, createdBy, note string) {
	log := &entity.OrderLog{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Status:    order.Status,
		Action:    action,
		Note:      note,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	if err := uc.orderRepo.CreateLog(ctx, log); err != nil {
		logger.Error("failed to append log for order %s: %v", order.ID, err)
	}
}

func (uc *OrderUseCase) displayName(ctx context.Context, userID string) string {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("failed to resolve user %s name: %v", userID, err)
		return userID
	}
	return user.Username
}
