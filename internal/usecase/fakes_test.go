package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"peertrade/internal/domain/entity"
	"peertrade/pkg/errors"
)

// In-memory fakes standing in for the Firestore repositories and the
// websocket manager.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*entity.Order
	logs   []*entity.OrderLog

	// When set, stored timestamps lose sub-precision digits on the way in,
	// like Firestore's microsecond timestamps do.
	timePrecision time.Duration
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*entity.Order)}
}

func (r *fakeOrderRepo) store(order *entity.Order) {
	copy := *order
	if r.timePrecision > 0 {
		copy.CreatedAt = copy.CreatedAt.Truncate(r.timePrecision)
		copy.UpdatedAt = copy.UpdatedAt.Truncate(r.timePrecision)
		for _, field := range []**time.Time{&copy.PaidAt, &copy.CompletedAt, &copy.CancelledAt, &copy.DisputedAt, &copy.CountdownEnd} {
			if *field != nil {
				truncated := (*field).Truncate(r.timePrecision)
				*field = &truncated
			}
		}
	}
	r.orders[copy.ID] = &copy
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(order)
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	copy := *order
	return &copy, nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return errors.NotFound("Order", nil)
	}
	r.store(order)
	return nil
}

func (r *fakeOrderRepo) ListByUserID(ctx context.Context, userID string, status string, limit, offset int) ([]*entity.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, order := range r.orders {
		if order.BuyerID != userID && order.SellerID != userID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		copy := *order
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) ListWithActiveCountdown(ctx context.Context) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, order := range r.orders {
		if order.Status == entity.OrderStatusPaid && order.CountdownEnd != nil {
			copy := *order
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) CreateLog(ctx context.Context, log *entity.OrderLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeOrderRepo) ListLogsByOrderID(ctx context.Context, orderID string) ([]*entity.OrderLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.OrderLog
	for _, log := range r.logs {
		if log.OrderID == orderID {
			out = append(out, log)
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	mu      sync.Mutex
	byOrder map[string][]*entity.Message
	lastSeq map[string]int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		byOrder: make(map[string][]*entity.Message),
		lastSeq: make(map[string]int64),
	}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeq[message.OrderID]++
	message.Seq = r.lastSeq[message.OrderID]
	copy := *message
	r.byOrder[message.OrderID] = append(r.byOrder[message.OrderID], &copy)
	return nil
}

func (r *fakeMessageRepo) ListByOrderID(ctx context.Context, orderID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	messages := append([]*entity.Message(nil), r.byOrder[orderID]...)
	sort.Slice(messages, func(i, j int) bool { return messages[i].Seq < messages[j].Seq })
	return messages, nil
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	items map[string]*entity.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: make(map[string]*entity.Notification)}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *n
	r.items[n.ID] = &copy
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, errors.NotFound("Notification", nil)
	}
	copy := *n
	return &copy, nil
}

func (r *fakeNotificationRepo) Update(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *n
	r.items[n.ID] = &copy
	return nil
}

func (r *fakeNotificationRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			copy := *n
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.items {
		if n.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}

type fakeAdRepo struct {
	mu  sync.Mutex
	ads map[string]*entity.Ad
}

func newFakeAdRepo() *fakeAdRepo {
	return &fakeAdRepo{ads: make(map[string]*entity.Ad)}
}

func (r *fakeAdRepo) Create(ctx context.Context, ad *entity.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *ad
	r.ads[ad.ID] = &copy
	return nil
}

func (r *fakeAdRepo) GetByID(ctx context.Context, id string) (*entity.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ad, ok := r.ads[id]
	if !ok {
		return nil, errors.NotFound("Ad", nil)
	}
	copy := *ad
	return &copy, nil
}

func (r *fakeAdRepo) Update(ctx context.Context, ad *entity.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ads[ad.ID]; !ok {
		return errors.NotFound("Ad", nil)
	}
	copy := *ad
	r.ads[ad.ID] = &copy
	return nil
}

func (r *fakeAdRepo) ListActive(ctx context.Context, limit, offset int) ([]*entity.Ad, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Ad
	for _, ad := range r.ads {
		if ad.Status == entity.AdStatusActive {
			copy := *ad
			out = append(out, &copy)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAdRepo) ListBySellerID(ctx context.Context, sellerID string, limit, offset int) ([]*entity.Ad, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Ad
	for _, ad := range r.ads {
		if ad.SellerID == sellerID {
			copy := *ad
			out = append(out, &copy)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAdRepo) ReserveAmount(ctx context.Context, adID string, amount float64) (*entity.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ad, ok := r.ads[adID]
	if !ok {
		return nil, errors.NotFound("Ad", nil)
	}
	if ad.AmountAvailable < amount {
		return nil, errors.InsufficientAmount(fmt.Sprintf("only %g available on this ad", ad.AmountAvailable))
	}
	ad.AmountAvailable -= amount
	copy := *ad
	return &copy, nil
}

func (r *fakeAdRepo) ReleaseAmount(ctx context.Context, adID string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ad, ok := r.ads[adID]
	if !ok {
		return errors.NotFound("Ad", nil)
	}
	ad.AmountAvailable += amount
	return nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

// fakeRegistry records every broadcast for assertions and lets tests mark a
// user as viewing an order.
type fakeRegistry struct {
	mu          sync.Mutex
	orderEvents map[string][][]byte
	userEvents  map[string][][]byte
	viewing     map[string]map[string]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		orderEvents: make(map[string][][]byte),
		userEvents:  make(map[string][][]byte),
		viewing:     make(map[string]map[string]bool),
	}
}

func (f *fakeRegistry) BroadcastToOrder(orderID string, payload []byte, excludeUserID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderEvents[orderID] = append(f.orderEvents[orderID], payload)
}

func (f *fakeRegistry) SendToUser(userID string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userEvents[userID] = append(f.userEvents[userID], payload)
}

func (f *fakeRegistry) IsUserViewingOrder(orderID, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewing[orderID][userID]
}

func (f *fakeRegistry) setViewing(orderID, userID string, viewing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.viewing[orderID] == nil {
		f.viewing[orderID] = make(map[string]bool)
	}
	f.viewing[orderID][userID] = viewing
}

// testEnv wires the full use case stack against the fakes.
type testEnv struct {
	orderRepo        *fakeOrderRepo
	adRepo           *fakeAdRepo
	messageRepo      *fakeMessageRepo
	notificationRepo *fakeNotificationRepo
	registry         *fakeRegistry

	orders        *OrderUseCase
	chat          *ChatUseCase
	notifications *NotificationUseCase
}

func newTestEnv(paymentWindow, completionWindow time.Duration) *testEnv {
	env := &testEnv{
		orderRepo:        newFakeOrderRepo(),
		adRepo:           newFakeAdRepo(),
		messageRepo:      newFakeMessageRepo(),
		notificationRepo: newFakeNotificationRepo(),
		registry:         newFakeRegistry(),
	}

	userRepo := &fakeUserRepo{users: map[string]*entity.User{
		"buyer-1":  {ID: "buyer-1", Username: "alice"},
		"seller-1": {ID: "seller-1", Username: "bob"},
	}}

	locks := NewOrderLocks()
	env.notifications = NewNotificationUseCase(env.notificationRepo, env.registry)
	env.chat = NewChatUseCase(env.messageRepo, env.orderRepo, userRepo, env.notifications, env.registry, nil, locks)
	env.orders = NewOrderUseCase(env.orderRepo, env.adRepo, userRepo, env.notifications, env.chat, env.registry, nil, locks, paymentWindow, completionWindow)

	return env
}

func (env *testEnv) seedAd(available float64, rate float64) *entity.Ad {
	ad := &entity.Ad{
		ID:              "ad-1",
		SellerID:        "seller-1",
		SellerName:      "bob",
		Type:            entity.AdTypeSell,
		CurrencyFrom:    "USD",
		CurrencyTo:      "EUR",
		ExchangeRate:    rate,
		AmountAvailable: available,
		Status:          entity.AdStatusActive,
		CreatedAt:       time.Now(),
	}
	env.adRepo.Create(context.Background(), ad)
	return ad
}

func (env *testEnv) seedOrder(status string) *entity.Order {
	order := &entity.Order{
		ID:           "order-1",
		AdID:         "ad-1",
		BuyerID:      "buyer-1",
		BuyerName:    "alice",
		SellerID:     "seller-1",
		SellerName:   "bob",
		CurrencyFrom: "USD",
		CurrencyTo:   "EUR",
		Amount:       100,
		ExchangeRate: 1.25,
		TotalPrice:   125,
		Status:       status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	env.orderRepo.Create(context.Background(), order)
	return order
}
