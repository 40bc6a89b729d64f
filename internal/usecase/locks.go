package usecase

import (
	"sync"
)

// OrderLocks is the per-order serialization point. Transitions, message
// appends and deadline firings for the same order all funnel through the
// same lock, so races resolve to a deterministic winner. Different orders
// never contend.
type OrderLocks struct {
	mu    sync.Mutex
	locks map[string]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

func NewOrderLocks() *OrderLocks {
	return &OrderLocks{
		locks: make(map[string]*orderLock),
	}
}

// Acquire blocks until the order's lock is held and returns the release
// function. Entries are reference counted so the table does not grow with
// the number of orders ever seen.
func (l *OrderLocks) Acquire(orderID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[orderID]
	if !ok {
		entry = &orderLock{}
		l.locks[orderID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, orderID)
		}
		l.mu.Unlock()
	}
}
