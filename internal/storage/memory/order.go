package memory

import (
	"context"
	"time"

	"github.com/ximepaparella/giftvoucher/internal/domain/order"
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store over the shared DB.
type OrderStore struct {
	db *DB
}

// Create persists a new order.
func (s *OrderStore) Create(_ context.Context, o *order.Order) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	s.db.orders[o.ID] = *o
	return nil
}

// FindByID returns the order with the given id.
func (s *OrderStore) FindByID(_ context.Context, id string) (*order.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	o, ok := s.db.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

// MarkPaid flips a pending order to paid. Only one concurrent caller wins;
// the rest observe order.ErrOrderClosed.
func (s *OrderStore) MarkPaid(_ context.Context, id, paymentID, paymentMethod string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	o, ok := s.db.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != order.StatusPending {
		return order.ErrOrderClosed
	}
	o.Status = order.StatusPaid
	o.PaymentID = paymentID
	o.PaymentMethod = paymentMethod
	o.UpdatedAt = time.Now()
	s.db.orders[id] = o
	return nil
}

// Close flips a pending order to cancelled or failed.
func (s *OrderStore) Close(_ context.Context, id string, to order.Status) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	o, ok := s.db.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != order.StatusPending {
		return order.ErrOrderClosed
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	s.db.orders[id] = o
	return nil
}
