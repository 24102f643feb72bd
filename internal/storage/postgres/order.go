package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ximepaparella/giftvoucher/internal/domain/order"
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `id, customer_id, store_id, recipient_email, recipient_name,
	message, amount, currency, status, payment_id, payment_method, created_at, updated_at`

// Create persists a new pending order.
func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO orders (id, customer_id, store_id, recipient_email,
			recipient_name, message, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		o.ID, o.CustomerID, o.StoreID, o.RecipientEmail,
		o.RecipientName, o.Message, o.Amount, o.Currency, o.Status,
	)
	if err := row.Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// FindByID returns the order with the given id.
func (s *OrderStore) FindByID(ctx context.Context, id string) (*order.Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("finding order %q: %w", id, err)
	}
	return o, nil
}

// MarkPaid transitions the order to paid iff it is still pending. The WHERE
// clause on status is the compare-and-swap: a concurrent confirmation that
// already moved the order leaves this UPDATE with zero affected rows.
func (s *OrderStore) MarkPaid(ctx context.Context, id, paymentID, paymentMethod string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = 'paid', payment_id = $2, payment_method = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, paymentID, paymentMethod,
	)
	if err != nil {
		return fmt.Errorf("marking order %q paid: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return s.closedOrMissing(ctx, id)
	}
	return nil
}

// Close transitions a pending order to cancelled or failed under the same
// compare-and-swap discipline as MarkPaid.
func (s *OrderStore) Close(ctx context.Context, id string, to order.Status) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		id, to,
	)
	if err != nil {
		return fmt.Errorf("closing order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return s.closedOrMissing(ctx, id)
	}
	return nil
}

// closedOrMissing distinguishes a lost CAS from an unknown order id.
func (s *OrderStore) closedOrMissing(ctx context.Context, id string) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking order %q: %w", id, err)
	}
	if !exists {
		return order.ErrNotFound
	}
	return order.ErrOrderClosed
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.StoreID, &o.RecipientEmail, &o.RecipientName,
		&o.Message, &o.Amount, &o.Currency, &o.Status,
		&o.PaymentID, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
