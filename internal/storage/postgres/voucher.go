package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ximepaparella/giftvoucher/internal/domain/voucher"
)

var _ voucher.Store = (*VoucherStore)(nil)

// VoucherStore implements voucher.Store backed by PostgreSQL.
type VoucherStore struct {
	pool *pgxpool.Pool
}

// NewVoucherStore returns a VoucherStore that uses the given pool.
func NewVoucherStore(pool *pgxpool.Pool) *VoucherStore {
	return &VoucherStore{pool: pool}
}

const voucherColumns = `id, order_id, store_id, customer_id, code, value,
	currency, valid_from, valid_until, status, created_at, redeemed_at`

// Create persists a new voucher. Unique-constraint violations are mapped to
// the domain sentinels the issuer retries or resolves on.
func (s *VoucherStore) Create(ctx context.Context, v *voucher.Voucher) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vouchers (id, order_id, store_id, customer_id, code,
			value, currency, valid_from, valid_until, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.OrderID, v.StoreID, v.CustomerID, v.Code,
		v.Value, v.Currency, v.ValidFrom, v.ValidUntil, v.Status,
	)
	if err != nil {
		if uniqueViolation(err, "vouchers_code_key") {
			return voucher.ErrCodeTaken
		}
		if uniqueViolation(err, "vouchers_order_id_key") {
			return voucher.ErrOrderTaken
		}
		return fmt.Errorf("creating voucher %q: %w", v.ID, err)
	}
	return nil
}

// FindByID returns the voucher with the given id.
func (s *VoucherStore) FindByID(ctx context.Context, id string) (*voucher.Voucher, error) {
	return s.findOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, id)
}

// FindByCode returns the voucher with the given code.
func (s *VoucherStore) FindByCode(ctx context.Context, code string) (*voucher.Voucher, error) {
	return s.findOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE code = $1`, code)
}

// FindByOrderID returns the voucher minted from the given order.
func (s *VoucherStore) FindByOrderID(ctx context.Context, orderID string) (*voucher.Voucher, error) {
	return s.findOne(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE order_id = $1`, orderID)
}

// ListCodes streams every issued code to fn.
func (s *VoucherStore) ListCodes(ctx context.Context, fn func(code string) error) error {
	rows, err := s.pool.Query(ctx, `SELECT code FROM vouchers`)
	if err != nil {
		return fmt.Errorf("listing voucher codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return fmt.Errorf("scanning voucher code: %w", err)
		}
		if err := fn(code); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *VoucherStore) findOne(ctx context.Context, query string, arg any) (*voucher.Voucher, error) {
	v, err := scanVoucher(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, voucher.ErrNotFound
		}
		return nil, fmt.Errorf("finding voucher: %w", err)
	}
	return v, nil
}

func scanVoucher(row pgx.Row) (*voucher.Voucher, error) {
	var v voucher.Voucher
	err := row.Scan(
		&v.ID, &v.OrderID, &v.StoreID, &v.CustomerID, &v.Code, &v.Value,
		&v.Currency, &v.ValidFrom, &v.ValidUntil, &v.Status, &v.CreatedAt, &v.RedeemedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
