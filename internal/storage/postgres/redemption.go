package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ximepaparella/giftvoucher/internal/domain/redemption"
)

var _ redemption.Store = (*RedemptionStore)(nil)

// RedemptionStore implements redemption.Store backed by PostgreSQL.
type RedemptionStore struct {
	pool *pgxpool.Pool
}

// NewRedemptionStore returns a RedemptionStore that uses the given pool.
func NewRedemptionStore(pool *pgxpool.Pool) *RedemptionStore {
	return &RedemptionStore{pool: pool}
}

const redemptionColumns = `id, voucher_id, store_id, redeemed_by, notes, status, redeemed_at`

// Claim consumes the voucher's redemption slot and records r in a single
// transaction. The UPDATE's status guard is the compare-and-swap: only one
// concurrent transaction flips active to redeemed, and the unique index on
// redemptions.voucher_id backstops the insert. Losers get ErrSlotTaken.
func (s *RedemptionStore) Claim(ctx context.Context, voucherID string, r *redemption.Redemption) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning claim transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE vouchers SET status = 'redeemed', redeemed_at = $2
		WHERE id = $1 AND status = 'active'`,
		voucherID, r.RedeemedAt,
	)
	if err != nil {
		return fmt.Errorf("claiming voucher %q: %w", voucherID, err)
	}
	if tag.RowsAffected() == 0 {
		return redemption.ErrSlotTaken
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO redemptions (id, voucher_id, store_id, redeemed_by, notes, status, redeemed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.VoucherID, r.StoreID, r.RedeemedBy, r.Notes, r.Status, r.RedeemedAt,
	)
	if err != nil {
		if uniqueViolation(err, "redemptions_voucher_id_key") {
			return redemption.ErrSlotTaken
		}
		return fmt.Errorf("recording redemption %q: %w", r.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing claim for voucher %q: %w", voucherID, err)
	}
	return nil
}

// FindByID returns the redemption with the given id.
func (s *RedemptionStore) FindByID(ctx context.Context, id string) (*redemption.Redemption, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+redemptionColumns+` FROM redemptions WHERE id = $1`, id)

	r, err := scanRedemption(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, redemption.ErrNotFound
		}
		return nil, fmt.Errorf("finding redemption %q: %w", id, err)
	}
	return r, nil
}

// ListByVoucher returns redemptions referencing the voucher.
func (s *RedemptionStore) ListByVoucher(ctx context.Context, voucherID string) ([]redemption.Redemption, error) {
	return s.list(ctx, `
		SELECT `+redemptionColumns+` FROM redemptions
		WHERE voucher_id = $1 ORDER BY redeemed_at`, voucherID)
}

// ListByStore returns redemptions recorded by the merchant store.
func (s *RedemptionStore) ListByStore(ctx context.Context, storeID string) ([]redemption.Redemption, error) {
	return s.list(ctx, `
		SELECT `+redemptionColumns+` FROM redemptions
		WHERE store_id = $1 ORDER BY redeemed_at`, storeID)
}

// ListByCustomer returns redemptions of vouchers owned by the customer.
func (s *RedemptionStore) ListByCustomer(ctx context.Context, customerID string) ([]redemption.Redemption, error) {
	return s.list(ctx, `
		SELECT r.id, r.voucher_id, r.store_id, r.redeemed_by, r.notes, r.status, r.redeemed_at
		FROM redemptions r
		JOIN vouchers v ON v.id = r.voucher_id
		WHERE v.customer_id = $1 ORDER BY r.redeemed_at`, customerID)
}

func (s *RedemptionStore) list(ctx context.Context, query string, arg any) ([]redemption.Redemption, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing redemptions: %w", err)
	}
	defer rows.Close()

	var out []redemption.Redemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning redemption: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRedemption(row pgx.Row) (*redemption.Redemption, error) {
	var r redemption.Redemption
	err := row.Scan(&r.ID, &r.VoucherID, &r.StoreID, &r.RedeemedBy, &r.Notes, &r.Status, &r.RedeemedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
