package memory

import (
	"context"

	"github.com/ximepaparella/giftvoucher/internal/domain/voucher"
)

var _ voucher.Store = (*VoucherStore)(nil)

// VoucherStore implements voucher.Store over the shared DB.
type VoucherStore struct {
	db *DB
}

// Create persists a new voucher, enforcing the unique code and
// one-voucher-per-order constraints.
func (s *VoucherStore) Create(_ context.Context, v *voucher.Voucher) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, taken := s.db.vouchersByCode[v.Code]; taken {
		return voucher.ErrCodeTaken
	}
	if _, taken := s.db.vouchersByOrder[v.OrderID]; taken {
		return voucher.ErrOrderTaken
	}
	s.db.vouchers[v.ID] = *v
	s.db.vouchersByCode[v.Code] = v.ID
	s.db.vouchersByOrder[v.OrderID] = v.ID
	return nil
}

// FindByID returns the voucher with the given id.
func (s *VoucherStore) FindByID(_ context.Context, id string) (*voucher.Voucher, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.voucherLocked(id)
}

// FindByCode returns the voucher with the given code.
func (s *VoucherStore) FindByCode(_ context.Context, code string) (*voucher.Voucher, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	id, ok := s.db.vouchersByCode[code]
	if !ok {
		return nil, voucher.ErrNotFound
	}
	return s.db.voucherLocked(id)
}

// FindByOrderID returns the voucher minted from the given order.
func (s *VoucherStore) FindByOrderID(_ context.Context, orderID string) (*voucher.Voucher, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	id, ok := s.db.vouchersByOrder[orderID]
	if !ok {
		return nil, voucher.ErrNotFound
	}
	return s.db.voucherLocked(id)
}

// ListCodes calls fn with every issued code.
func (s *VoucherStore) ListCodes(_ context.Context, fn func(code string) error) error {
	s.db.mu.Lock()
	codes := make([]string, 0, len(s.db.vouchersByCode))
	for code := range s.db.vouchersByCode {
		codes = append(codes, code)
	}
	s.db.mu.Unlock()

	for _, code := range codes {
		if err := fn(code); err != nil {
			return err
		}
	}
	return nil
}

// voucherLocked returns a copy of the voucher; the RedeemedAt pointer is
// duplicated so callers cannot mutate stored state.
func (db *DB) voucherLocked(id string) (*voucher.Voucher, error) {
	v, ok := db.vouchers[id]
	if !ok {
		return nil, voucher.ErrNotFound
	}
	if v.RedeemedAt != nil {
		at := *v.RedeemedAt
		v.RedeemedAt = &at
	}
	return &v, nil
}
