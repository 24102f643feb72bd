package memory

import (
	"context"
	"sort"

	"github.com/ximepaparella/giftvoucher/internal/domain/redemption"
	"github.com/ximepaparella/giftvoucher/internal/domain/voucher"
)

var _ redemption.Store = (*RedemptionStore)(nil)

// RedemptionStore implements redemption.Store over the shared DB.
type RedemptionStore struct {
	db *DB
}

// Claim consumes the voucher's redemption slot and records r. The DB mutex
// makes the status check, flip, and insert indivisible, so exactly one of
// any number of concurrent claims on the same voucher succeeds.
func (s *RedemptionStore) Claim(_ context.Context, voucherID string, r *redemption.Redemption) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	v, ok := s.db.vouchers[voucherID]
	if !ok {
		return voucher.ErrNotFound
	}
	if v.Status != voucher.StatusActive {
		return redemption.ErrSlotTaken
	}
	if _, taken := s.db.usageByVoucher[voucherID]; taken {
		return redemption.ErrSlotTaken
	}

	at := r.RedeemedAt
	v.Status = voucher.StatusRedeemed
	v.RedeemedAt = &at
	s.db.vouchers[voucherID] = v
	s.db.redemptions[r.ID] = *r
	s.db.usageByVoucher[voucherID] = r.ID
	return nil
}

// FindByID returns the redemption with the given id.
func (s *RedemptionStore) FindByID(_ context.Context, id string) (*redemption.Redemption, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	r, ok := s.db.redemptions[id]
	if !ok {
		return nil, redemption.ErrNotFound
	}
	return &r, nil
}

// ListByVoucher returns redemptions referencing the voucher.
func (s *RedemptionStore) ListByVoucher(_ context.Context, voucherID string) ([]redemption.Redemption, error) {
	return s.list(func(r *redemption.Redemption) bool {
		return r.VoucherID == voucherID
	})
}

// ListByStore returns redemptions recorded by the merchant store.
func (s *RedemptionStore) ListByStore(_ context.Context, storeID string) ([]redemption.Redemption, error) {
	return s.list(func(r *redemption.Redemption) bool {
		return r.StoreID == storeID
	})
}

// ListByCustomer returns redemptions of vouchers owned by the customer,
// resolved through voucher ownership.
func (s *RedemptionStore) ListByCustomer(_ context.Context, customerID string) ([]redemption.Redemption, error) {
	return s.list(func(r *redemption.Redemption) bool {
		v, ok := s.db.vouchers[r.VoucherID]
		return ok && v.CustomerID == customerID
	})
}

func (s *RedemptionStore) list(match func(*redemption.Redemption) bool) ([]redemption.Redemption, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var out []redemption.Redemption
	for _, r := range s.db.redemptions {
		if match(&r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RedeemedAt.Before(out[j].RedeemedAt)
	})
	return out, nil
}
