package redemption

import (
	"context"
)

// Reports is the read-only query surface over redemptions. It never writes.
type Reports struct {
	usages Store
}

// NewReports creates a Reports backed by the given store.
func NewReports(usages Store) *Reports {
	return &Reports{usages: usages}
}

// ByID returns the redemption with the given id.
func (r *Reports) ByID(ctx context.Context, id string) (*Redemption, error) {
	return r.usages.FindByID(ctx, id)
}

// ForVoucher returns the redemptions referencing the voucher. By invariant
// there is at most one; a larger result is reported as ErrUsageInvariant
// rather than silently returned.
func (r *Reports) ForVoucher(ctx context.Context, voucherID string) ([]Redemption, error) {
	rs, err := r.usages.ListByVoucher(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if len(rs) > 1 {
		return nil, ErrUsageInvariant
	}
	return rs, nil
}

// ForStore returns every redemption recorded by the merchant store.
func (r *Reports) ForStore(ctx context.Context, storeID string) ([]Redemption, error) {
	return r.usages.ListByStore(ctx, storeID)
}

// ForCustomer returns every redemption of vouchers owned by the customer.
func (r *Reports) ForCustomer(ctx context.Context, customerID string) ([]Redemption, error) {
	return r.usages.ListByCustomer(ctx, customerID)
}
