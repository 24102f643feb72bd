package redemption

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	byVoucher map[string][]Redemption
}

func (s *stubStore) Claim(context.Context, string, *Redemption) error { return ErrSlotTaken }

func (s *stubStore) FindByID(_ context.Context, id string) (*Redemption, error) {
	for _, rs := range s.byVoucher {
		for _, r := range rs {
			if r.ID == id {
				return &r, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (s *stubStore) ListByVoucher(_ context.Context, voucherID string) ([]Redemption, error) {
	return s.byVoucher[voucherID], nil
}

func (s *stubStore) ListByStore(_ context.Context, storeID string) ([]Redemption, error) {
	var out []Redemption
	for _, rs := range s.byVoucher {
		for _, r := range rs {
			if r.StoreID == storeID {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s *stubStore) ListByCustomer(context.Context, string) ([]Redemption, error) {
	return nil, nil
}

func record(id, voucherID string) Redemption {
	return Redemption{
		ID:         id,
		VoucherID:  voucherID,
		StoreID:    "m1",
		Status:     StatusCompleted,
		RedeemedAt: time.Now(),
	}
}

func TestReports_ForVoucher(t *testing.T) {
	store := &stubStore{byVoucher: map[string][]Redemption{
		"v1": {record("r1", "v1")},
	}}
	reports := NewReports(store)

	rs, err := reports.ForVoucher(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "r1", rs[0].ID)

	rs, err = reports.ForVoucher(context.Background(), "v2")
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestReports_ForVoucherUsageInvariant(t *testing.T) {
	store := &stubStore{byVoucher: map[string][]Redemption{
		"v1": {record("r1", "v1"), record("r2", "v1")},
	}}
	reports := NewReports(store)

	_, err := reports.ForVoucher(context.Background(), "v1")
	require.ErrorIs(t, err, ErrUsageInvariant)
}

func TestReports_ByID(t *testing.T) {
	store := &stubStore{byVoucher: map[string][]Redemption{
		"v1": {record("r1", "v1")},
	}}
	reports := NewReports(store)

	r, err := reports.ByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "v1", r.VoucherID)

	_, err = reports.ByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
