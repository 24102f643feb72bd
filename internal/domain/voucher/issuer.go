package voucher

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxCodeAttempts bounds collision retries during issuance. Collisions are
// extremely unlikely at the code space size, so exhausting the budget
// indicates a broken random source or a corrupt code table.
const maxCodeAttempts = 5

// IssueRequest carries the order fields a voucher is minted from.
type IssueRequest struct {
	OrderID    string
	StoreID    string
	CustomerID string
	Value      decimal.Decimal
	Currency   string
}

// Issuer mints the voucher for a paid order. Implementations must be
// idempotent by order id: issuing twice for the same order returns the
// existing voucher unchanged.
type Issuer interface {
	Issue(ctx context.Context, req IssueRequest) (*Voucher, error)
}

// StoreIssuer implements Issuer on top of a Store, relying on the store's
// unique constraints for both code collisions and one-voucher-per-order.
type StoreIssuer struct {
	store Store
	guard *CodeGuard
	ttl   time.Duration
	now   func() time.Time
}

// NewStoreIssuer creates a StoreIssuer. The guard may be nil, in which case
// issued codes are simply not tracked. ttl controls the validity window
// measured from issuance.
func NewStoreIssuer(store Store, guard *CodeGuard, ttl time.Duration) *StoreIssuer {
	return &StoreIssuer{store: store, guard: guard, ttl: ttl, now: time.Now}
}

// Issue returns the voucher for the order, creating it on first call.
// Concurrent calls for the same order converge on a single voucher: the
// store's unique order constraint decides the winner and losers re-read.
func (i *StoreIssuer) Issue(ctx context.Context, req IssueRequest) (*Voucher, error) {
	existing, err := i.store.FindByOrderID(ctx, req.OrderID)
	switch {
	case err == nil:
		return existing, nil
	case errors.Is(err, ErrNotFound):
	default:
		return nil, errors.Wrap(err, "lookup voucher by order")
	}

	issuedAt := i.now()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}

		v := &Voucher{
			ID:         uuid.New().String(),
			OrderID:    req.OrderID,
			StoreID:    req.StoreID,
			CustomerID: req.CustomerID,
			Code:       code,
			Value:      req.Value,
			Currency:   req.Currency,
			ValidFrom:  issuedAt,
			ValidUntil: issuedAt.Add(i.ttl),
			Status:     StatusActive,
			CreatedAt:  issuedAt,
		}

		err = i.store.Create(ctx, v)
		switch {
		case err == nil:
			if i.guard != nil {
				i.guard.Add(code)
			}
			return v, nil
		case errors.Is(err, ErrCodeTaken):
			continue
		case errors.Is(err, ErrOrderTaken):
			// A concurrent issuance won. Return its voucher.
			return i.store.FindByOrderID(ctx, req.OrderID)
		default:
			return nil, errors.Wrap(err, "create voucher")
		}
	}
	return nil, errors.Wrapf(ErrCodeSpaceExhausted, "after %d attempts", maxCodeAttempts)
}
