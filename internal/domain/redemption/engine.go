package redemption

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/ximepaparella/giftvoucher/internal/domain/voucher"
)

// RedeemRequest holds the input of a merchant redemption attempt.
type RedeemRequest struct {
	Code       string
	StoreID    string
	RedeemedBy string
	Notes      string
}

// Engine performs the one-time redemption of a voucher. The serialization
// point is the store's Claim operation; the engine itself holds no locks,
// so any number of Redeem calls may run concurrently.
type Engine struct {
	vouchers voucher.Store
	usages   Store
	guard    *voucher.CodeGuard
	now      func() time.Time
}

// NewEngine creates an Engine. The guard may be nil to disable the
// negative-lookup fast path.
func NewEngine(vouchers voucher.Store, usages Store, guard *voucher.CodeGuard) *Engine {
	return &Engine{vouchers: vouchers, usages: usages, guard: guard, now: time.Now}
}

// Redeem resolves the code, checks redeemability, and atomically claims the
// voucher's single redemption slot.
//
// Classified failures: a malformed code is a validation error; an unknown
// code is voucher.ErrNotFound; an expired or cancelled voucher is
// NotRedeemableError; a consumed slot, including losing against a
// concurrent Redeem on the same code, is AlreadyRedeemedError.
func (e *Engine) Redeem(ctx context.Context, req RedeemRequest) (*Redemption, error) {
	if !voucher.ValidCode(req.Code) {
		return nil, ErrInvalidCode
	}
	if req.StoreID == "" {
		return nil, ErrMissingStore
	}
	if e.guard != nil && !e.guard.MayExist(req.Code) {
		return nil, voucher.ErrNotFound
	}

	v, err := e.vouchers.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	if err := e.redeemable(v); err != nil {
		return nil, e.enrichAlreadyRedeemed(ctx, v, err)
	}

	r := &Redemption{
		ID:         uuid.New().String(),
		VoucherID:  v.ID,
		StoreID:    req.StoreID,
		RedeemedBy: req.RedeemedBy,
		Notes:      req.Notes,
		Status:     StatusCompleted,
		RedeemedAt: e.now(),
	}

	err = e.usages.Claim(ctx, v.ID, r)
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, ErrSlotTaken):
		// Lost the race: whoever committed first wins and this caller
		// reports the voucher as already used, not a generic conflict.
		return nil, e.enrichAlreadyRedeemed(ctx, v, &AlreadyRedeemedError{Code: v.Code})
	default:
		return nil, errors.Wrap(err, "claim redemption slot")
	}
}

// redeemable checks the voucher state ahead of the claim. The claim itself
// re-checks atomically; this pass only classifies the rejection.
func (e *Engine) redeemable(v *voucher.Voucher) error {
	switch v.Status {
	case voucher.StatusCancelled:
		return &NotRedeemableError{Code: v.Code, Reason: "cancelled"}
	case voucher.StatusExpired:
		return &NotRedeemableError{Code: v.Code, Reason: "expired"}
	case voucher.StatusRedeemed:
		return &AlreadyRedeemedError{Code: v.Code}
	}
	if !v.WithinWindow(e.now()) {
		return &NotRedeemableError{Code: v.Code, Reason: "expired"}
	}
	return nil
}

// enrichAlreadyRedeemed fills in the original redemption time on
// AlreadyRedeemedError so the caller can show when the voucher was used.
// Other errors pass through unchanged.
func (e *Engine) enrichAlreadyRedeemed(ctx context.Context, v *voucher.Voucher, err error) error {
	var are *AlreadyRedeemedError
	if !errors.As(err, &are) {
		return err
	}
	if v.RedeemedAt != nil {
		are.RedeemedAt = *v.RedeemedAt
		return are
	}
	if rs, lerr := e.usages.ListByVoucher(ctx, v.ID); lerr == nil && len(rs) > 0 {
		are.RedeemedAt = rs[0].RedeemedAt
	}
	return are
}
