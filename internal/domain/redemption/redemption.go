package redemption

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Status enumerates the redemption record states. A record of any status
// still consumes the voucher's single redemption slot: an administrative
// cancellation does not free the voucher for re-redemption.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

var (
	// ErrInvalidCode is returned when the submitted code does not match
	// the issued code format. Malformed codes never reach storage.
	ErrInvalidCode = errors.New("malformed voucher code")
	// ErrMissingStore is returned when a redemption attempt carries no
	// merchant store id.
	ErrMissingStore = errors.New("merchant store id required")
	// ErrNotFound is returned when no redemption matches the given id.
	ErrNotFound = errors.New("redemption not found")
	// ErrSlotTaken is returned by stores when the claim lost against a
	// concurrent claim on the same voucher.
	ErrSlotTaken = errors.New("redemption slot already taken")
	// ErrUsageInvariant is returned when more than one redemption exists
	// for a voucher, which the claim discipline makes unreachable. Seeing
	// it means the storage constraints were bypassed.
	ErrUsageInvariant = errors.New("voucher has more than one redemption")
)

// NotRedeemableError is returned when the voucher exists but cannot be
// redeemed. Reason distinguishes the user-facing message.
type NotRedeemableError struct {
	Code   string
	Reason string // "expired" or "cancelled"
}

func (e *NotRedeemableError) Error() string {
	return "voucher " + e.Code + " is not redeemable: " + e.Reason
}

// AlreadyRedeemedError is returned when the voucher's single redemption
// slot was already consumed, including when the caller lost a race against
// a concurrent redeem. It is distinct from NotRedeemableError so clients
// can render "already used at <time>".
type AlreadyRedeemedError struct {
	Code       string
	RedeemedAt time.Time
}

func (e *AlreadyRedeemedError) Error() string {
	return "voucher " + e.Code + " was already redeemed at " +
		e.RedeemedAt.UTC().Format(time.RFC3339)
}

// Redemption is the terminal, append-only fact about a voucher. At most one
// exists per voucher.
type Redemption struct {
	ID         string
	VoucherID  string
	StoreID    string
	RedeemedBy string
	Notes      string
	Status     Status
	RedeemedAt time.Time
}

// Store defines persistence operations for redemptions.
type Store interface {
	// Claim atomically consumes the voucher's redemption slot and persists
	// r. The status flip and the insert are a single indivisible operation
	// with respect to any concurrent claim on the same voucher: exactly
	// one caller succeeds, the rest get ErrSlotTaken. Claiming a voucher
	// that is not active also returns ErrSlotTaken.
	Claim(ctx context.Context, voucherID string, r *Redemption) error
	FindByID(ctx context.Context, id string) (*Redemption, error)
	ListByVoucher(ctx context.Context, voucherID string) ([]Redemption, error)
	ListByStore(ctx context.Context, storeID string) ([]Redemption, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Redemption, error)
}
