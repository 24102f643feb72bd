package voucher

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates the voucher lifecycle states.
type Status string

const (
	// StatusActive means the voucher can be redeemed.
	StatusActive Status = "active"
	// StatusRedeemed means the single redemption slot was consumed.
	// A voucher never leaves this state.
	StatusRedeemed Status = "redeemed"
	// StatusExpired means the validity window elapsed before redemption.
	StatusExpired Status = "expired"
	// StatusCancelled means an operator voided the voucher.
	StatusCancelled Status = "cancelled"
)

var (
	// ErrNotFound is returned when no voucher matches the given id or code.
	ErrNotFound = errors.New("voucher not found")
	// ErrCodeTaken is returned by stores when a generated code collides
	// with an existing one. The issuer retries with a fresh code.
	ErrCodeTaken = errors.New("voucher code already exists")
	// ErrOrderTaken is returned by stores when a voucher already exists
	// for the order. The issuer resolves it to the existing voucher.
	ErrOrderTaken = errors.New("order already has a voucher")
	// ErrCodeSpaceExhausted is returned when a unique code could not be
	// generated within the attempt budget. This is an infrastructure
	// failure, not a business rejection.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique voucher code")
)

// Voucher is a redeemable gift credit minted from a paid order. The code is
// globally unique and immutable after issuance.
type Voucher struct {
	ID         string
	OrderID    string
	StoreID    string
	CustomerID string
	Code       string
	Value      decimal.Decimal
	Currency   string
	ValidFrom  time.Time
	ValidUntil time.Time
	Status     Status
	CreatedAt  time.Time
	RedeemedAt *time.Time
}

// WithinWindow reports whether t falls inside the voucher's validity window.
func (v *Voucher) WithinWindow(t time.Time) bool {
	return !t.Before(v.ValidFrom) && !t.After(v.ValidUntil)
}

// Store defines persistence operations for vouchers.
type Store interface {
	// Create persists a new voucher. It returns ErrCodeTaken when the code
	// collides and ErrOrderTaken when the order is already vouchered.
	Create(ctx context.Context, v *Voucher) error
	FindByID(ctx context.Context, id string) (*Voucher, error)
	FindByCode(ctx context.Context, code string) (*Voucher, error)
	FindByOrderID(ctx context.Context, orderID string) (*Voucher, error)
	// ListCodes streams every issued code to fn, used to warm the code
	// guard at startup.
	ListCodes(ctx context.Context, fn func(code string) error) error
}
