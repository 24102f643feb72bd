package order

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status enumerates the order lifecycle states.
type Status string

const (
	// StatusPending is the initial state of every order.
	StatusPending Status = "pending"
	// StatusPaid means a matching payment confirmation was applied.
	StatusPaid Status = "paid"
	// StatusCancelled means the buyer or an operator cancelled before payment.
	StatusCancelled Status = "cancelled"
	// StatusFailed means the payment gateway reported a failed charge.
	StatusFailed Status = "failed"
)

// Terminal reports whether no further transition is allowed out of s.
// The transition graph is pending -> {paid, cancelled, failed}; every
// non-pending state is terminal within this service.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Sentinel errors for order lookup and lifecycle violations.
var (
	ErrNotFound = errors.New("order not found")
	// ErrOrderClosed is returned when an event targets an order that has
	// already left the pending state.
	ErrOrderClosed = errors.New("order is not pending")
)

// ValidationError indicates malformed order input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// ConflictError indicates a payment confirmation whose amount or currency
// does not match the order. The order is left unchanged and the event must
// be reconciled by an operator, not retried.
type ConflictError struct {
	OrderID string
	Field   string
	Want    string
	Got     string
}

func (e *ConflictError) Error() string {
	return "payment " + e.Field + " mismatch for order " + e.OrderID +
		": want " + e.Want + ", got " + e.Got
}

// Order is a purchase request for a gift voucher. Amount and currency are
// immutable once set; only the status and payment fields change, and only
// through Service transitions. Orders are never deleted.
type Order struct {
	ID             string
	CustomerID     string
	StoreID        string
	RecipientEmail string
	RecipientName  string
	Message        string
	Amount         decimal.Decimal
	Currency       string
	Status         Status
	PaymentID      string
	PaymentMethod  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the order's user-supplied fields.
func (o *Order) Validate() error {
	if !o.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}
	if !ValidCurrency(o.Currency) {
		return &ValidationError{Field: "currency", Reason: "must be a 3-letter ISO code"}
	}
	if _, err := mail.ParseAddress(o.RecipientEmail); err != nil {
		return &ValidationError{Field: "recipient_email", Reason: "malformed address"}
	}
	return nil
}

// ValidCurrency reports whether s has the shape of an ISO-4217 code:
// exactly three ASCII uppercase letters.
func ValidCurrency(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := range len(s) {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// Store defines persistence operations for orders.
type Store interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// MarkPaid transitions the order to paid and records the payment
	// reference, but only if the order is still pending. It returns
	// ErrOrderClosed when another caller already moved the order out of
	// pending, so concurrent confirmations resolve to a single winner.
	MarkPaid(ctx context.Context, id, paymentID, paymentMethod string) error
	// Close transitions a pending order to cancelled or failed under the
	// same compare-and-swap discipline as MarkPaid.
	Close(ctx context.Context, id string, to Status) error
}
