package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ximepaparella/giftvoucher/internal/domain/voucher"
)

// PaymentResult is the outcome reported by the payment gateway.
type PaymentResult string

const (
	ResultSuccess PaymentResult = "success"
	ResultFailure PaymentResult = "failure"
)

// PaymentConfirmation is the inbound event from the payment gateway.
// Delivery is at-least-once: the same confirmation may arrive any number
// of times and must converge to a single state change.
type PaymentConfirmation struct {
	OrderID       string
	PaymentID     string
	PaymentMethod string
	Result        PaymentResult
	Amount        decimal.Decimal
	Currency      string
}

// CreateOrderRequest holds the input for creating an order.
type CreateOrderRequest struct {
	CustomerID     string
	StoreID        string
	RecipientEmail string
	RecipientName  string
	Message        string
	Amount         decimal.Decimal
	Currency       string
}

// ConfirmResult holds the order after a confirmation was applied and, when
// the order is paid, the voucher bound to it.
type ConfirmResult struct {
	Order   *Order
	Voucher *voucher.Voucher
}

// Service drives the order lifecycle: creation, payment confirmation, and
// cancellation. A successful pending->paid transition issues the order's
// voucher exactly once; issuance is idempotent by order id, so replayed
// confirmations return the already-issued voucher.
type Service struct {
	orders Store
	issuer voucher.Issuer
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Store, issuer voucher.Issuer) *Service {
	return &Service{orders: orders, issuer: issuer}
}

// Create validates the request and persists a new pending order.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	o := &Order{
		ID:             uuid.New().String(),
		CustomerID:     req.CustomerID,
		StoreID:        req.StoreID,
		RecipientEmail: req.RecipientEmail,
		RecipientName:  req.RecipientName,
		Message:        req.Message,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Status:         StatusPending,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get returns the order with the given id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.FindByID(ctx, id)
}

// ConfirmPayment applies a gateway confirmation to the order.
//
// A successful confirmation whose amount and currency match the order moves
// it from pending to paid and issues the voucher. A mismatch is rejected
// with ConflictError and the order stays pending. A failure confirmation
// moves a pending order to failed. Replaying a success confirmation against
// an already-paid order is a no-op that returns the existing voucher.
func (s *Service) ConfirmPayment(ctx context.Context, ev PaymentConfirmation) (*ConfirmResult, error) {
	if ev.Result != ResultSuccess && ev.Result != ResultFailure {
		return nil, &ValidationError{Field: "status", Reason: "must be success or failure"}
	}

	o, err := s.orders.FindByID(ctx, ev.OrderID)
	if err != nil {
		return nil, err
	}

	if ev.Result == ResultFailure {
		return s.applyFailure(ctx, o)
	}

	// Replayed confirmation for a paid order: converge on the existing
	// voucher without touching the order.
	if o.Status == StatusPaid {
		v, err := s.issuer.Issue(ctx, issueRequest(o))
		if err != nil {
			return nil, errors.Wrap(err, "issue voucher")
		}
		return &ConfirmResult{Order: o, Voucher: v}, nil
	}
	if o.Status.Terminal() {
		return nil, ErrOrderClosed
	}

	// Amount and currency must match before any state change.
	if !ev.Amount.Equal(o.Amount) {
		return nil, &ConflictError{
			OrderID: o.ID,
			Field:   "amount",
			Want:    o.Amount.String(),
			Got:     ev.Amount.String(),
		}
	}
	if ev.Currency != o.Currency {
		return nil, &ConflictError{
			OrderID: o.ID,
			Field:   "currency",
			Want:    o.Currency,
			Got:     ev.Currency,
		}
	}

	err = s.orders.MarkPaid(ctx, o.ID, ev.PaymentID, ev.PaymentMethod)
	switch {
	case err == nil:
	case errors.Is(err, ErrOrderClosed):
		// Lost the race against a concurrent confirmation. Re-read and,
		// if the winner paid the order, fall through to the idempotent
		// issuance path.
		o, err = s.orders.FindByID(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if o.Status != StatusPaid {
			return nil, ErrOrderClosed
		}
	default:
		return nil, errors.Wrap(err, "mark order paid")
	}

	o, err = s.orders.FindByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	v, err := s.issuer.Issue(ctx, issueRequest(o))
	if err != nil {
		// The order is paid but the voucher is missing. The confirmation
		// is safe to redeliver: the next attempt retries issuance.
		return nil, errors.Wrap(err, "issue voucher")
	}
	return &ConfirmResult{Order: o, Voucher: v}, nil
}

// Cancel moves a pending order to cancelled. Orders that already left the
// pending state cannot be cancelled here.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusCancelled {
		return o, nil
	}
	if o.Status.Terminal() {
		return nil, ErrOrderClosed
	}
	if err := s.orders.Close(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, id)
}

func (s *Service) applyFailure(ctx context.Context, o *Order) (*ConfirmResult, error) {
	if o.Status == StatusFailed {
		return &ConfirmResult{Order: o}, nil
	}
	if o.Status.Terminal() {
		return nil, ErrOrderClosed
	}
	if err := s.orders.Close(ctx, o.ID, StatusFailed); err != nil && !errors.Is(err, ErrOrderClosed) {
		return nil, errors.Wrap(err, "mark order failed")
	}
	o, err := s.orders.FindByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{Order: o}, nil
}

func issueRequest(o *Order) voucher.IssueRequest {
	return voucher.IssueRequest{
		OrderID:    o.ID,
		StoreID:    o.StoreID,
		CustomerID: o.CustomerID,
		Value:      o.Amount,
		Currency:   o.Currency,
	}
}
