// Package handler exposes the domain services over HTTP. Routing and
// request binding use gin; error classification stays in the domain
// packages and is mapped to status codes here.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ximepaparella/giftvoucher/internal/domain/order"
	"github.com/ximepaparella/giftvoucher/internal/domain/redemption"
	"github.com/ximepaparella/giftvoucher/internal/domain/voucher"
)

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	orders   *order.Service
	vouchers voucher.Store
	engine   *redemption.Engine
	reports  *redemption.Reports
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	orders *order.Service,
	vouchers voucher.Store,
	engine *redemption.Engine,
	reports *redemption.Reports,
) *Handler {
	return &Handler{
		orders:   orders,
		vouchers: vouchers,
		engine:   engine,
		reports:  reports,
	}
}

// Router builds the gin engine with all API routes mounted under /api.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	api := r.Group("/api")
	{
		api.POST("/orders", h.createOrder)
		api.GET("/orders/:id", h.getOrder)
		api.POST("/orders/:id/cancel", h.cancelOrder)
		api.POST("/payments/confirm", h.confirmPayment)

		api.GET("/vouchers/:code", h.getVoucher)
		api.GET("/vouchers/:code/redemptions", h.voucherRedemptions)

		api.POST("/redemptions", h.redeem)
		api.GET("/redemptions/:id", h.getRedemption)
		api.GET("/stores/:id/redemptions", h.storeRedemptions)
		api.GET("/customers/:id/redemptions", h.customerRedemptions)
	}

	return r
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	// RedeemedAt is set on already-redeemed conflicts so clients can show
	// when the voucher was used.
	RedeemedAt *time.Time `json:"redeemedAt,omitempty"`
}

// writeError maps a domain error to an HTTP response. Business-rule errors
// pass through with their classification; anything else is logged and
// surfaced as a generic 500.
func writeError(c *gin.Context, err error) {
	var (
		valErr *order.ValidationError
		cfErr  *order.ConflictError
		nrErr  *redemption.NotRedeemableError
		areErr *redemption.AlreadyRedeemedError
	)

	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, errorBody{Code: 400, Message: valErr.Error()})
	case errors.Is(err, redemption.ErrInvalidCode), errors.Is(err, redemption.ErrMissingStore):
		c.JSON(http.StatusBadRequest, errorBody{Code: 400, Message: err.Error()})
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, voucher.ErrNotFound),
		errors.Is(err, redemption.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Code: 404, Message: err.Error()})
	case errors.As(err, &nrErr):
		c.JSON(http.StatusUnprocessableEntity, errorBody{
			Code: 422, Message: nrErr.Error(), Reason: nrErr.Reason,
		})
	case errors.As(err, &areErr):
		at := areErr.RedeemedAt
		c.JSON(http.StatusConflict, errorBody{
			Code: 409, Message: areErr.Error(), Reason: "already_redeemed", RedeemedAt: &at,
		})
	case errors.As(err, &cfErr):
		c.JSON(http.StatusConflict, errorBody{
			Code: 409, Message: cfErr.Error(), Reason: "payment_mismatch",
		})
	case errors.Is(err, order.ErrOrderClosed):
		c.JSON(http.StatusConflict, errorBody{Code: 409, Message: err.Error()})
	default:
		zctx.From(c.Request.Context()).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody{Code: 500, Message: "internal error"})
	}
}
