package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ximepaparella/giftvoucher/internal/domain/order"
)

type createOrderRequest struct {
	CustomerID     string          `json:"customerId" binding:"required"`
	StoreID        string          `json:"storeId" binding:"required"`
	RecipientEmail string          `json:"recipientEmail" binding:"required"`
	RecipientName  string          `json:"recipientName"`
	Message        string          `json:"message"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency" binding:"required"`
}

type confirmPaymentRequest struct {
	OrderID       string          `json:"orderId" binding:"required"`
	PaymentID     string          `json:"paymentId" binding:"required"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
}

type orderResponse struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customerId"`
	StoreID        string    `json:"storeId"`
	RecipientEmail string    `json:"recipientEmail"`
	RecipientName  string    `json:"recipientName,omitempty"`
	Message        string    `json:"message,omitempty"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	PaymentID      string    `json:"paymentId,omitempty"`
	PaymentMethod  string    `json:"paymentMethod,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type confirmPaymentResponse struct {
	Order   orderResponse    `json:"order"`
	Voucher *voucherResponse `json:"voucher,omitempty"`
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: 400, Message: "invalid request body"})
		return
	}

	o, err := h.orders.Create(c.Request.Context(), order.CreateOrderRequest{
		CustomerID:     req.CustomerID,
		StoreID:        req.StoreID,
		RecipientEmail: req.RecipientEmail,
		RecipientName:  req.RecipientName,
		Message:        req.Message,
		Amount:         req.Amount,
		Currency:       req.Currency,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) getOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *Handler) cancelOrder(c *gin.Context) {
	o, err := h.orders.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *Handler) confirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: 400, Message: "invalid request body"})
		return
	}

	result, err := h.orders.ConfirmPayment(c.Request.Context(), order.PaymentConfirmation{
		OrderID:       req.OrderID,
		PaymentID:     req.PaymentID,
		PaymentMethod: req.PaymentMethod,
		Result:        order.PaymentResult(req.Status),
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := confirmPaymentResponse{Order: toOrderResponse(result.Order)}
	if result.Voucher != nil {
		v := toVoucherResponse(result.Voucher)
		resp.Voucher = &v
	}
	c.JSON(http.StatusOK, resp)
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		CustomerID:     o.CustomerID,
		StoreID:        o.StoreID,
		RecipientEmail: o.RecipientEmail,
		RecipientName:  o.RecipientName,
		Message:        o.Message,
		Amount:         o.Amount.InexactFloat64(),
		Currency:       o.Currency,
		Status:         string(o.Status),
		PaymentID:      o.PaymentID,
		PaymentMethod:  o.PaymentMethod,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
