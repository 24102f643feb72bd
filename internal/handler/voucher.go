package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ximepaparella/giftvoucher/internal/domain/voucher"
)

type voucherResponse struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"orderId"`
	StoreID    string     `json:"storeId"`
	CustomerID string     `json:"customerId"`
	Code       string     `json:"code"`
	Value      float64    `json:"value"`
	Currency   string     `json:"currency"`
	ValidFrom  time.Time  `json:"validFrom"`
	ValidUntil time.Time  `json:"validUntil"`
	Status     string     `json:"status"`
	RedeemedAt *time.Time `json:"redeemedAt,omitempty"`
}

func (h *Handler) getVoucher(c *gin.Context) {
	code := c.Param("code")
	if !voucher.ValidCode(code) {
		writeError(c, voucher.ErrNotFound)
		return
	}

	v, err := h.vouchers.FindByCode(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVoucherResponse(v))
}

func toVoucherResponse(v *voucher.Voucher) voucherResponse {
	return voucherResponse{
		ID:         v.ID,
		OrderID:    v.OrderID,
		StoreID:    v.StoreID,
		CustomerID: v.CustomerID,
		Code:       v.Code,
		Value:      v.Value.InexactFloat64(),
		Currency:   v.Currency,
		ValidFrom:  v.ValidFrom,
		ValidUntil: v.ValidUntil,
		Status:     string(v.Status),
		RedeemedAt: v.RedeemedAt,
	}
}
