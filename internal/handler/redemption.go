package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ximepaparella/giftvoucher/internal/domain/redemption"
)

type redeemRequest struct {
	VoucherCode string `json:"voucherCode" binding:"required"`
	MerchantID  string `json:"merchantId" binding:"required"`
	RedeemedBy  string `json:"redeemedBy"`
	Notes       string `json:"notes"`
}

type redemptionResponse struct {
	RedemptionID string    `json:"redemptionId"`
	VoucherID    string    `json:"voucherId"`
	MerchantID   string    `json:"merchantId"`
	RedeemedBy   string    `json:"redeemedBy,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Status       string    `json:"status"`
	RedeemedAt   time.Time `json:"redeemedAt"`
}

func (h *Handler) redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Code: 400, Message: "invalid request body"})
		return
	}

	r, err := h.engine.Redeem(c.Request.Context(), redemption.RedeemRequest{
		Code:       req.VoucherCode,
		StoreID:    req.MerchantID,
		RedeemedBy: req.RedeemedBy,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRedemptionResponse(r))
}

func (h *Handler) getRedemption(c *gin.Context) {
	r, err := h.reports.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRedemptionResponse(r))
}

func (h *Handler) voucherRedemptions(c *gin.Context) {
	code := c.Param("code")
	v, err := h.vouchers.FindByCode(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}

	rs, err := h.reports.ForVoucher(c.Request.Context(), v.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRedemptionList(rs))
}

func (h *Handler) storeRedemptions(c *gin.Context) {
	rs, err := h.reports.ForStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRedemptionList(rs))
}

func (h *Handler) customerRedemptions(c *gin.Context) {
	rs, err := h.reports.ForCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRedemptionList(rs))
}

func toRedemptionResponse(r *redemption.Redemption) redemptionResponse {
	return redemptionResponse{
		RedemptionID: r.ID,
		VoucherID:    r.VoucherID,
		MerchantID:   r.StoreID,
		RedeemedBy:   r.RedeemedBy,
		Notes:        r.Notes,
		Status:       string(r.Status),
		RedeemedAt:   r.RedeemedAt,
	}
}

func toRedemptionList(rs []redemption.Redemption) []redemptionResponse {
	out := make([]redemptionResponse, len(rs))
	for i := range rs {
		out[i] = toRedemptionResponse(&rs[i])
	}
	return out
}
