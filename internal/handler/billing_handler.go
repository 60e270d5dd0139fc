package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bit-fotutors/classroom-api/internal/service"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/response"
)

// BillingHandler exposes lesson-balance payments and subscription billing.
type BillingHandler struct {
	billing *service.BillingService
}

// NewBillingHandler constructs BillingHandler.
func NewBillingHandler(billing *service.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// RecordPayment godoc
// @Summary Record a lesson-balance payment
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.billing.RecordPayment(c.Request.Context(), claims.ActorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListPayments godoc
// @Summary List recorded payments
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *BillingHandler) ListPayments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	payments, err := h.billing.ListPayments(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// ExportLedger godoc
// @Summary Export the payment ledger as CSV
// @Tags Billing
// @Produce text/csv
// @Security BearerAuth
// @Success 200
// @Router /payments/export [get]
func (h *BillingHandler) ExportLedger(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.billing.ExportLedgerCSV(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="payments.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ApplySubscription godoc
// @Summary Start a PRO subscription purchase
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /billing/subscription [post]
func (h *BillingHandler) ApplySubscription(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	payment, err := h.billing.ApplySubscription(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// ConfirmSubscription godoc
// @Summary Apply a confirmed subscription payment
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body service.ConfirmSubscriptionRequest true "Provider confirmation"
// @Router /billing/subscription/confirm [post]
func (h *BillingHandler) ConfirmSubscription(c *gin.Context) {
	var req service.ConfirmSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	teacher, err := h.billing.ConfirmSubscription(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Subscription godoc
// @Summary Current plan, quotas and usage
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/subscription [get]
func (h *BillingHandler) Subscription(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	info, err := h.billing.SubscriptionInfo(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}
