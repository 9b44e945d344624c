package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedbrasilia/enroll-api/internal/service"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
	"github.com/cedbrasilia/enroll-api/pkg/response"
)

// CheckoutHandler exposes checkout-link creation endpoints.
type CheckoutHandler struct {
	checkout *service.CheckoutService
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Create godoc
// @Summary Create one-time checkout link
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body service.CheckoutRequest true "Checkout payload"
// @Success 201 {object} response.Envelope
// @Router /checkout [post]
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	link, err := h.checkout.CreateLink(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// CreateSubscription godoc
// @Summary Create recurring subscription link
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body service.CheckoutRequest true "Checkout payload"
// @Success 201 {object} response.Envelope
// @Router /checkout/subscription [post]
func (h *CheckoutHandler) CreateSubscription(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	link, err := h.checkout.CreateSubscriptionLink(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}
