package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedbrasilia/enroll-api/internal/models"
	"github.com/cedbrasilia/enroll-api/internal/service"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
	"github.com/cedbrasilia/enroll-api/pkg/response"
)

// WebhookHandler receives payment-provider status-change notifications.
type WebhookHandler struct {
	webhooks *service.WebhookService
	metrics  *service.MetricsService
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(webhooks *service.WebhookService, metrics *service.MetricsService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, metrics: metrics}
}

// Receive godoc
// @Summary Receive payment provider event
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param payload body models.ProviderEvent true "Provider event"
// @Success 200 {object} map[string]string
// @Router /webhooks/payments [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	var event models.ProviderEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.observe("malformed")
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	result, outcome, err := h.webhooks.Process(c.Request.Context(), event)
	if outcome != nil && h.metrics != nil {
		h.metrics.ObserveRegistrationAttempts(outcome.Attempts)
		if outcome.Succeeded {
			h.metrics.ObserveOutcome("success")
		} else {
			h.metrics.ObserveOutcome(string(outcome.FailedStage))
		}
	}
	if err != nil {
		h.observe("error")
		if outcome != nil {
			response.ErrorWithData(c, err, outcome)
		} else {
			response.Error(c, err)
		}
		return
	}

	h.observe(categoryLabel(result))
	response.Msg(c, http.StatusOK, string(result))
}

func (h *WebhookHandler) observe(category string) {
	if h.metrics != nil {
		h.metrics.ObserveWebhookEvent(category)
	}
}

func categoryLabel(result service.EventResult) string {
	switch result {
	case service.EventIgnored:
		return "ignored"
	case service.EventNotApproved:
		return "not_approved"
	case service.EventDuplicate:
		return "duplicate"
	case service.EventEnrolled:
		return "enrolled"
	default:
		return "other"
	}
}
