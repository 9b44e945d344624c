package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cedbrasilia/enroll-api/internal/models"
	"github.com/cedbrasilia/enroll-api/internal/service"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
	"github.com/cedbrasilia/enroll-api/pkg/response"
)

// EnrollmentHandler exposes the direct enrollment trigger, used for manual
// enrollments and for retrying after a partial failure.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	metrics     *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, metrics: metrics}
}

// Create godoc
// @Summary Enroll a student directly
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body models.EnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req models.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.TransactionID == "" {
		// Manual triggers have no provider transaction; give the observer
		// trail something to correlate on.
		req.TransactionID = "manual-" + uuid.NewString()
	}

	outcome, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveRegistrationAttempts(outcome.Attempts)
		if outcome.Succeeded {
			h.metrics.ObserveOutcome("success")
		} else {
			h.metrics.ObserveOutcome(string(outcome.FailedStage))
		}
	}

	if !outcome.Succeeded {
		appErr := appErrors.Clone(appErrors.ErrUpstreamUnavailable,
			"enrollment failed at stage "+string(outcome.FailedStage)+": "+outcome.Reason)
		// Partial failures still report the registered student id so binding
		// can be retried alone.
		response.ErrorWithData(c, appErr, outcome)
		return
	}
	response.Created(c, outcome)
}
