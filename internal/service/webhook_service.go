package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/cedbrasilia/enroll-api/internal/ledger"
	"github.com/cedbrasilia/enroll-api/internal/models"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
)

// EventResult categorizes how an inbound provider event was handled.
type EventResult string

const (
	EventIgnored     EventResult = "evento ignorado"
	EventNotApproved EventResult = "pagamento não aprovado"
	EventDuplicate   EventResult = "evento já processado"
	EventEnrolled    EventResult = "aluno matriculado com sucesso"
)

type paymentProvider interface {
	Payment(ctx context.Context, id string) (*models.Payment, error)
	Preapproval(ctx context.Context, id string) (*models.Preapproval, error)
}

type enroller interface {
	Enroll(ctx context.Context, req models.EnrollmentRequest) (models.EnrollmentOutcome, error)
}

// WebhookService is the event intake and idempotency guard: it qualifies
// provider notifications, fetches the authoritative transaction state, and
// invokes the orchestrator at most once per transaction id.
type WebhookService struct {
	provider paymentProvider
	enroll   enroller
	ledger   ledger.Ledger
	logger   *zap.Logger
}

// NewWebhookService constructs the intake service.
func NewWebhookService(provider paymentProvider, enroll enroller, led ledger.Ledger, logger *zap.Logger) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{provider: provider, enroll: enroll, ledger: led, logger: logger}
}

// Process handles one provider event. The returned EventResult maps to the
// acknowledgement message; a non-nil error means the webhook should answer
// with an error status so the provider redelivers. The ledger commits only
// after the orchestrator reaches a terminal outcome, so pre-orchestration
// failures stay eligible for reprocessing.
func (s *WebhookService) Process(ctx context.Context, event models.ProviderEvent) (EventResult, *models.EnrollmentOutcome, error) {
	if !event.Qualifies() {
		s.logger.Info("provider event ignored", zap.String("type", event.Type))
		return EventIgnored, nil, nil
	}
	if event.Data.ID == "" {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "transaction id missing from event")
	}

	txnID, metadata, approved, err := s.resolve(ctx, event)
	if err != nil {
		return "", nil, err
	}
	if !approved {
		s.logger.Info("transaction not approved, discarding",
			zap.String("txn_id", txnID),
			zap.String("type", event.Type))
		return EventNotApproved, nil, nil
	}

	req := models.EnrollmentRequest{
		Name:          metadata.Name,
		Email:         metadata.Email,
		Whatsapp:      metadata.Whatsapp,
		Courses:       metadata.CourseNames(),
		TransactionID: txnID,
	}

	reserved, err := s.ledger.Reserve(ctx, txnID)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "ledger reservation failed")
	}
	if !reserved {
		s.logger.Info("transaction already handled, discarding redelivery", zap.String("txn_id", txnID))
		return EventDuplicate, nil, nil
	}

	outcome, err := s.enroll.Enroll(ctx, req)
	if err != nil {
		// Rejected before any external call: release the reservation so a
		// corrected redelivery can still be processed.
		if relErr := s.ledger.Release(ctx, txnID); relErr != nil {
			s.logger.Warn("ledger release failed", zap.String("txn_id", txnID), zap.Error(relErr))
		}
		return "", nil, err
	}

	// Terminal outcome, success or failure: commit so redeliveries of this
	// transaction never re-enroll.
	if err := s.ledger.Commit(ctx, txnID); err != nil {
		s.logger.Error("ledger commit failed", zap.String("txn_id", txnID), zap.Error(err))
	}

	if !outcome.Succeeded {
		return "", &outcome, appErrors.Clone(appErrors.ErrUpstreamUnavailable,
			"enrollment failed at stage "+string(outcome.FailedStage)+": "+outcome.Reason)
	}
	return EventEnrolled, &outcome, nil
}

// resolve fetches the authoritative transaction record for the event. The
// webhook payload itself is never trusted for financial state.
func (s *WebhookService) resolve(ctx context.Context, event models.ProviderEvent) (string, models.PaymentMetadata, bool, error) {
	if event.Subscription() {
		preapproval, err := s.provider.Preapproval(ctx, event.Data.ID)
		if err != nil {
			return "", models.PaymentMetadata{}, false, err
		}
		return preapproval.ID, preapproval.Metadata, preapproval.Authorized(), nil
	}

	payment, err := s.provider.Payment(ctx, event.Data.ID)
	if err != nil {
		return "", models.PaymentMetadata{}, false, err
	}
	txnID := payment.ID.String()
	if txnID == "" {
		txnID = event.Data.ID
	}
	return txnID, payment.Metadata, payment.Approved(), nil
}
