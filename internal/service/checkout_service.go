package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cedbrasilia/enroll-api/internal/catalog"
	"github.com/cedbrasilia/enroll-api/internal/payments"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
)

type checkoutProvider interface {
	CreatePreference(ctx context.Context, items payments.CheckoutItems) (string, error)
	CreateSubscription(ctx context.Context, items payments.CheckoutItems) (string, error)
}

// CheckoutRequest is the payload for checkout-link creation.
type CheckoutRequest struct {
	Name     string   `json:"nome" validate:"required,min=3"`
	Email    string   `json:"email" validate:"required,email"`
	Whatsapp string   `json:"whatsapp" validate:"required,number,min=10,max=11"`
	Courses  []string `json:"cursos" validate:"required,min=1"`
}

// CheckoutLink is the created provider checkout URL.
type CheckoutLink struct {
	Link string `json:"mp_link"`
}

// CheckoutService validates checkout requests and creates payment-provider
// checkout links carrying the enrollment metadata the webhook will read
// back.
type CheckoutService struct {
	provider  checkoutProvider
	catalog   *catalog.Catalog
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCheckoutService constructs CheckoutService.
func NewCheckoutService(provider checkoutProvider, cat *catalog.Catalog, validate *validator.Validate, logger *zap.Logger) *CheckoutService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{provider: provider, catalog: cat, validator: validate, logger: logger}
}

// CreateLink validates the request and creates a one-time checkout
// preference.
func (s *CheckoutService) CreateLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	items, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	link, err := s.provider.CreatePreference(ctx, *items)
	if err != nil {
		return nil, err
	}
	s.logger.Info("checkout preference created", zap.String("name", req.Name), zap.Strings("courses", req.Courses))
	return &CheckoutLink{Link: link}, nil
}

// CreateSubscriptionLink validates the request and creates a recurring
// preapproval.
func (s *CheckoutService) CreateSubscriptionLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	items, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	link, err := s.provider.CreateSubscription(ctx, *items)
	if err != nil {
		return nil, err
	}
	s.logger.Info("subscription preapproval created", zap.String("name", req.Name), zap.Strings("courses", req.Courses))
	return &CheckoutLink{Link: link}, nil
}

// prepare validates the payload and resolves course names against the
// catalog before any provider call is made.
func (s *CheckoutService) prepare(req CheckoutRequest) (*payments.CheckoutItems, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checkout payload")
	}
	if _, err := s.catalog.Resolve(req.Courses); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course selection invalid")
	}
	return &payments.CheckoutItems{
		Name:     req.Name,
		Email:    req.Email,
		Whatsapp: req.Whatsapp,
		Courses:  req.Courses,
	}, nil
}
