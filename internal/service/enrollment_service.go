package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cedbrasilia/enroll-api/internal/catalog"
	"github.com/cedbrasilia/enroll-api/internal/models"
	"github.com/cedbrasilia/enroll-api/internal/notify"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
)

// Orchestration stage transitions reported to the observer.
const (
	transitionStart         = "start"
	transitionTokenAcquired = "token_acquired"
	transitionCodeAllocated = "code_allocated"
	transitionRegistered    = "registered"
	transitionBound         = "bound"
	transitionDone          = "done"
	transitionFailed        = "failed"
)

type directoryClient interface {
	UnitToken(ctx context.Context) (string, error)
	CreateStudent(ctx context.Context, profile models.StudentProfile, token string) (string, error)
	BindCourses(ctx context.Context, studentID string, offeringIDs []int, token string) error
}

type codeAllocator interface {
	Allocate(ctx context.Context, offset int) (models.StudentCode, error)
}

// Notifier delivers the post-enrollment welcome message. Implementations
// must be best-effort: errors are logged here and never change the outcome.
type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

// Observer receives orchestration stage transitions. Implementations must
// not block; the orchestrator calls them inline on the critical path.
type Observer interface {
	StageChanged(txnID, stage, detail string)
}

// enrollInput mirrors models.EnrollmentRequest for struct validation.
type enrollInput struct {
	Name     string   `validate:"required,min=3"`
	Email    string   `validate:"omitempty,email"`
	Whatsapp string   `validate:"required,number,min=10,max=11"`
	Courses  []string `validate:"required,min=1"`
}

// EnrollmentService is the registration-enrollment orchestrator: it walks a
// payment-confirmed request through token acquisition, code allocation, the
// bounded registration retry loop and course binding, and always lands in a
// terminal outcome.
type EnrollmentService struct {
	directory   directoryClient
	allocator   codeAllocator
	catalog     *catalog.Catalog
	notifier    Notifier
	observer    Observer
	maxAttempts int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs the orchestrator. notifier and observer
// may be nil.
func NewEnrollmentService(directory directoryClient, alloc codeAllocator, cat *catalog.Catalog, notifier Notifier, observer Observer, maxAttempts int, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 60
	}
	return &EnrollmentService{
		directory:   directory,
		allocator:   alloc,
		catalog:     cat,
		notifier:    notifier,
		observer:    observer,
		maxAttempts: maxAttempts,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll runs the full orchestration for one request. A non-nil error means
// the request was rejected before any external call (validation or an
// unknown course name); otherwise the returned outcome is terminal, and a
// failed outcome after successful registration still carries the student id
// and code.
func (s *EnrollmentService) Enroll(ctx context.Context, req models.EnrollmentRequest) (models.EnrollmentOutcome, error) {
	if err := s.validator.Struct(enrollInput{Name: req.Name, Email: req.Email, Whatsapp: req.Whatsapp, Courses: req.Courses}); err != nil {
		return models.EnrollmentOutcome{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment request")
	}

	// Unknown course names are rejected upfront rather than silently
	// skipped, so a typo in checkout metadata cannot strand a student
	// record with no course access.
	offeringIDs, err := s.catalog.Resolve(req.Courses)
	if err != nil {
		return models.EnrollmentOutcome{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course selection invalid")
	}

	s.notifyStage(req.TransactionID, transitionStart, fmt.Sprintf("%s | %d course offerings", req.Name, len(offeringIDs)))

	outcome := s.run(ctx, req, offeringIDs)
	s.dispatchWelcome(ctx, req, outcome)
	return outcome, nil
}

func (s *EnrollmentService) run(ctx context.Context, req models.EnrollmentRequest, offeringIDs []int) models.EnrollmentOutcome {
	token, err := s.directory.UnitToken(ctx)
	if err != nil {
		// A missing token indicates misconfiguration, not transient load;
		// fail immediately.
		return s.fail(req, models.StageTokenAcquisition, err, "", "")
	}
	s.notifyStage(req.TransactionID, transitionTokenAcquired, "")

	studentID, code, attempts, failed := s.register(ctx, req, token)
	if failed != nil {
		failed.Attempts = attempts
		return *failed
	}
	s.notifyStage(req.TransactionID, transitionRegistered, fmt.Sprintf("student %s | code %s", studentID, code))

	if err := s.directory.BindCourses(ctx, studentID, offeringIDs, token); err != nil {
		// Registration is not rolled back: registered-but-unbound is an
		// accepted terminal state and the caller may retry binding alone.
		outcome := s.fail(req, models.StageCourseBinding, err, studentID, code)
		outcome.Attempts = attempts
		return outcome
	}
	s.notifyStage(req.TransactionID, transitionBound, "")

	s.notifyStage(req.TransactionID, transitionDone, fmt.Sprintf("student %s | code %s", studentID, code))
	return models.EnrollmentOutcome{
		Succeeded:   true,
		StudentID:   studentID,
		Code:        code,
		OfferingIDs: offeringIDs,
		Attempts:    attempts,
	}
}

// register runs the bounded resampling loop: each attempt allocates the next
// candidate code and tries to create the student under it. Duplicate-code
// rejections mean another process raced the same sequence number and are the
// only recoverable failure.
func (s *EnrollmentService) register(ctx context.Context, req models.EnrollmentRequest, token string) (string, string, int, *models.EnrollmentOutcome) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		candidate, err := s.allocator.Allocate(ctx, attempt)
		if err != nil {
			outcome := s.fail(req, models.StageIdentifierAllocation, err, "", "")
			return "", "", attempt, &outcome
		}
		code := candidate.String()
		s.notifyStage(req.TransactionID, transitionCodeAllocated, fmt.Sprintf("attempt %d/%d | code %s", attempt+1, s.maxAttempts, code))

		profile := models.StudentProfile{
			Name:     req.Name,
			Email:    req.Email,
			Whatsapp: req.Whatsapp,
			Code:     code,
		}
		studentID, err := s.directory.CreateStudent(ctx, profile, token)
		if err == nil {
			return studentID, code, attempt + 1, nil
		}
		if appErrors.Is(err, appErrors.ErrDuplicateCode) {
			s.logger.Info("student code collision, resampling",
				zap.String("code", code),
				zap.Int("attempt", attempt+1))
			continue
		}
		outcome := s.fail(req, models.StageRegistration, err, "", "")
		return "", "", attempt + 1, &outcome
	}

	outcome := s.fail(req, models.StageRegistration, fmt.Errorf("identifier space exhausted after %d attempts", s.maxAttempts), "", "")
	return "", "", s.maxAttempts, &outcome
}

func (s *EnrollmentService) fail(req models.EnrollmentRequest, stage models.Stage, err error, studentID, code string) models.EnrollmentOutcome {
	reason := err.Error()
	s.logger.Error("enrollment failed",
		zap.String("txn_id", req.TransactionID),
		zap.String("stage", string(stage)),
		zap.String("reason", reason))
	s.notifyStage(req.TransactionID, transitionFailed, fmt.Sprintf("stage %s | %s", stage, reason))
	return models.EnrollmentOutcome{
		FailedStage: stage,
		Reason:      reason,
		StudentID:   studentID,
		Code:        code,
	}
}

// dispatchWelcome sends the welcome message after a success, or after a
// binding failure that still left a registered student. Errors never
// propagate.
func (s *EnrollmentService) dispatchWelcome(ctx context.Context, req models.EnrollmentRequest, outcome models.EnrollmentOutcome) {
	if s.notifier == nil {
		return
	}
	if !outcome.Succeeded && !(outcome.FailedStage == models.StageCourseBinding && outcome.Registered()) {
		return
	}
	text := welcomeText(req, outcome)
	if err := s.notifier.Send(ctx, req.Whatsapp, text); err != nil {
		s.logger.Warn("welcome message dispatch failed",
			zap.String("txn_id", req.TransactionID),
			zap.Error(err))
	}
}

func welcomeText(req models.EnrollmentRequest, outcome models.EnrollmentOutcome) string {
	return notify.WelcomeMessage(req.Name, outcome.Code, req.Courses)
}

func (s *EnrollmentService) notifyStage(txnID, stage, detail string) {
	if s.observer == nil {
		return
	}
	s.observer.StageChanged(txnID, stage, detail)
}
