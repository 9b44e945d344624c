package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedbrasilia/enroll-api/internal/catalog"
	"github.com/cedbrasilia/enroll-api/internal/models"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
)

type mockDirectory struct {
	mu sync.Mutex

	token    string
	tokenErr error

	createCalls  int
	createErr    error
	duplicateFor int // first N create calls fail with a duplicate-code error
	studentID    string

	boundStudent   string
	boundOfferings []int
	bindErr        error
}

func (m *mockDirectory) UnitToken(ctx context.Context) (string, error) {
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	if m.token == "" {
		return "tok-abc", nil
	}
	return m.token, nil
}

func (m *mockDirectory) CreateStudent(ctx context.Context, profile models.StudentProfile, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createCalls <= m.duplicateFor {
		return "", appErrors.Clone(appErrors.ErrDuplicateCode, "")
	}
	if m.createErr != nil {
		return "", m.createErr
	}
	if m.studentID == "" {
		return "987", nil
	}
	return m.studentID, nil
}

func (m *mockDirectory) BindCourses(ctx context.Context, studentID string, offeringIDs []int, token string) error {
	if m.bindErr != nil {
		return m.bindErr
	}
	m.boundStudent = studentID
	m.boundOfferings = offeringIDs
	return nil
}

type mockAllocator struct {
	mu       sync.Mutex
	base     int
	err      error
	requests []int
}

func (m *mockAllocator) Allocate(ctx context.Context, offset int) (models.StudentCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.StudentCode{}, m.err
	}
	m.requests = append(m.requests, offset)
	return models.StudentCode{Prefix: "20254158", Sequence: m.base + 1 + offset}, nil
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []string // "phone|text"
	err   error
}

func (m *mockNotifier) Send(ctx context.Context, phone, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, phone+"|"+text)
	return m.err
}

type mockObserver struct {
	mu     sync.Mutex
	stages []string
}

func (m *mockObserver) StageChanged(txnID, stage, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, stage)
}

func validRequest() models.EnrollmentRequest {
	return models.EnrollmentRequest{
		Name:          "Maria Silva",
		Email:         "maria@example.com",
		Whatsapp:      "61988887777",
		Courses:       []string{"Pacote Office"},
		TransactionID: "txn-1",
	}
}

func TestEnrollSuccess(t *testing.T) {
	dir := &mockDirectory{}
	alloc := &mockAllocator{base: 20}
	notifier := &mockNotifier{}
	observer := &mockObserver{}
	svc := NewEnrollmentService(dir, alloc, catalog.Default(), notifier, observer, 60, nil, nil)

	outcome, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "987", outcome.StudentID)
	assert.Equal(t, "20254158021", outcome.Code)
	assert.Equal(t, []int{160, 161, 162, 197, 201}, outcome.OfferingIDs)
	assert.Equal(t, 1, outcome.Attempts)

	assert.Equal(t, "987", dir.boundStudent)
	assert.Equal(t, []int{160, 161, 162, 197, 201}, dir.boundOfferings)

	require.Len(t, notifier.calls, 1)
	assert.True(t, strings.HasPrefix(notifier.calls[0], "61988887777|"))
	assert.Contains(t, notifier.calls[0], "20254158021")

	assert.Equal(t, []string{"start", "token_acquired", "code_allocated", "registered", "bound", "done"}, observer.stages)
}

func TestEnrollValidationRejection(t *testing.T) {
	dir := &mockDirectory{}
	svc := NewEnrollmentService(dir, &mockAllocator{}, catalog.Default(), nil, nil, 60, nil, nil)

	for name, req := range map[string]models.EnrollmentRequest{
		"short name":  {Name: "Ma", Whatsapp: "61988887777", Courses: []string{"Pacote Office"}},
		"bad phone":   {Name: "Maria Silva", Whatsapp: "619-8888", Courses: []string{"Pacote Office"}},
		"short phone": {Name: "Maria Silva", Whatsapp: "988887777", Courses: []string{"Pacote Office"}},
		"bad email":   {Name: "Maria Silva", Email: "not-an-email", Whatsapp: "61988887777", Courses: []string{"Pacote Office"}},
		"no courses":  {Name: "Maria Silva", Whatsapp: "61988887777"},
	} {
		_, err := svc.Enroll(context.Background(), req)
		require.Error(t, err, name)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), name)
	}
	assert.Equal(t, 0, dir.createCalls, "rejected requests must never reach the directory")
}

func TestEnrollUnknownCourseRejectedUpfront(t *testing.T) {
	dir := &mockDirectory{}
	req := validRequest()
	req.Courses = []string{"Curso Fantasma"}
	svc := NewEnrollmentService(dir, &mockAllocator{}, catalog.Default(), nil, nil, 60, nil, nil)

	_, err := svc.Enroll(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 0, dir.createCalls)
}

func TestEnrollTokenFailure(t *testing.T) {
	dir := &mockDirectory{tokenErr: appErrors.Clone(appErrors.ErrAuthUnavailable, "")}
	notifier := &mockNotifier{}
	svc := NewEnrollmentService(dir, &mockAllocator{}, catalog.Default(), notifier, nil, 60, nil, nil)

	outcome, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, models.StageTokenAcquisition, outcome.FailedStage)
	assert.Equal(t, 0, dir.createCalls)
	assert.Empty(t, notifier.calls, "no welcome without a registered student")
}

func TestEnrollAllocationFailure(t *testing.T) {
	alloc := &mockAllocator{err: appErrors.Clone(appErrors.ErrAllocationUnavailable, "")}
	svc := NewEnrollmentService(&mockDirectory{}, alloc, catalog.Default(), nil, nil, 60, nil, nil)

	outcome, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, models.StageIdentifierAllocation, outcome.FailedStage)
}

func TestEnrollResamplesOnDuplicateCode(t *testing.T) {
	dir := &mockDirectory{duplicateFor: 2}
	alloc := &mockAllocator{base: 20}
	svc := NewEnrollmentService(dir, alloc, catalog.Default(), nil, nil, 60, nil, nil)

	outcome, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, "20254158023", outcome.Code, "third candidate after two collisions")
	assert.Equal(t, []int{0, 1, 2}, alloc.requests)
}

func TestEnrollExhaustsRegistrationAttempts(t *testing.T) {
	dir := &mockDirectory{duplicateFor: 1 << 30}
	alloc := &mockAllocator{}
	svc := NewEnrollmentService(dir, alloc, catalog.Default(), nil, nil, 60, nil, nil)

	outcome, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, models.StageRegistration, outcome.FailedStage)
	assert.Equal(t, 60, outcome.Attempts)
	assert.Equal(t, 60, dir.createCalls)
	assert.Contains(t, outcome.Reason, "60")
}

func TestEnrollNonDuplicateCreateFailureIsFatal(t *testing.T) {
	dir := &mockDirectory{createErr: appErrors.Clone(appErrors.ErrRegistrationRejected, "email inválido")}
	svc := NewEnrollmentService(dir, &mockAllocator{}, catalog.Default(), nil, nil, 60, nil, nil)

	outcome, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, models.StageRegistration, outcome.FailedStage)
	assert.Equal(t, 1, dir.createCalls, "non-duplicate rejections must not be retried")
}

func TestEnrollBindingFailureKeepsStudent(t *testing.T) {
	dir := &mockDirectory{bindErr: appErrors.Clone(appErrors.ErrBindingRejected, "")}
	notifier := &mockNotifier{}
	alloc := &mockAllocator{base: 20}
	svc := NewEnrollmentService(dir, alloc, catalog.Default(), notifier, nil, 60, nil, nil)

	outcome, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, models.StageCourseBinding, outcome.FailedStage)
	assert.Equal(t, "987", outcome.StudentID)
	assert.Equal(t, "20254158021", outcome.Code)
	assert.Equal(t, 1, outcome.Attempts)
	assert.True(t, outcome.Registered())

	// the student exists, so the welcome still goes out
	require.Len(t, notifier.calls, 1)
}

func TestEnrollNotifierErrorDoesNotChangeOutcome(t *testing.T) {
	notifier := &mockNotifier{err: errors.New("gateway down")}
	svc := NewEnrollmentService(&mockDirectory{}, &mockAllocator{base: 20}, catalog.Default(), notifier, nil, 60, nil, nil)

	outcome, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
}

func TestEnrollMultipleCoursesUnionOfferings(t *testing.T) {
	dir := &mockDirectory{}
	req := validRequest()
	req.Courses = []string{"Pacote Office", "Informática Essencial"}
	svc := NewEnrollmentService(dir, &mockAllocator{base: 20}, catalog.Default(), nil, nil, 60, nil, nil)

	outcome, err := svc.Enroll(context.Background(), req)
	require.NoError(t, err)
	require.True(t, outcome.Succeeded)

	// union preserves request order and drops repeats
	assert.Equal(t, []int{160, 161, 162, 197, 201, 130, 599}, outcome.OfferingIDs)
}

func TestEnrollDefaultsMaxAttempts(t *testing.T) {
	dir := &mockDirectory{duplicateFor: 1 << 30}
	svc := NewEnrollmentService(dir, &mockAllocator{}, catalog.Default(), nil, nil, 0, nil, nil)

	outcome, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 60, dir.createCalls)
	assert.Equal(t, 60, outcome.Attempts)
}

func TestEnrollObserverSeesFailure(t *testing.T) {
	observer := &mockObserver{}
	dir := &mockDirectory{tokenErr: errors.New("down")}
	svc := NewEnrollmentService(dir, &mockAllocator{}, catalog.Default(), nil, observer, 60, nil, nil)

	_, err := svc.Enroll(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "failed"}, observer.stages)
}

func TestStudentCodeFormat(t *testing.T) {
	for _, tc := range []struct {
		sequence int
		want     string
	}{
		{1, "20254158001"},
		{21, "20254158021"},
		{999, "20254158999"},
		{1000, "202541581000"},
	} {
		code := models.StudentCode{Prefix: "20254158", Sequence: tc.sequence}
		assert.Equal(t, tc.want, code.String(), fmt.Sprintf("sequence %d", tc.sequence))
	}
}
