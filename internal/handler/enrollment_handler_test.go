package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedbrasilia/enroll-api/internal/catalog"
	"github.com/cedbrasilia/enroll-api/internal/models"
	"github.com/cedbrasilia/enroll-api/internal/service"
)

func newEnrollmentTestHandler(directory *directoryMock) *EnrollmentHandler {
	enrollSvc := service.NewEnrollmentService(directory, allocatorMock{}, catalog.Default(), nil, nil, 60, nil, nil)
	return NewEnrollmentHandler(enrollSvc, service.NewMetricsService())
}

func postEnrollment(t *testing.T, h *EnrollmentHandler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/enrollments", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	h.Create(c)
	return w
}

func TestEnrollmentCreate(t *testing.T) {
	h := newEnrollmentTestHandler(&directoryMock{})

	w := postEnrollment(t, h, []byte(`{"nome":"Maria Silva","email":"maria@example.com","whatsapp":"61988887777","cursos":["Pacote Office"]}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.EnrollmentOutcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Succeeded)
	assert.Equal(t, "20254158021", envelope.Data.Code)
	assert.Equal(t, []int{160, 161, 162, 197, 201}, envelope.Data.OfferingIDs)
}

func TestEnrollmentCreateInvalidBody(t *testing.T) {
	h := newEnrollmentTestHandler(&directoryMock{})
	w := postEnrollment(t, h, []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentCreateValidationError(t *testing.T) {
	h := newEnrollmentTestHandler(&directoryMock{})
	w := postEnrollment(t, h, []byte(`{"nome":"Ma","whatsapp":"61988887777","cursos":["Pacote Office"]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentCreateUnknownCourse(t *testing.T) {
	h := newEnrollmentTestHandler(&directoryMock{})
	w := postEnrollment(t, h, []byte(`{"nome":"Maria Silva","whatsapp":"61988887777","cursos":["Curso Fantasma"]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentCreatePartialFailure(t *testing.T) {
	h := newEnrollmentTestHandler(&directoryMock{bindErr: assert.AnError})

	w := postEnrollment(t, h, []byte(`{"nome":"Maria Silva","whatsapp":"61988887777","cursos":["Pacote Office"]}`))
	require.Equal(t, http.StatusBadGateway, w.Code)

	var envelope struct {
		Data models.EnrollmentOutcome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "987", envelope.Data.StudentID)
	assert.Equal(t, models.StageCourseBinding, envelope.Data.FailedStage)
}
