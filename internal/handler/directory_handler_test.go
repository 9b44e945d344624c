package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type tokenFetcherMock struct {
	err error
}

func (m *tokenFetcherMock) UnitToken(ctx context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "tok-abc", nil
}

func TestDirectoryRefreshToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDirectoryHandler(&tokenFetcherMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/directory/token", nil)

	h.RefreshToken(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDirectoryRefreshTokenFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDirectoryHandler(&tokenFetcherMock{err: errors.New("unreachable")})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/directory/token", nil)

	h.RefreshToken(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
