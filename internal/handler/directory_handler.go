package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedbrasilia/enroll-api/pkg/response"
)

type tokenFetcher interface {
	UnitToken(ctx context.Context) (string, error)
}

// DirectoryHandler exposes a directory-connectivity probe. Fetching the unit
// token also refreshes it upstream, mirroring the legacy renew endpoint.
type DirectoryHandler struct {
	directory tokenFetcher
}

// NewDirectoryHandler constructs DirectoryHandler.
func NewDirectoryHandler(directory tokenFetcher) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// RefreshToken godoc
// @Summary Probe directory connectivity and refresh the unit token
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /directory/token [get]
func (h *DirectoryHandler) RefreshToken(c *gin.Context) {
	if _, err := h.directory.UnitToken(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"})
}
