package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cedbrasilia/enroll-api/internal/catalog"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
	"github.com/cedbrasilia/enroll-api/pkg/response"
)

// CourseHandler exposes read-only catalog endpoints.
type CourseHandler struct {
	catalog *catalog.Catalog
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(cat *catalog.Catalog) *CourseHandler {
	return &CourseHandler{catalog: cat}
}

// List godoc
// @Summary List available courses and their offering ids
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"cursos": h.catalog.Entries()})
}

// Get godoc
// @Summary Get offering ids for one course
// @Tags Courses
// @Produce json
// @Param name path string true "Course name"
// @Success 200 {object} response.Envelope
// @Router /courses/{name} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	name := c.Param("name")
	canonical, offeringIDs, ok := h.catalog.Lookup(name)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "course not found: "+name))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"curso": canonical, "disciplinas": offeringIDs})
}
