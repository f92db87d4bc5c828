package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/service"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
	"github.com/uniportal/registrar-api/pkg/response"
)

// SectionHandler exposes section lifecycle endpoints.
type SectionHandler struct {
	sections *service.SectionService
}

// NewSectionHandler constructs handler.
func NewSectionHandler(sections *service.SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// List godoc
// @Summary List sections
// @Tags Sections
// @Produce json
// @Param course_id query string false "Partial course id"
// @Param sec_id query string false "Partial section id"
// @Param semester query string false "Exact semester"
// @Param year query int false "Exact year"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	year, _ := strconv.Atoi(c.Query("year"))
	filter := models.SectionFilter{
		CourseID: c.Query("course_id"),
		SecID:    c.Query("sec_id"),
		Semester: c.Query("semester"),
		Year:     year,
		Page:     page,
		PageSize: size,
	}
	sections, pagination, err := h.sections.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, pagination)
}

// Get godoc
// @Summary Get one section
// @Tags Sections
// @Produce json
// @Param courseId path string true "Course id"
// @Param secId path string true "Section id"
// @Param year path int true "Year"
// @Param semester path string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /sections/{courseId}/{secId}/{year}/{semester} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	key, err := sectionKeyFromPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	section, err := h.sections.Get(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Create godoc
// @Summary Create section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.SectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.sections.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Update godoc
// @Summary Update section
// @Tags Sections
// @Accept json
// @Produce json
// @Param courseId path string true "Course id"
// @Param secId path string true "Section id"
// @Param year path int true "Year"
// @Param semester path string true "Semester"
// @Param payload body service.SectionRequest true "Section payload"
// @Success 200 {object} response.Envelope
// @Router /sections/{courseId}/{secId}/{year}/{semester} [put]
func (h *SectionHandler) Update(c *gin.Context) {
	key, err := sectionKeyFromPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.sections.Update(c.Request.Context(), key, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Delete godoc
// @Summary Delete section
// @Tags Sections
// @Param courseId path string true "Course id"
// @Param secId path string true "Section id"
// @Param year path int true "Year"
// @Param semester path string true "Semester"
// @Success 204 "No Content"
// @Router /sections/{courseId}/{secId}/{year}/{semester} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	key, err := sectionKeyFromPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.sections.Delete(c.Request.Context(), key); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster godoc
// @Summary List enrolled students of a section
// @Tags Sections
// @Produce json
// @Param courseId path string true "Course id"
// @Param secId path string true "Section id"
// @Param year path int true "Year"
// @Param semester path string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /sections/{courseId}/{secId}/{year}/{semester}/roster [get]
func (h *SectionHandler) Roster(c *gin.Context) {
	key, err := sectionKeyFromPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	roster, err := h.sections.Roster(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}
