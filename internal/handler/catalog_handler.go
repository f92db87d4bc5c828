package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/service"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
	"github.com/uniportal/registrar-api/pkg/response"
)

// CatalogHandler exposes departments, courses, classrooms and time slots.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListDepartments godoc
// @Summary List departments
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	departments, err := h.catalog.ListDepartments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// ListCourses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Param dept_name query string false "Filter by department"
// @Param search query string false "Match course id or name"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.CourseFilter{
		DeptName: c.Query("dept_name"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: size,
	}
	courses, pagination, err := h.catalog.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// GetCourse godoc
// @Summary Get one course
// @Tags Catalog
// @Produce json
// @Param courseId path string true "Course id"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.catalog.GetCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// CreateCourse godoc
// @Summary Create course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse godoc
// @Summary Update course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param courseId path string true "Course id"
// @Param payload body service.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId} [put]
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.catalog.UpdateCourse(c.Request.Context(), c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// DeleteCourse godoc
// @Summary Delete course
// @Tags Catalog
// @Param courseId path string true "Course id"
// @Success 204 "No Content"
// @Router /courses/{courseId} [delete]
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	if err := h.catalog.DeleteCourse(c.Request.Context(), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListClassrooms godoc
// @Summary List classrooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *CatalogHandler) ListClassrooms(c *gin.Context) {
	classrooms, err := h.catalog.ListClassrooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms, nil)
}

// RoomsForBuilding godoc
// @Summary List rooms in a building
// @Tags Catalog
// @Produce json
// @Param building path string true "Building"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{building}/rooms [get]
func (h *CatalogHandler) RoomsForBuilding(c *gin.Context) {
	rooms, err := h.catalog.RoomsForBuilding(c.Request.Context(), c.Param("building"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// ListTimeSlots godoc
// @Summary List time slots
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /time-slots [get]
func (h *CatalogHandler) ListTimeSlots(c *gin.Context) {
	slots, err := h.catalog.ListTimeSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}
