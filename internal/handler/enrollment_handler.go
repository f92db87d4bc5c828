package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/registrar-api/internal/service"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
	"github.com/uniportal/registrar-api/pkg/response"
)

// EnrollmentHandler exposes student self-service enrollment endpoints. The
// acting student always comes from the token, never from the payload.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	metrics     *service.MetricsService
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, metrics: metrics}
}

// Enroll godoc
// @Summary Enroll into a section
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollmentRequest true "Section key"
// @Success 201 {object} response.Envelope
// @Router /students/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	studentID, err := currentStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), studentID, req)
	if err != nil {
		h.countEnroll(err)
		response.Error(c, err)
		return
	}
	h.countEnroll(nil)
	response.Created(c, enrollment)
}

// Drop godoc
// @Summary Drop a section
// @Tags Enrollments
// @Param courseId path string true "Course id"
// @Param secId path string true "Section id"
// @Param year path int true "Year"
// @Param semester path string true "Semester"
// @Success 204 "No Content"
// @Router /students/me/enrollments/{courseId}/{secId}/{year}/{semester} [delete]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	studentID, err := currentStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	key, err := sectionKeyFromPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.enrollments.Drop(c.Request.Context(), studentID, key); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List my enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/me/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	studentID, err := currentStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollments, err := h.enrollments.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Schedule godoc
// @Summary My weekly schedule
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/me/schedule [get]
func (h *EnrollmentHandler) Schedule(c *gin.Context) {
	studentID, err := currentStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.enrollments.Schedule(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func (h *EnrollmentHandler) countEnroll(err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case err == nil:
		h.metrics.CountEnrollAttempt("enrolled")
	case appErrors.HasCode(err, appErrors.ErrConflict):
		h.metrics.CountEnrollAttempt("rejected")
	case appErrors.HasCode(err, appErrors.ErrNotFound):
		h.metrics.CountEnrollAttempt("not_found")
	default:
		h.metrics.CountEnrollAttempt("error")
	}
}
