package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/service"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
	"github.com/uniportal/registrar-api/pkg/response"
)

// GradeHandler exposes the grade ledger: teacher grading, student views and
// the admin listing.
type GradeHandler struct {
	grades  *service.GradeService
	metrics *service.MetricsService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService, metrics *service.MetricsService) *GradeHandler {
	return &GradeHandler{grades: grades, metrics: metrics}
}

// Roster godoc
// @Summary Section roster with posted grades
// @Tags Grades
// @Produce json
// @Param courseId path string true "Course id"
// @Param secId path string true "Section id"
// @Param year path int true "Year"
// @Param semester path string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /teachers/course-grades/{courseId}/{secId}/{year}/{semester} [get]
func (h *GradeHandler) Roster(c *gin.Context) {
	key, err := sectionKeyFromPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	roster, err := h.grades.Roster(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Post godoc
// @Summary Post a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Router /teachers/grades [post]
func (h *GradeHandler) Post(c *gin.Context) {
	var req service.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Post(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.CountGradePosted()
	}
	response.Created(c, grade)
}

// Update godoc
// @Summary Correct a posted grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param studentId path string true "Student id"
// @Param courseId path string true "Course id"
// @Param secId path string true "Section id"
// @Param year path int true "Year"
// @Param semester path string true "Semester"
// @Param payload body object true "New letter"
// @Success 200 {object} response.Envelope
// @Router /teachers/grades/{studentId}/{courseId}/{secId}/{year}/{semester} [put]
func (h *GradeHandler) Update(c *gin.Context) {
	key, err := sectionKeyFromPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var body struct {
		Letter string `json:"grade" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req := service.GradeRequest{
		StudentID: c.Param("studentId"),
		CourseID:  key.CourseID,
		SecID:     key.SecID,
		Semester:  key.Semester,
		Year:      key.Year,
		Letter:    body.Letter,
	}
	grade, err := h.grades.Update(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.CountGradePosted()
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// List godoc
// @Summary List grade records
// @Tags Grades
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param course_id query string false "Filter by course"
// @Param semester query string false "Filter by semester"
// @Param year query int false "Filter by year"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	year, _ := strconv.Atoi(c.Query("year"))
	filter := models.GradeFilter{
		StudentID: c.Query("student_id"),
		CourseID:  c.Query("course_id"),
		Semester:  c.Query("semester"),
		Year:      year,
		Page:      page,
		PageSize:  size,
	}
	grades, pagination, err := h.grades.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, pagination)
}

// Delete godoc
// @Summary Delete a grade record
// @Tags Grades
// @Param id path string true "Grade id"
// @Success 204 "No Content"
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	if err := h.grades.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MyGrades godoc
// @Summary My graded courses
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/me/grades [get]
func (h *GradeHandler) MyGrades(c *gin.Context) {
	studentID, err := currentStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.grades.StudentGrades(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// MyGPA godoc
// @Summary My credit-weighted GPA
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/me/gpa [get]
func (h *GradeHandler) MyGPA(c *gin.Context) {
	studentID, err := currentStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.grades.GPA(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// MyTranscript godoc
// @Summary Download my transcript
// @Tags Grades
// @Produce text/csv
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /students/me/transcript [get]
func (h *GradeHandler) MyTranscript(c *gin.Context) {
	studentID, err := currentStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.grades.Transcript(c.Request.Context(), studentID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("transcript_%s.%s", studentID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
