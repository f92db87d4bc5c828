package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/registrar-api/internal/service"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
	"github.com/uniportal/registrar-api/pkg/response"
)

// DirectoryHandler exposes admin registration and directory lookups.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// RegisterStudent godoc
// @Summary Register a student with an account
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body service.RegisterStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /register/student [post]
func (h *DirectoryHandler) RegisterStudent(c *gin.Context) {
	var req service.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.directory.RegisterStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// RegisterTeacher godoc
// @Summary Register a teacher with an account
// @Tags Directory
// @Accept json
// @Produce json
// @Param payload body service.RegisterTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /register/teacher [post]
func (h *DirectoryHandler) RegisterTeacher(c *gin.Context) {
	var req service.RegisterTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.directory.RegisterTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// NextUserID godoc
// @Summary Next user id to be issued
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/max-id [get]
func (h *DirectoryHandler) NextUserID(c *gin.Context) {
	next, err := h.directory.NextUserID(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"next_user_id": next}, nil)
}

// GetStudent godoc
// @Summary Get a student profile
// @Tags Directory
// @Produce json
// @Param studentId path string true "Student id"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId} [get]
func (h *DirectoryHandler) GetStudent(c *gin.Context) {
	student, err := h.directory.GetStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// GetTeacher godoc
// @Summary Get a teacher profile
// @Tags Directory
// @Produce json
// @Param teacherId path string true "Teacher id"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacherId} [get]
func (h *DirectoryHandler) GetTeacher(c *gin.Context) {
	teacher, err := h.directory.GetTeacher(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}
