package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/registrar-api/internal/middleware"
	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/service"
)

type enrollRepoStub struct {
	enrollErr error
	dropped   []models.SectionKey
}

func (s *enrollRepoStub) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	if s.enrollErr != nil {
		return s.enrollErr
	}
	enrollment.ID = "enroll-1"
	return nil
}

func (s *enrollRepoStub) Drop(ctx context.Context, studentID string, key models.SectionKey) error {
	s.dropped = append(s.dropped, key)
	return nil
}

func (s *enrollRepoStub) Exists(ctx context.Context, studentID string, key models.SectionKey) (bool, error) {
	return false, nil
}

func (s *enrollRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	return []models.EnrollmentDetail{{Enrollment: models.Enrollment{StudentID: studentID, CourseID: "CS-101"}}}, nil
}

func (s *enrollRepoStub) Schedule(ctx context.Context, studentID string) ([]models.ScheduleEntry, error) {
	return nil, nil
}

type studentDirStub struct{}

func (studentDirStub) StudentExists(ctx context.Context, studentID string) (bool, error) {
	return true, nil
}

func newEnrollmentHandler(repo *enrollRepoStub) *EnrollmentHandler {
	svc := service.NewEnrollmentService(repo, studentDirStub{}, nil, nil)
	return NewEnrollmentHandler(svc, nil)
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: 10042, Username: "AliceChen_S-1001", Role: models.RoleStudent, SubjectID: "S-1001"}
}

func TestEnrollmentHandlerEnroll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollRepoStub{})

	payload, _ := json.Marshal(service.EnrollmentRequest{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/students/enroll", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Enroll(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "enroll-1")
}

func TestEnrollmentHandlerEnrollInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/students/enroll", bytes.NewBufferString(`{"course_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Enroll(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerEnrollRequiresStudentIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/students/enroll", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 1, Username: "admin", Role: models.RoleAdmin})

	handler.Enroll(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestEnrollmentHandlerDrop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollRepoStub{}
	handler := newEnrollmentHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/students/me/enrollments/CS-101/1/2026/Fall", nil)
	c.Request = req
	c.Params = gin.Params{
		{Key: "courseId", Value: "CS-101"},
		{Key: "secId", Value: "1"},
		{Key: "year", Value: "2026"},
		{Key: "semester", Value: "Fall"},
	}
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Drop(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, repo.dropped, 1)
	assert.Equal(t, models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}, repo.dropped[0])
}

func TestEnrollmentHandlerDropBadYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/students/me/enrollments/CS-101/1/next/Fall", nil)
	c.Request = req
	c.Params = gin.Params{
		{Key: "courseId", Value: "CS-101"},
		{Key: "secId", Value: "1"},
		{Key: "year", Value: "next"},
		{Key: "semester", Value: "Fall"},
	}
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Drop(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/me/enrollments", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CS-101")
}
