package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/repository"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
)

type mockEnrollRepo struct {
	enrollErr error
	dropErr   error
	enrolled  *models.Enrollment
}

func (m *mockEnrollRepo) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollErr != nil {
		return m.enrollErr
	}
	enrollment.ID = "enroll-1"
	m.enrolled = enrollment
	return nil
}

func (m *mockEnrollRepo) Drop(ctx context.Context, studentID string, key models.SectionKey) error {
	return m.dropErr
}

func (m *mockEnrollRepo) Exists(ctx context.Context, studentID string, key models.SectionKey) (bool, error) {
	return false, nil
}

func (m *mockEnrollRepo) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

func (m *mockEnrollRepo) Schedule(ctx context.Context, studentID string) ([]models.ScheduleEntry, error) {
	return nil, nil
}

type mockStudentDirectory struct {
	known map[string]bool
}

func (m *mockStudentDirectory) StudentExists(ctx context.Context, studentID string) (bool, error) {
	return m.known[studentID], nil
}

func newEnrollmentService(repo *mockEnrollRepo) *EnrollmentService {
	directory := &mockStudentDirectory{known: map[string]bool{"S-1001": true}}
	return NewEnrollmentService(repo, directory, nil, nil)
}

func validEnrollmentRequest() EnrollmentRequest {
	return EnrollmentRequest{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollRepo{}
	svc := newEnrollmentService(repo)

	enrollment, err := svc.Enroll(context.Background(), "S-1001", validEnrollmentRequest())
	require.NoError(t, err)
	assert.Equal(t, "enroll-1", enrollment.ID)
	assert.Equal(t, "S-1001", repo.enrolled.StudentID)
}

func TestEnrollmentServiceEnrollUnknownStudent(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollRepo{})

	_, err := svc.Enroll(context.Background(), "S-404", validEnrollmentRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestEnrollmentServiceEnrollSectionFull(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollRepo{enrollErr: repository.ErrSectionFull})

	_, err := svc.Enroll(context.Background(), "S-1001", validEnrollmentRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollRepo{enrollErr: repository.ErrAlreadyEnrolled})

	_, err := svc.Enroll(context.Background(), "S-1001", validEnrollmentRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestEnrollmentServiceEnrollMissingSection(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollRepo{enrollErr: sql.ErrNoRows})

	_, err := svc.Enroll(context.Background(), "S-1001", validEnrollmentRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestEnrollmentServiceDropNotEnrolled(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollRepo{dropErr: sql.ErrNoRows})

	key := models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}
	err := svc.Drop(context.Background(), "S-1001", key)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
