package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/repository"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
)

type enrollmentRepository interface {
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	Drop(ctx context.Context, studentID string, key models.SectionKey) error
	Exists(ctx context.Context, studentID string, key models.SectionKey) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	Schedule(ctx context.Context, studentID string) ([]models.ScheduleEntry, error)
}

type enrollmentDirectoryRepository interface {
	StudentExists(ctx context.Context, studentID string) (bool, error)
}

// EnrollmentRequest identifies the section a student enrolls into or drops.
type EnrollmentRequest struct {
	CourseID string `json:"course_id" validate:"required"`
	SecID    string `json:"sec_id" validate:"required"`
	Semester string `json:"semester" validate:"required"`
	Year     int    `json:"year" validate:"required"`
}

// EnrollmentService manages student registration into sections. Capacity is
// enforced inside the repository transaction; this layer maps the outcome to
// API errors and checks the identities around it.
type EnrollmentService struct {
	enrollments enrollmentRepository
	directory   enrollmentDirectoryRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentRepository, directory enrollmentDirectoryRepository, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{enrollments: enrollments, directory: directory, validator: validate, logger: logger}
}

// Enroll registers the student into the section.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID string, req EnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	ok, err := s.directory.StudentExists(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	enrollment := &models.Enrollment{
		StudentID: studentID,
		CourseID:  req.CourseID,
		SecID:     req.SecID,
		Semester:  req.Semester,
		Year:      req.Year,
	}
	if err := s.enrollments.Enroll(ctx, enrollment); err != nil {
		switch {
		case err == sql.ErrNoRows:
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		case errors.Is(err, repository.ErrAlreadyEnrolled):
			return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this section")
		case errors.Is(err, repository.ErrSectionFull):
			return nil, appErrors.Clone(appErrors.ErrConflict, "section is full")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
		}
	}
	s.logger.Info("student enrolled",
		zap.String("student_id", studentID),
		zap.String("section", enrollment.Key().String()))
	return enrollment, nil
}

// Drop removes the student's enrollment. Any posted grade stays behind as a
// historical record.
func (s *EnrollmentService) Drop(ctx context.Context, studentID string, key models.SectionKey) error {
	if err := s.enrollments.Drop(ctx, studentID, key); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	s.logger.Info("student dropped section",
		zap.String("student_id", studentID),
		zap.String("section", key.String()))
	return nil
}

// ListByStudent returns the student's enrollments with course info.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Schedule returns the student's weekly schedule rows.
func (s *EnrollmentService) Schedule(ctx context.Context, studentID string) ([]models.ScheduleEntry, error) {
	entries, err := s.enrollments.Schedule(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return entries, nil
}
