package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/repository"
	"github.com/uniportal/registrar-api/pkg/config"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
)

type sectionRepository interface {
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, key models.SectionKey, cascade bool) error
	Find(ctx context.Context, key models.SectionKey) (*models.SectionDetail, error)
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error)
}

type sectionCatalogRepository interface {
	FindCourse(ctx context.Context, courseID string) (*models.Course, error)
	ClassroomExists(ctx context.Context, building, roomNumber string) (bool, error)
	TimeSlotExists(ctx context.Context, timeSlotID string) (bool, error)
}

type sectionEnrollmentRepository interface {
	ListBySection(ctx context.Context, key models.SectionKey) ([]models.EnrollmentDetail, error)
}

// SectionRequest describes section create/update payloads. Location fields
// travel together: either all three are present or all three are absent.
type SectionRequest struct {
	CourseID   string  `json:"course_id" validate:"required"`
	SecID      string  `json:"sec_id" validate:"required"`
	Semester   string  `json:"semester" validate:"required,oneof=Spring Summer Fall Winter"`
	Year       int     `json:"year" validate:"required,gte=1900,lte=2100"`
	Building   *string `json:"building"`
	RoomNumber *string `json:"room_number"`
	TimeSlotID *string `json:"time_slot_id"`
	Capacity   *int    `json:"capacity" validate:"omitempty,gt=0"`
}

// SectionService owns section lifecycle rules: key uniqueness, room and
// time-slot collision, location validity against the live catalog, and the
// delete policy toward existing enrollments.
type SectionService struct {
	sections     sectionRepository
	catalog      sectionCatalogRepository
	enrollments  sectionEnrollmentRepository
	deletePolicy string
	defaultCap   int
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(sections sectionRepository, catalog sectionCatalogRepository, enrollments sectionEnrollmentRepository, cfg config.SectionsConfig, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := cfg.DeletePolicy
	if policy != config.DeletePolicyCascade {
		policy = config.DeletePolicyReject
	}
	defaultCap := cfg.DefaultCapacity
	if defaultCap <= 0 {
		defaultCap = 30
	}
	return &SectionService{
		sections:     sections,
		catalog:      catalog,
		enrollments:  enrollments,
		deletePolicy: policy,
		defaultCap:   defaultCap,
		validator:    validate,
		logger:       logger,
	}
}

// Create offers a new section. The course must exist, the location must name
// a live classroom and time slot, and the (room, slot, term) tuple must be
// free.
func (s *SectionService) Create(ctx context.Context, req SectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section, err := s.buildSection(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.sections.Create(ctx, section); err != nil {
		switch {
		case errors.Is(err, repository.ErrSectionExists):
			return nil, appErrors.Clone(appErrors.ErrConflict, "section already exists for this term")
		case errors.Is(err, repository.ErrRoomTimeTaken):
			return nil, appErrors.Clone(appErrors.ErrConflict, "room is already booked for this time slot")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
		}
	}
	s.logger.Info("section created",
		zap.String("course_id", section.CourseID),
		zap.String("sec_id", section.SecID),
		zap.String("semester", section.Semester),
		zap.Int("year", section.Year))
	return section, nil
}

// Update rewrites the mutable attributes of a section identified by its key.
func (s *SectionService) Update(ctx context.Context, key models.SectionKey, req SectionRequest) (*models.Section, error) {
	req.CourseID = key.CourseID
	req.SecID = key.SecID
	req.Semester = key.Semester
	req.Year = key.Year
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section, err := s.buildSection(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.sections.Update(ctx, section); err != nil {
		switch {
		case err == sql.ErrNoRows:
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		case errors.Is(err, repository.ErrRoomTimeTaken):
			return nil, appErrors.Clone(appErrors.ErrConflict, "room is already booked for this time slot")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
		}
	}
	return section, nil
}

// Delete removes a section under the configured enrollment policy: reject
// refuses while enrollments exist, cascade removes enrollments and their
// grades with the section.
func (s *SectionService) Delete(ctx context.Context, key models.SectionKey) error {
	cascade := s.deletePolicy == config.DeletePolicyCascade
	if err := s.sections.Delete(ctx, key, cascade); err != nil {
		switch {
		case err == sql.ErrNoRows:
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		case errors.Is(err, repository.ErrHasEnrollments):
			return appErrors.Clone(appErrors.ErrConflict, "section has enrollments; drop them first")
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
		}
	}
	s.logger.Info("section deleted", zap.String("section", key.String()), zap.Bool("cascade", cascade))
	return nil
}

// Get returns one section with course info and the derived enrolled count.
func (s *SectionService) Get(ctx context.Context, key models.SectionKey) (*models.SectionDetail, error) {
	detail, err := s.sections.Find(ctx, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return detail, nil
}

// List returns sections matching the filter with pagination metadata.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	sections, total, err := s.sections.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sections, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Roster returns the enrolled students of a section.
func (s *SectionService) Roster(ctx context.Context, key models.SectionKey) ([]models.EnrollmentDetail, error) {
	if _, err := s.sections.Find(ctx, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	roster, err := s.enrollments.ListBySection(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

func (s *SectionService) buildSection(ctx context.Context, req SectionRequest) (*models.Section, error) {
	if _, err := s.catalog.FindCourse(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course")
	}

	hasBuilding := req.Building != nil && *req.Building != ""
	hasRoom := req.RoomNumber != nil && *req.RoomNumber != ""
	hasSlot := req.TimeSlotID != nil && *req.TimeSlotID != ""
	if hasBuilding != hasRoom || hasRoom != hasSlot {
		return nil, appErrors.Clone(appErrors.ErrValidation, "building, room_number and time_slot_id must be set together")
	}
	if hasBuilding {
		ok, err := s.catalog.ClassroomExists(ctx, *req.Building, *req.RoomNumber)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check classroom")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("classroom %s %s does not exist", *req.Building, *req.RoomNumber))
		}
		ok, err = s.catalog.TimeSlotExists(ctx, *req.TimeSlotID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check time slot")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time slot %s does not exist", *req.TimeSlotID))
		}
	}

	capacity := s.defaultCap
	if req.Capacity != nil {
		capacity = *req.Capacity
	}

	section := &models.Section{
		SectionKey: models.SectionKey{
			CourseID: req.CourseID,
			SecID:    req.SecID,
			Semester: req.Semester,
			Year:     req.Year,
		},
		Capacity: capacity,
	}
	if hasBuilding {
		section.Building = req.Building
		section.RoomNumber = req.RoomNumber
		section.TimeSlotID = req.TimeSlotID
	}
	return section, nil
}
