package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniportal/registrar-api/internal/models"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
)

type catalogRepository interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	DepartmentExists(ctx context.Context, deptName string) (bool, error)
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindCourse(ctx context.Context, courseID string) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, courseID string) error
	CountSectionsForCourse(ctx context.Context, courseID string) (int, error)
	ListClassrooms(ctx context.Context) ([]models.Classroom, error)
	RoomsForBuilding(ctx context.Context, building string) ([]string, error)
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Cache keys for reference data.
const (
	cacheKeyDepartments = "catalog:departments"
	cacheKeyClassrooms  = "catalog:classrooms"
	cacheKeyTimeSlots   = "catalog:timeslots"
)

// CourseRequest describes course create/update payloads.
type CourseRequest struct {
	CourseID   string `json:"course_id" validate:"required"`
	CourseName string `json:"course_name" validate:"required"`
	DeptName   string `json:"dept_name" validate:"required"`
	Credits    int    `json:"credits" validate:"required,gt=0"`
}

// CatalogService serves departments, courses, classrooms and time slots.
// Read paths tolerate staleness and go through the cache; writes invalidate.
type CatalogService struct {
	repo      catalogRepository
	cache     catalogCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(repo catalogRepository, cache catalogCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &CatalogService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// ListDepartments returns all departments.
func (s *CatalogService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	if s.cache != nil {
		var cached []models.Department
		if err := s.cache.Get(ctx, cacheKeyDepartments, &cached); err == nil {
			return cached, nil
		}
	}
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	s.cacheSet(ctx, cacheKeyDepartments, departments)
	return departments, nil
}

// ListCourses returns courses with pagination metadata.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.ListCourses(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetCourse returns one course.
func (s *CatalogService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.repo.FindCourse(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// CreateCourse adds a course to the catalog.
func (s *CatalogService) CreateCourse(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.repo.FindCourse(ctx, req.CourseID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already exists")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course")
	}
	ok, err := s.repo.DepartmentExists(ctx, req.DeptName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
	}
	course := &models.Course{CourseID: req.CourseID, CourseName: req.CourseName, DeptName: req.DeptName, Credits: req.Credits}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	return course, nil
}

// UpdateCourse rewrites a course. Credits become immutable once sections
// reference the course; grades already posted would silently reweight GPAs
// otherwise.
func (s *CatalogService) UpdateCourse(ctx context.Context, courseID string, req CourseRequest) (*models.Course, error) {
	req.CourseID = courseID
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	existing, err := s.repo.FindCourse(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if req.Credits != existing.Credits {
		refs, err := s.repo.CountSectionsForCourse(ctx, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check sections")
		}
		if refs > 0 {
			return nil, appErrors.Clone(appErrors.ErrConflict, "credits are immutable while sections reference the course")
		}
	}
	ok, err := s.repo.DepartmentExists(ctx, req.DeptName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
	}
	course := &models.Course{CourseID: courseID, CourseName: req.CourseName, DeptName: req.DeptName, Credits: req.Credits}
	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)
	return course, nil
}

// DeleteCourse removes a course that no section references.
func (s *CatalogService) DeleteCourse(ctx context.Context, courseID string) error {
	refs, err := s.repo.CountSectionsForCourse(ctx, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check sections")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "course has sections; delete them first")
	}
	if err := s.repo.DeleteCourse(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidate(ctx)
	return nil
}

// ListClassrooms returns the classroom catalog.
func (s *CatalogService) ListClassrooms(ctx context.Context) ([]models.Classroom, error) {
	if s.cache != nil {
		var cached []models.Classroom
		if err := s.cache.Get(ctx, cacheKeyClassrooms, &cached); err == nil {
			return cached, nil
		}
	}
	classrooms, err := s.repo.ListClassrooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	s.cacheSet(ctx, cacheKeyClassrooms, classrooms)
	return classrooms, nil
}

// RoomsForBuilding returns the distinct rooms available in a building,
// constraining the client's dependent room select.
func (s *CatalogService) RoomsForBuilding(ctx context.Context, building string) ([]string, error) {
	if building == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "building is required")
	}
	if s.cache != nil {
		var cached []string
		if err := s.cache.Get(ctx, roomsCacheKey(building), &cached); err == nil {
			return cached, nil
		}
	}
	rooms, err := s.repo.RoomsForBuilding(ctx, building)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	s.cacheSet(ctx, roomsCacheKey(building), rooms)
	return rooms, nil
}

// ListTimeSlots returns the time-slot catalog.
func (s *CatalogService) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	if s.cache != nil {
		var cached []models.TimeSlot
		if err := s.cache.Get(ctx, cacheKeyTimeSlots, &cached); err == nil {
			return cached, nil
		}
	}
	slots, err := s.repo.ListTimeSlots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	s.cacheSet(ctx, cacheKeyTimeSlots, slots)
	return slots, nil
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache catalog data", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

func roomsCacheKey(building string) string {
	return fmt.Sprintf("catalog:rooms:%s", building)
}
