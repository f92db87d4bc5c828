package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/repository"
	"github.com/uniportal/registrar-api/pkg/config"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
)

type mockSectionRepo struct {
	sections  map[string]*models.SectionDetail
	createErr error
	updateErr error
	deleteErr error
	created   *models.Section
	cascade   *bool
}

func (m *mockSectionRepo) Create(ctx context.Context, section *models.Section) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = section
	return nil
}

func (m *mockSectionRepo) Update(ctx context.Context, section *models.Section) error {
	return m.updateErr
}

func (m *mockSectionRepo) Delete(ctx context.Context, key models.SectionKey, cascade bool) error {
	m.cascade = &cascade
	return m.deleteErr
}

func (m *mockSectionRepo) Find(ctx context.Context, key models.SectionKey) (*models.SectionDetail, error) {
	if s, ok := m.sections[key.String()]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSectionRepo) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	var out []models.SectionDetail
	for _, s := range m.sections {
		out = append(out, *s)
	}
	return out, len(out), nil
}

type mockSectionCatalog struct {
	courses    map[string]*models.Course
	classrooms map[string]bool
	slots      map[string]bool
}

func (m *mockSectionCatalog) FindCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if c, ok := m.courses[courseID]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSectionCatalog) ClassroomExists(ctx context.Context, building, roomNumber string) (bool, error) {
	return m.classrooms[building+"/"+roomNumber], nil
}

func (m *mockSectionCatalog) TimeSlotExists(ctx context.Context, timeSlotID string) (bool, error) {
	return m.slots[timeSlotID], nil
}

type mockSectionEnrollments struct {
	roster []models.EnrollmentDetail
}

func (m *mockSectionEnrollments) ListBySection(ctx context.Context, key models.SectionKey) ([]models.EnrollmentDetail, error) {
	return m.roster, nil
}

func defaultSectionCatalog() *mockSectionCatalog {
	return &mockSectionCatalog{
		courses:    map[string]*models.Course{"CS-101": {CourseID: "CS-101", Credits: 4}},
		classrooms: map[string]bool{"Watson/120": true},
		slots:      map[string]bool{"A": true},
	}
}

func newSectionService(repo *mockSectionRepo, catalog *mockSectionCatalog, cfg config.SectionsConfig) *SectionService {
	if catalog == nil {
		catalog = defaultSectionCatalog()
	}
	return NewSectionService(repo, catalog, &mockSectionEnrollments{}, cfg, nil, nil)
}

func validSectionRequest() SectionRequest {
	building := "Watson"
	room := "120"
	slot := "A"
	return SectionRequest{
		CourseID:   "CS-101",
		SecID:      "1",
		Semester:   "Fall",
		Year:       2026,
		Building:   &building,
		RoomNumber: &room,
		TimeSlotID: &slot,
	}
}

func TestSectionServiceCreateAppliesDefaultCapacity(t *testing.T) {
	repo := &mockSectionRepo{}
	svc := newSectionService(repo, nil, config.SectionsConfig{DefaultCapacity: 25})

	section, err := svc.Create(context.Background(), validSectionRequest())
	require.NoError(t, err)
	assert.Equal(t, 25, section.Capacity)
	require.NotNil(t, repo.created)
	assert.True(t, repo.created.HasLocation())
}

func TestSectionServiceCreatePartialLocationRejected(t *testing.T) {
	svc := newSectionService(&mockSectionRepo{}, nil, config.SectionsConfig{})

	req := validSectionRequest()
	req.TimeSlotID = nil
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestSectionServiceCreateWithoutLocation(t *testing.T) {
	repo := &mockSectionRepo{}
	svc := newSectionService(repo, nil, config.SectionsConfig{})

	req := validSectionRequest()
	req.Building = nil
	req.RoomNumber = nil
	req.TimeSlotID = nil
	section, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, section.HasLocation())
	assert.Equal(t, 30, section.Capacity)
}

func TestSectionServiceCreateStaleClassroom(t *testing.T) {
	catalog := defaultSectionCatalog()
	catalog.classrooms = map[string]bool{}
	svc := newSectionService(&mockSectionRepo{}, catalog, config.SectionsConfig{})

	_, err := svc.Create(context.Background(), validSectionRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestSectionServiceCreateStaleTimeSlot(t *testing.T) {
	catalog := defaultSectionCatalog()
	catalog.slots = map[string]bool{}
	svc := newSectionService(&mockSectionRepo{}, catalog, config.SectionsConfig{})

	_, err := svc.Create(context.Background(), validSectionRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestSectionServiceCreateUnknownCourse(t *testing.T) {
	catalog := defaultSectionCatalog()
	catalog.courses = map[string]*models.Course{}
	svc := newSectionService(&mockSectionRepo{}, catalog, config.SectionsConfig{})

	_, err := svc.Create(context.Background(), validSectionRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestSectionServiceCreateMapsCollision(t *testing.T) {
	repo := &mockSectionRepo{createErr: repository.ErrRoomTimeTaken}
	svc := newSectionService(repo, nil, config.SectionsConfig{})

	_, err := svc.Create(context.Background(), validSectionRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestSectionServiceCreateMapsDuplicateKey(t *testing.T) {
	repo := &mockSectionRepo{createErr: repository.ErrSectionExists}
	svc := newSectionService(repo, nil, config.SectionsConfig{})

	_, err := svc.Create(context.Background(), validSectionRequest())
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestSectionServiceCreateRejectsBadSemester(t *testing.T) {
	svc := newSectionService(&mockSectionRepo{}, nil, config.SectionsConfig{})

	req := validSectionRequest()
	req.Semester = "Autumn"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestSectionServiceDeletePolicyReject(t *testing.T) {
	repo := &mockSectionRepo{deleteErr: repository.ErrHasEnrollments}
	svc := newSectionService(repo, nil, config.SectionsConfig{DeletePolicy: config.DeletePolicyReject})

	key := models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}
	err := svc.Delete(context.Background(), key)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	require.NotNil(t, repo.cascade)
	assert.False(t, *repo.cascade)
}

func TestSectionServiceDeletePolicyCascade(t *testing.T) {
	repo := &mockSectionRepo{}
	svc := newSectionService(repo, nil, config.SectionsConfig{DeletePolicy: config.DeletePolicyCascade})

	key := models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}
	err := svc.Delete(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, repo.cascade)
	assert.True(t, *repo.cascade)
}

func TestSectionServiceDeleteNotFound(t *testing.T) {
	repo := &mockSectionRepo{deleteErr: sql.ErrNoRows}
	svc := newSectionService(repo, nil, config.SectionsConfig{})

	key := models.SectionKey{CourseID: "CS-404", SecID: "1", Semester: "Fall", Year: 2026}
	err := svc.Delete(context.Background(), key)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
