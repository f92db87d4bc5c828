package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/registrar-api/internal/models"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
	"github.com/uniportal/registrar-api/pkg/export"
)

type mockGradeRepo struct {
	grades map[string]*models.Grade
	graded []models.GradedCourse
	roster []models.RosterEntry
}

func gradeKeyString(key models.GradeKey) string {
	return key.StudentID + "|" + key.SectionKey().String()
}

func (m *mockGradeRepo) FindByKey(ctx context.Context, key models.GradeKey) (*models.Grade, error) {
	if g, ok := m.grades[gradeKeyString(key)]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	if m.grades == nil {
		m.grades = make(map[string]*models.Grade)
	}
	grade.ID = "grade-1"
	m.grades[gradeKeyString(grade.GradeKey)] = grade
	return nil
}

func (m *mockGradeRepo) UpdateByKey(ctx context.Context, key models.GradeKey, letter string) error {
	g, ok := m.grades[gradeKeyString(key)]
	if !ok {
		return sql.ErrNoRows
	}
	g.Letter = letter
	return nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id string) error {
	for k, g := range m.grades {
		if g.ID == id {
			delete(m.grades, k)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, int, error) {
	var out []models.Grade
	for _, g := range m.grades {
		out = append(out, *g)
	}
	return out, len(out), nil
}

func (m *mockGradeRepo) ListGradedCourses(ctx context.Context, studentID string) ([]models.GradedCourse, error) {
	return m.graded, nil
}

func (m *mockGradeRepo) Roster(ctx context.Context, key models.SectionKey) ([]models.RosterEntry, error) {
	return m.roster, nil
}

type mockGradeEnrollments struct {
	enrolled map[string]bool
}

func (m *mockGradeEnrollments) Exists(ctx context.Context, studentID string, key models.SectionKey) (bool, error) {
	return m.enrolled[studentID+"|"+key.String()], nil
}

type mockGradeDirectory struct {
	students map[string]*models.Student
}

func (m *mockGradeDirectory) FindStudent(ctx context.Context, studentID string) (*models.Student, error) {
	if s, ok := m.students[studentID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func newGradeService(grades *mockGradeRepo, enrolled *mockGradeEnrollments, directory *mockGradeDirectory) *GradeService {
	if directory == nil {
		directory = &mockGradeDirectory{}
	}
	return NewGradeService(grades, enrolled, directory, export.NewCSVExporter(), export.NewPDFExporter(), nil, nil)
}

func sampleGradeRequest(letter string) GradeRequest {
	return GradeRequest{
		StudentID: "S-1001",
		CourseID:  "CS-101",
		SecID:     "1",
		Semester:  "Fall",
		Year:      2026,
		Letter:    letter,
	}
}

func TestGradeServicePost(t *testing.T) {
	grades := &mockGradeRepo{}
	enrolled := &mockGradeEnrollments{enrolled: map[string]bool{"S-1001|CS-101/1 Fall 2026": true}}
	svc := newGradeService(grades, enrolled, nil)

	grade, err := svc.Post(context.Background(), sampleGradeRequest("A-"))
	require.NoError(t, err)
	assert.Equal(t, "A-", grade.Letter)
	assert.Equal(t, "grade-1", grade.ID)
}

func TestGradeServicePostRequiresEnrollment(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, nil)

	// absent enrollment is a missing referent, not a conflict
	_, err := svc.Post(context.Background(), sampleGradeRequest("A"))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestGradeServicePostRejectsUnknownLetter(t *testing.T) {
	enrolled := &mockGradeEnrollments{enrolled: map[string]bool{"S-1001|CS-101/1 Fall 2026": true}}
	svc := newGradeService(&mockGradeRepo{}, enrolled, nil)

	_, err := svc.Post(context.Background(), sampleGradeRequest("E"))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestGradeServicePostRejectsDuplicate(t *testing.T) {
	enrolled := &mockGradeEnrollments{enrolled: map[string]bool{"S-1001|CS-101/1 Fall 2026": true}}
	grades := &mockGradeRepo{}
	svc := newGradeService(grades, enrolled, nil)

	_, err := svc.Post(context.Background(), sampleGradeRequest("B"))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), sampleGradeRequest("A"))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestGradeServiceUpdateWorksAfterDrop(t *testing.T) {
	grades := &mockGradeRepo{grades: map[string]*models.Grade{
		"S-1001|CS-101/1 Fall 2026": {ID: "grade-1", GradeKey: models.GradeKey{StudentID: "S-1001", CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}, Letter: "C"},
	}}
	// no live enrollment: the student dropped, the grade stays correctable
	svc := newGradeService(grades, &mockGradeEnrollments{}, nil)

	grade, err := svc.Update(context.Background(), sampleGradeRequest("B-"))
	require.NoError(t, err)
	assert.Equal(t, "B-", grade.Letter)
}

func TestGradeServiceGPAWeightsByCredits(t *testing.T) {
	grades := &mockGradeRepo{graded: []models.GradedCourse{
		{CourseID: "CS-101", Credits: 4, Letter: "A"},  // 16.0
		{CourseID: "MATH-201", Credits: 3, Letter: "B"}, // 9.0
		{CourseID: "HIST-110", Credits: 2, Letter: "C+"}, // 4.6
	}}
	svc := newGradeService(grades, &mockGradeEnrollments{}, nil)

	summary, err := svc.GPA(context.Background(), "S-1001")
	require.NoError(t, err)
	assert.Equal(t, 9, summary.TotalCredits)
	assert.Equal(t, 3, summary.CourseCount)
	assert.InDelta(t, 29.6/9.0, summary.GPA, 1e-9)
}

func TestGradeServiceGPANoCredits(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, nil)

	summary, err := svc.GPA(context.Background(), "S-1001")
	require.NoError(t, err)
	assert.Zero(t, summary.GPA)
	assert.Zero(t, summary.TotalCredits)
}

func TestGradeServiceTranscriptCSV(t *testing.T) {
	grades := &mockGradeRepo{graded: []models.GradedCourse{
		{CourseID: "CS-101", CourseName: "Intro to Computer Science", SecID: "1", Semester: "Fall", Year: 2026, Credits: 4, Letter: "A"},
	}}
	directory := &mockGradeDirectory{students: map[string]*models.Student{
		"S-1001": {StudentID: "S-1001", StudentName: "Alice Chen", DeptName: "CS"},
	}}
	svc := newGradeService(grades, &mockGradeEnrollments{}, directory)

	payload, contentType, err := svc.Transcript(context.Background(), "S-1001", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.Contains(t, body, "CS-101")
	assert.Contains(t, body, "GPA: 4.00")
	assert.Contains(t, body, "Alice Chen")
}

func TestGradeServiceTranscriptUnknownStudent(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, &mockGradeDirectory{})

	_, _, err := svc.Transcript(context.Background(), "S-404", "csv")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestGradeServiceTranscriptRejectsFormat(t *testing.T) {
	directory := &mockGradeDirectory{students: map[string]*models.Student{
		"S-1001": {StudentID: "S-1001", StudentName: "Alice Chen"},
	}}
	svc := newGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, directory)

	_, _, err := svc.Transcript(context.Background(), "S-1001", "xlsx")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestGradeServiceRoster(t *testing.T) {
	letter := "A"
	grades := &mockGradeRepo{roster: []models.RosterEntry{
		{StudentID: "S-1001", StudentName: "Alice Chen", Letter: &letter},
		{StudentID: "S-2002", StudentName: "Bob Diaz"},
	}}
	svc := newGradeService(grades, &mockGradeEnrollments{}, nil)

	key := models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}
	roster, err := svc.Roster(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Nil(t, roster[1].Letter)
}

func TestGradeServiceTranscriptPDF(t *testing.T) {
	directory := &mockGradeDirectory{students: map[string]*models.Student{
		"S-1001": {StudentID: "S-1001", StudentName: "Alice Chen"},
	}}
	svc := newGradeService(&mockGradeRepo{}, &mockGradeEnrollments{}, directory)

	payload, contentType, err := svc.Transcript(context.Background(), "S-1001", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}
