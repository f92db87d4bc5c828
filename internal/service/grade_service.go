package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniportal/registrar-api/internal/models"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
	"github.com/uniportal/registrar-api/pkg/export"
)

type gradeRepository interface {
	FindByKey(ctx context.Context, key models.GradeKey) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	UpdateByKey(ctx context.Context, key models.GradeKey, letter string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, int, error)
	ListGradedCourses(ctx context.Context, studentID string) ([]models.GradedCourse, error)
	Roster(ctx context.Context, key models.SectionKey) ([]models.RosterEntry, error)
}

type gradeEnrollmentRepository interface {
	Exists(ctx context.Context, studentID string, key models.SectionKey) (bool, error)
}

type gradeDirectoryRepository interface {
	FindStudent(ctx context.Context, studentID string) (*models.Student, error)
}

type transcriptExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

// GradeRequest carries a grade posting or correction.
type GradeRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	SecID     string `json:"sec_id" validate:"required"`
	Semester  string `json:"semester" validate:"required"`
	Year      int    `json:"year" validate:"required"`
	Letter    string `json:"grade" validate:"required"`
}

// GPASummary is the credit-weighted grade-point average of a student.
type GPASummary struct {
	StudentID    string  `json:"student_id"`
	GPA          float64 `json:"gpa"`
	TotalCredits int     `json:"total_credits"`
	CourseCount  int     `json:"course_count"`
}

// GradeService owns the grade ledger: a grade exists only against a live or
// historical enrollment, letters come from the fixed scale, and GPA is the
// credit-weighted mean of posted grades.
type GradeService struct {
	grades      gradeRepository
	enrollments gradeEnrollmentRepository
	directory   gradeDirectoryRepository
	csv         transcriptExporter
	pdf         transcriptExporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeRepository, enrollments gradeEnrollmentRepository, directory gradeDirectoryRepository, csv, pdf transcriptExporter, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:      grades,
		enrollments: enrollments,
		directory:   directory,
		csv:         csv,
		pdf:         pdf,
		validator:   validate,
		logger:      logger,
	}
}

// Post records a new grade for an enrollment that has none yet.
func (s *GradeService) Post(ctx context.Context, req GradeRequest) (*models.Grade, error) {
	key, err := s.checkRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.grades.FindByKey(ctx, key); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grade already posted; use update instead")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing grade")
	}

	grade := &models.Grade{GradeKey: key, Letter: req.Letter}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to post grade")
	}
	s.logger.Info("grade posted",
		zap.String("student_id", key.StudentID),
		zap.String("section", key.SectionKey().String()),
		zap.String("grade", req.Letter))
	return grade, nil
}

// Update corrects an already posted grade in place. No enrollment check
// here: a retained grade stays correctable after the student dropped.
func (s *GradeService) Update(ctx context.Context, req GradeRequest) (*models.Grade, error) {
	key, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.grades.UpdateByKey(ctx, key, req.Letter); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	grade, err := s.grades.FindByKey(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload grade")
	}
	return grade, nil
}

// Delete removes a grade record by its id.
func (s *GradeService) Delete(ctx context.Context, id string) error {
	if err := s.grades.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}

// List returns grade records for the admin view.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error) {
	grades, total, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return grades, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Roster returns the section roster with posted grades for the grading view.
func (s *GradeService) Roster(ctx context.Context, key models.SectionKey) ([]models.RosterEntry, error) {
	roster, err := s.grades.Roster(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// StudentGrades returns a student's graded courses.
func (s *GradeService) StudentGrades(ctx context.Context, studentID string) ([]models.GradedCourse, error) {
	rows, err := s.grades.ListGradedCourses(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return rows, nil
}

// GPA computes the credit-weighted grade-point average over every posted
// grade. A student with no graded credits gets 0.
func (s *GradeService) GPA(ctx context.Context, studentID string) (*GPASummary, error) {
	rows, err := s.grades.ListGradedCourses(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	summary := &GPASummary{StudentID: studentID}
	var weighted float64
	for _, row := range rows {
		points, ok := models.GradePoint(row.Letter)
		if !ok {
			s.logger.Warn("skipping grade outside scale",
				zap.String("student_id", studentID),
				zap.String("course_id", row.CourseID),
				zap.String("grade", row.Letter))
			continue
		}
		weighted += points * float64(row.Credits)
		summary.TotalCredits += row.Credits
		summary.CourseCount++
	}
	if summary.TotalCredits > 0 {
		summary.GPA = weighted / float64(summary.TotalCredits)
	}
	return summary, nil
}

// Transcript renders the student's graded courses plus GPA totals in the
// requested format, csv or pdf.
func (s *GradeService) Transcript(ctx context.Context, studentID, format string) ([]byte, string, error) {
	student, err := s.directory.FindStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	rows, err := s.grades.ListGradedCourses(ctx, studentID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	summary, err := s.GPA(ctx, studentID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Title:   "Academic Transcript",
		Headers: []string{"Course", "Title", "Section", "Semester", "Year", "Credits", "Grade"},
		Summary: []string{
			fmt.Sprintf("Student: %s (%s)", student.StudentName, student.StudentID),
			fmt.Sprintf("Total credits: %d", summary.TotalCredits),
			fmt.Sprintf("GPA: %.2f", summary.GPA),
		},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":   row.CourseID,
			"Title":    row.CourseName,
			"Section":  row.SecID,
			"Semester": row.Semester,
			"Year":     strconv.Itoa(row.Year),
			"Credits":  strconv.Itoa(row.Credits),
			"Grade":    row.Letter,
		})
	}

	var exporter transcriptExporter
	var contentType string
	switch format {
	case "pdf":
		exporter = s.pdf
		contentType = "application/pdf"
	case "", "csv":
		exporter = s.csv
		contentType = "text/csv"
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported transcript format")
	}
	payload, err := exporter.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}
	return payload, contentType, nil
}

func (s *GradeService) parseRequest(req GradeRequest) (models.GradeKey, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.GradeKey{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if !models.ValidLetter(req.Letter) {
		return models.GradeKey{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade %q is not on the letter scale", req.Letter))
	}
	return models.GradeKey{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		SecID:     req.SecID,
		Semester:  req.Semester,
		Year:      req.Year,
	}, nil
}

func (s *GradeService) checkRequest(ctx context.Context, req GradeRequest) (models.GradeKey, error) {
	key, err := s.parseRequest(req)
	if err != nil {
		return models.GradeKey{}, err
	}
	ok, err := s.enrollments.Exists(ctx, key.StudentID, key.SectionKey())
	if err != nil {
		return models.GradeKey{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !ok {
		return models.GradeKey{}, appErrors.Clone(appErrors.ErrNotFound, "no enrollment found for this student and section")
	}
	return key, nil
}
