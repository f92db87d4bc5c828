package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniportal/registrar-api/internal/models"
)

// GradeRepository handles persistence of grade records.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `id, student_id, course_id, sec_id, semester, year, grade, created_at, updated_at`

// FindByKey returns the grade for an enrollment key.
func (r *GradeRepository) FindByKey(ctx context.Context, key models.GradeKey) (*models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades WHERE student_id = $1 AND course_id = $2 AND sec_id = $3 AND semester = $4 AND year = $5 LIMIT 1`, gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, key.StudentID, key.CourseID, key.SecID, key.Semester, key.Year); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create persists a new grade record.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, course_id, sec_id, semester, year, grade, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :sec_id, :semester, :year, :grade, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// UpdateByKey overwrites the letter for an existing grade in place.
func (r *GradeRepository) UpdateByKey(ctx context.Context, key models.GradeKey, letter string) error {
	const query = `UPDATE grades SET grade = $6, updated_at = $7
        WHERE student_id = $1 AND course_id = $2 AND sec_id = $3 AND semester = $4 AND year = $5`
	res, err := r.db.ExecContext(ctx, query, key.StudentID, key.CourseID, key.SecID, key.Semester, key.Year, letter, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a grade by its surrogate id.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM grades WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns grade records filtered for the admin view.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, int, error) {
	base := `FROM grades`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY year DESC, semester, course_id, student_id LIMIT %d OFFSET %d`, gradeColumns, base+clause, size, offset)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return grades, total, nil
}

// ListGradedCourses returns a student's graded rows joined with course
// credits, the input to GPA and transcript computation.
func (r *GradeRepository) ListGradedCourses(ctx context.Context, studentID string) ([]models.GradedCourse, error) {
	const query = `SELECT g.course_id, c.course_name, g.sec_id, g.semester, g.year, c.credits, g.grade
        FROM grades g
        JOIN courses c ON c.course_id = g.course_id
        WHERE g.student_id = $1
        ORDER BY g.year, g.semester, g.course_id`
	var rows []models.GradedCourse
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list graded courses: %w", err)
	}
	return rows, nil
}

// Roster returns every enrolled student of a section with the posted grade
// when present.
func (r *GradeRepository) Roster(ctx context.Context, key models.SectionKey) ([]models.RosterEntry, error) {
	const query = `SELECT e.student_id, st.student_name, g.grade
        FROM enrollments e
        JOIN students st ON st.student_id = e.student_id
        LEFT JOIN grades g ON g.student_id = e.student_id AND g.course_id = e.course_id AND g.sec_id = e.sec_id AND g.semester = e.semester AND g.year = e.year
        WHERE e.course_id = $1 AND e.sec_id = $2 AND e.semester = $3 AND e.year = $4
        ORDER BY st.student_name`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, key.CourseID, key.SecID, key.Semester, key.Year); err != nil {
		return nil, fmt.Errorf("load section roster: %w", err)
	}
	return roster, nil
}
