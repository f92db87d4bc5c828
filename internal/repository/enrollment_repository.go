package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uniportal/registrar-api/internal/models"
)

// Sentinel errors raised inside the enroll transaction.
var (
	ErrSectionFull     = errors.New("section is at capacity")
	ErrAlreadyEnrolled = errors.New("student already enrolled in section")
)

// EnrollmentRepository handles persistence of enrollments. The capacity
// check and the insert share one transaction holding the section row lock,
// so two concurrent enrolls at capacity-1 cannot both succeed.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll inserts an enrollment guarded by the section capacity. Returns
// sql.ErrNoRows when the section does not exist, ErrSectionFull when the
// derived count has reached capacity, ErrAlreadyEnrolled on a duplicate.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capacity int
	const lockQuery = `SELECT capacity FROM sections WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4 FOR UPDATE`
	if err = tx.GetContext(ctx, &capacity, lockQuery, enrollment.CourseID, enrollment.SecID, enrollment.Semester, enrollment.Year); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock section: %w", err)
	}

	var duplicate int
	const dupQuery = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND sec_id = $3 AND semester = $4 AND year = $5 LIMIT 1`
	if err = tx.GetContext(ctx, &duplicate, dupQuery, enrollment.StudentID, enrollment.CourseID, enrollment.SecID, enrollment.Semester, enrollment.Year); err == nil {
		err = ErrAlreadyEnrolled
		return err
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("check duplicate enrollment: %w", err)
	}
	err = nil

	var enrolled int
	const countQuery = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4`
	if err = tx.GetContext(ctx, &enrolled, countQuery, enrollment.CourseID, enrollment.SecID, enrollment.Semester, enrollment.Year); err != nil {
		return fmt.Errorf("count enrollments: %w", err)
	}
	if enrolled >= capacity {
		err = ErrSectionFull
		return err
	}

	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const insertQuery = `INSERT INTO enrollments (id, student_id, course_id, sec_id, semester, year, enrolled_at)
        VALUES (:id, :student_id, :course_id, :sec_id, :semester, :year, :enrolled_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}
	return nil
}

// Drop removes the student's enrollment for the section. Grades are kept as
// a historical record.
func (r *EnrollmentRepository) Drop(ctx context.Context, studentID string, key models.SectionKey) error {
	const query = `DELETE FROM enrollments WHERE student_id = $1 AND course_id = $2 AND sec_id = $3 AND semester = $4 AND year = $5`
	res, err := r.db.ExecContext(ctx, query, studentID, key.CourseID, key.SecID, key.Semester, key.Year)
	if err != nil {
		return fmt.Errorf("drop enrollment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Exists checks whether the student holds an enrollment for the section.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID string, key models.SectionKey) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND sec_id = $3 AND semester = $4 AND year = $5 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, key.CourseID, key.SecID, key.Semester, key.Year); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// CountBySection returns the derived enrollment count for a section.
func (r *EnrollmentRepository) CountBySection(ctx context.Context, key models.SectionKey) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, key.CourseID, key.SecID, key.Semester, key.Year); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// ListBySection returns enrollments for a section with student names.
func (r *EnrollmentRepository) ListBySection(ctx context.Context, key models.SectionKey) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.sec_id, e.semester, e.year, e.enrolled_at,
        st.student_name, c.course_name, c.credits
        FROM enrollments e
        JOIN students st ON st.student_id = e.student_id
        JOIN courses c ON c.course_id = e.course_id
        WHERE e.course_id = $1 AND e.sec_id = $2 AND e.semester = $3 AND e.year = $4
        ORDER BY st.student_name`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, key.CourseID, key.SecID, key.Semester, key.Year); err != nil {
		return nil, fmt.Errorf("list section enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStudent returns a student's enrollments with course info.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.sec_id, e.semester, e.year, e.enrolled_at,
        st.student_name, c.course_name, c.credits
        FROM enrollments e
        JOIN students st ON st.student_id = e.student_id
        JOIN courses c ON c.course_id = e.course_id
        WHERE e.student_id = $1
        ORDER BY e.year DESC, e.semester, e.course_id`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// Schedule returns a student's enrolled sections joined with rooms and
// time slots for the weekly schedule view.
func (r *EnrollmentRepository) Schedule(ctx context.Context, studentID string) ([]models.ScheduleEntry, error) {
	const query = `SELECT e.course_id, c.course_name, e.sec_id, e.semester, e.year,
        s.building, s.room_number, t.day, t.start_time, t.end_time
        FROM enrollments e
        JOIN courses c ON c.course_id = e.course_id
        JOIN sections s ON s.course_id = e.course_id AND s.sec_id = e.sec_id AND s.semester = e.semester AND s.year = e.year
        LEFT JOIN time_slots t ON t.time_slot_id = s.time_slot_id
        WHERE e.student_id = $1
        ORDER BY e.year DESC, e.semester, t.day, t.start_time`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("load student schedule: %w", err)
	}
	return entries, nil
}
