package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/uniportal/registrar-api/internal/models"
)

// Sentinel errors raised inside section write transactions. Services map
// them onto the API error taxonomy.
var (
	ErrSectionExists  = errors.New("section already exists")
	ErrRoomTimeTaken  = errors.New("room and time slot already booked for term")
	ErrHasEnrollments = errors.New("section has active enrollments")
)

// SectionRepository handles persistence of course sections. Collision
// checks and inserts run inside one transaction so concurrent writers for
// the same (building, room, time slot, term) cannot both succeed.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns sections matching the filter with enrollment counts.
// course_id and sec_id match case-insensitive substrings, semester and year
// match exactly, mirroring the admin client's table filters.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error) {
	base := `FROM sections s
JOIN courses c ON c.course_id = s.course_id`
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.course_id) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.CourseID)+"%")
	}
	if filter.SecID != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.sec_id) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.SecID)+"%")
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("s.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("s.year = $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT s.course_id, s.sec_id, s.semester, s.year, s.building, s.room_number, s.time_slot_id, s.capacity,
        c.course_name, c.credits,
        (SELECT COUNT(*) FROM enrollments e
         WHERE e.course_id = s.course_id AND e.sec_id = s.sec_id AND e.semester = s.semester AND e.year = s.year) AS enrolled
        %s ORDER BY s.year DESC, s.semester, s.course_id, s.sec_id LIMIT %d OFFSET %d`, base+clause, size, offset)

	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}
	return sections, total, nil
}

// Find returns a section by its composite key with course info and the
// derived enrolled count.
func (r *SectionRepository) Find(ctx context.Context, key models.SectionKey) (*models.SectionDetail, error) {
	const query = `SELECT s.course_id, s.sec_id, s.semester, s.year, s.building, s.room_number, s.time_slot_id, s.capacity,
        c.course_name, c.credits,
        (SELECT COUNT(*) FROM enrollments e
         WHERE e.course_id = s.course_id AND e.sec_id = s.sec_id AND e.semester = s.semester AND e.year = s.year) AS enrolled
        FROM sections s
        JOIN courses c ON c.course_id = s.course_id
        WHERE s.course_id = $1 AND s.sec_id = $2 AND s.semester = $3 AND s.year = $4 LIMIT 1`
	var section models.SectionDetail
	if err := r.db.GetContext(ctx, &section, query, key.CourseID, key.SecID, key.Semester, key.Year); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create inserts a section after verifying key uniqueness and room/time
// availability inside a single transaction.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin section transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	const dupQuery = `SELECT 1 FROM sections WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4 FOR UPDATE`
	if err = tx.GetContext(ctx, &exists, dupQuery, section.CourseID, section.SecID, section.Semester, section.Year); err == nil {
		return ErrSectionExists
	} else if err != sql.ErrNoRows {
		return fmt.Errorf("check section key: %w", err)
	}
	err = nil

	if section.HasLocation() {
		if err = lockCollidingSection(ctx, tx, section, false); err != nil {
			return err
		}
	}

	const insertQuery = `INSERT INTO sections (course_id, sec_id, semester, year, building, room_number, time_slot_id, capacity)
        VALUES (:course_id, :sec_id, :semester, :year, :building, :room_number, :time_slot_id, :capacity)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, section); err != nil {
		return fmt.Errorf("insert section: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit section: %w", err)
	}
	return nil
}

// Update rewrites the mutable attributes of a section, re-running the
// collision check (excluding the section's own row) when a location is set.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin section transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if section.HasLocation() {
		if err = lockCollidingSection(ctx, tx, section, true); err != nil {
			return err
		}
	}

	const updateQuery = `UPDATE sections SET building = $5, room_number = $6, time_slot_id = $7, capacity = $8
        WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4`
	res, err := tx.ExecContext(ctx, updateQuery,
		section.CourseID, section.SecID, section.Semester, section.Year,
		section.Building, section.RoomNumber, section.TimeSlotID, section.Capacity)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit section update: %w", err)
	}
	return nil
}

// lockCollidingSection takes a row lock on any same-term section occupying
// the same (building, room_number, time_slot_id) triple and reports
// ErrRoomTimeTaken when one exists.
func lockCollidingSection(ctx context.Context, tx *sqlx.Tx, section *models.Section, excludeSelf bool) error {
	query := `SELECT course_id, sec_id FROM sections
        WHERE building = $1 AND room_number = $2 AND time_slot_id = $3 AND semester = $4 AND year = $5`
	args := []interface{}{section.Building, section.RoomNumber, section.TimeSlotID, section.Semester, section.Year}
	if excludeSelf {
		query += ` AND NOT (course_id = $6 AND sec_id = $7)`
		args = append(args, section.CourseID, section.SecID)
	}
	query += ` FOR UPDATE`

	var occupant struct {
		CourseID string `db:"course_id"`
		SecID    string `db:"sec_id"`
	}
	if err := tx.GetContext(ctx, &occupant, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("check room collision: %w", err)
	}
	return ErrRoomTimeTaken
}

// Delete removes a section. With cascade false the delete is rejected while
// enrollments reference the section; with cascade true enrollments and
// their grades go in the same transaction.
func (r *SectionRepository) Delete(ctx context.Context, key models.SectionKey, cascade bool) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin section transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var count int
	const countQuery = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4`
	if err = tx.GetContext(ctx, &count, countQuery, key.CourseID, key.SecID, key.Semester, key.Year); err != nil {
		return fmt.Errorf("count section enrollments: %w", err)
	}
	if count > 0 {
		if !cascade {
			err = ErrHasEnrollments
			return err
		}
		const deleteGrades = `DELETE FROM grades WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4`
		if _, err = tx.ExecContext(ctx, deleteGrades, key.CourseID, key.SecID, key.Semester, key.Year); err != nil {
			return fmt.Errorf("cascade delete grades: %w", err)
		}
		const deleteEnrollments = `DELETE FROM enrollments WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4`
		if _, err = tx.ExecContext(ctx, deleteEnrollments, key.CourseID, key.SecID, key.Semester, key.Year); err != nil {
			return fmt.Errorf("cascade delete enrollments: %w", err)
		}
	}

	const deleteSection = `DELETE FROM sections WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4`
	res, err := tx.ExecContext(ctx, deleteSection, key.CourseID, key.SecID, key.Semester, key.Year)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit section delete: %w", err)
	}
	return nil
}
