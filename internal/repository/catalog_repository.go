package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/uniportal/registrar-api/internal/models"
)

// CatalogRepository handles departments, courses, classrooms and time slots.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListDepartments returns all departments ordered by name.
func (r *CatalogRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT dept_name FROM departments ORDER BY dept_name`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// DepartmentExists checks a department by name.
func (r *CatalogRepository) DepartmentExists(ctx context.Context, deptName string) (bool, error) {
	const query = `SELECT 1 FROM departments WHERE dept_name = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, deptName); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check department: %w", err)
	}
	return true, nil
}

// ListCourses returns courses filtered by the provided criteria.
func (r *CatalogRepository) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := `FROM courses`
	var conditions []string
	var args []interface{}

	if filter.DeptName != "" {
		conditions = append(conditions, fmt.Sprintf("dept_name = $%d", len(args)+1))
		args = append(args, filter.DeptName)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(course_id) LIKE $%d OR LOWER(course_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT course_id, course_name, dept_name, credits %s ORDER BY course_id LIMIT %d OFFSET %d`, base+clause, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindCourse returns a course by its identifier.
func (r *CatalogRepository) FindCourse(ctx context.Context, courseID string) (*models.Course, error) {
	const query = `SELECT course_id, course_name, dept_name, credits FROM courses WHERE course_id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, courseID); err != nil {
		return nil, err
	}
	return &course, nil
}

// CreateCourse inserts a new catalog course.
func (r *CatalogRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (course_id, course_name, dept_name, credits)
        VALUES (:course_id, :course_name, :dept_name, :credits)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// UpdateCourse updates name, department and credits of a course.
func (r *CatalogRepository) UpdateCourse(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses SET course_name = $2, dept_name = $3, credits = $4 WHERE course_id = $1`
	res, err := r.db.ExecContext(ctx, query, course.CourseID, course.CourseName, course.DeptName, course.Credits)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCourse removes a course from the catalog.
func (r *CatalogRepository) DeleteCourse(ctx context.Context, courseID string) error {
	const query = `DELETE FROM courses WHERE course_id = $1`
	res, err := r.db.ExecContext(ctx, query, courseID)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountSectionsForCourse reports how many sections reference a course.
func (r *CatalogRepository) CountSectionsForCourse(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM sections WHERE course_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count sections for course: %w", err)
	}
	return count, nil
}

// ListClassrooms returns all classrooms ordered by building and room.
func (r *CatalogRepository) ListClassrooms(ctx context.Context) ([]models.Classroom, error) {
	const query = `SELECT building, room_number FROM classrooms ORDER BY building, room_number`
	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, query); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return classrooms, nil
}

// RoomsForBuilding returns the distinct room numbers within a building.
func (r *CatalogRepository) RoomsForBuilding(ctx context.Context, building string) ([]string, error) {
	const query = `SELECT DISTINCT room_number FROM classrooms WHERE building = $1 ORDER BY room_number`
	var rooms []string
	if err := r.db.SelectContext(ctx, &rooms, query, building); err != nil {
		return nil, fmt.Errorf("list rooms for building: %w", err)
	}
	return rooms, nil
}

// ClassroomExists validates a (building, room_number) pair.
func (r *CatalogRepository) ClassroomExists(ctx context.Context, building, roomNumber string) (bool, error) {
	const query = `SELECT 1 FROM classrooms WHERE building = $1 AND room_number = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, building, roomNumber); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check classroom: %w", err)
	}
	return true, nil
}

// ListTimeSlots returns the fixed time-slot catalog.
func (r *CatalogRepository) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT time_slot_id, day, start_time, end_time FROM time_slots ORDER BY time_slot_id`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// TimeSlotExists validates a time slot id.
func (r *CatalogRepository) TimeSlotExists(ctx context.Context, timeSlotID string) (bool, error) {
	const query = `SELECT 1 FROM time_slots WHERE time_slot_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, timeSlotID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check time slot: %w", err)
	}
	return true, nil
}
