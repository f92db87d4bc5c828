package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/uniportal/registrar-api/internal/models"
)

// DirectoryRepository creates student and teacher identities together with
// their accounts. Registration writes the user and the domain row in one
// transaction so a failed half never leaves an orphan account.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// FindStudent returns a student by id.
func (r *DirectoryRepository) FindStudent(ctx context.Context, studentID string) (*models.Student, error) {
	const query = `SELECT student_id, student_name, dept_name, major, year, email, tele, high_school, hometown, date_of_birth, user_id
        FROM students WHERE student_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindTeacher returns a teacher by id.
func (r *DirectoryRepository) FindTeacher(ctx context.Context, teacherID string) (*models.Teacher, error) {
	const query = `SELECT teacher_id, teacher_name, dept_name, salary, tele, user_id FROM teachers WHERE teacher_id = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, teacherID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindStudentByUserID resolves the domain identity behind an account.
func (r *DirectoryRepository) FindStudentByUserID(ctx context.Context, userID int) (*models.Student, error) {
	const query = `SELECT student_id, student_name, dept_name, major, year, email, tele, high_school, hometown, date_of_birth, user_id
        FROM students WHERE user_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindTeacherByUserID resolves the domain identity behind an account.
func (r *DirectoryRepository) FindTeacherByUserID(ctx context.Context, userID int) (*models.Teacher, error) {
	const query = `SELECT teacher_id, teacher_name, dept_name, salary, tele, user_id FROM teachers WHERE user_id = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// StudentExists checks a student id.
func (r *DirectoryRepository) StudentExists(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE student_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student: %w", err)
	}
	return true, nil
}

// TeacherExists checks a teacher id.
func (r *DirectoryRepository) TeacherExists(ctx context.Context, teacherID string) (bool, error) {
	const query = `SELECT 1 FROM teachers WHERE teacher_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher: %w", err)
	}
	return true, nil
}

// UserIDOrUsernameTaken checks account uniqueness before registration.
func (r *DirectoryRepository) UserIDOrUsernameTaken(ctx context.Context, userID int, username string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE user_id = $1 OR username = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, username); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check account uniqueness: %w", err)
	}
	return true, nil
}

// CreateStudent persists the account and the student row atomically.
func (r *DirectoryRepository) CreateStudent(ctx context.Context, user *models.User, student *models.Student) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUser(ctx, tx, user); err != nil {
		return err
	}

	const query = `INSERT INTO students (student_id, student_name, dept_name, major, year, email, tele, high_school, hometown, date_of_birth, user_id)
        VALUES (:student_id, :student_name, :dept_name, :major, :year, :email, :tele, :high_school, :hometown, :date_of_birth, :user_id)`
	if _, err = tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit student registration: %w", err)
	}
	return nil
}

// CreateTeacher persists the account and the teacher row atomically.
func (r *DirectoryRepository) CreateTeacher(ctx context.Context, user *models.User, teacher *models.Teacher) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUser(ctx, tx, user); err != nil {
		return err
	}

	const query = `INSERT INTO teachers (teacher_id, teacher_name, dept_name, salary, tele, user_id)
        VALUES (:teacher_id, :teacher_name, :dept_name, :salary, :tele, :user_id)`
	if _, err = tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("insert teacher: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit teacher registration: %w", err)
	}
	return nil
}

func insertUser(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (user_id, username, password_hash, role, created_at, updated_at)
        VALUES (:user_id, :username, :password_hash, :role, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
