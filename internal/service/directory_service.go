package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/pkg/config"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
)

type directoryRepository interface {
	FindStudent(ctx context.Context, studentID string) (*models.Student, error)
	FindTeacher(ctx context.Context, teacherID string) (*models.Teacher, error)
	StudentExists(ctx context.Context, studentID string) (bool, error)
	TeacherExists(ctx context.Context, teacherID string) (bool, error)
	UserIDOrUsernameTaken(ctx context.Context, userID int, username string) (bool, error)
	CreateStudent(ctx context.Context, user *models.User, student *models.Student) error
	CreateTeacher(ctx context.Context, user *models.User, teacher *models.Teacher) error
}

type directoryUserRepository interface {
	MaxUserID(ctx context.Context) (int, bool, error)
}

type directoryCatalogRepository interface {
	DepartmentExists(ctx context.Context, deptName string) (bool, error)
}

// RegisterStudentRequest carries an admin student registration.
type RegisterStudentRequest struct {
	StudentID   string  `json:"student_id" validate:"required"`
	StudentName string  `json:"student_name" validate:"required"`
	DeptName    string  `json:"dept_name" validate:"required"`
	Major       *string `json:"major"`
	Year        *int    `json:"year"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Tele        *string `json:"tele"`
	HighSchool  *string `json:"high_school"`
	Hometown    *string `json:"hometown"`
	DateOfBirth *string `json:"date_of_birth"`
}

// RegisterTeacherRequest carries an admin teacher registration.
type RegisterTeacherRequest struct {
	TeacherID   string   `json:"teacher_id" validate:"required"`
	TeacherName string   `json:"teacher_name" validate:"required"`
	DeptName    string   `json:"dept_name" validate:"required"`
	Salary      *float64 `json:"salary" validate:"omitempty,gte=0"`
	Tele        *string  `json:"tele"`
}

// RegistrationResult reports the account created for a new identity. The
// password is the configured default; the holder changes it on first login.
type RegistrationResult struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// DirectoryService registers students and teachers and derives their
// accounts: the next user id is max+1 over issued ids, and the username is
// the display name stripped of whitespace joined to the student or teacher id.
type DirectoryService struct {
	directory       directoryRepository
	users           directoryUserRepository
	catalog         directoryCatalogRepository
	defaultPassword string
	fallbackUserID  int
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewDirectoryService constructs DirectoryService.
func NewDirectoryService(directory directoryRepository, users directoryUserRepository, catalog directoryCatalogRepository, cfg config.DirectoryConfig, validate *validator.Validate, logger *zap.Logger) *DirectoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	password := cfg.DefaultPassword
	if password == "" {
		password = "123456"
	}
	fallback := cfg.FallbackUserID
	if fallback <= 0 {
		fallback = 10000
	}
	return &DirectoryService{
		directory:       directory,
		users:           users,
		catalog:         catalog,
		defaultPassword: password,
		fallbackUserID:  fallback,
		validator:       validate,
		logger:          logger,
	}
}

// NextUserID returns the id the next registration will take: one past the
// highest issued id, or the configured floor for an empty directory.
func (s *DirectoryService) NextUserID(ctx context.Context) (int, error) {
	max, ok, err := s.users.MaxUserID(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read max user id")
	}
	if !ok {
		return s.fallbackUserID, nil
	}
	return max + 1, nil
}

// GenerateUsername derives the login name from a display name and the domain
// id (student_id or teacher_id). Whitespace inside the name is removed, so
// the same inputs always produce the same username.
func GenerateUsername(name, subjectID string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s_%s", b.String(), subjectID)
}

// RegisterStudent creates a student identity with its account.
func (s *DirectoryService) RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*RegistrationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.directory.StudentExists(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student id already registered")
	}
	if err := s.checkDepartment(ctx, req.DeptName); err != nil {
		return nil, err
	}

	user, err := s.newUser(ctx, req.StudentName, req.StudentID, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	student := &models.Student{
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		DeptName:    req.DeptName,
		Major:       req.Major,
		Year:        req.Year,
		Email:       req.Email,
		Tele:        req.Tele,
		HighSchool:  req.HighSchool,
		Hometown:    req.Hometown,
		DateOfBirth: req.DateOfBirth,
		UserID:      user.UserID,
	}
	if err := s.directory.CreateStudent(ctx, user, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register student")
	}
	s.logger.Info("student registered",
		zap.String("student_id", student.StudentID),
		zap.Int("user_id", user.UserID),
		zap.String("username", user.Username))
	return &RegistrationResult{UserID: user.UserID, Username: user.Username, Role: string(user.Role)}, nil
}

// RegisterTeacher creates a teacher identity with its account.
func (s *DirectoryService) RegisterTeacher(ctx context.Context, req RegisterTeacherRequest) (*RegistrationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	exists, err := s.directory.TeacherExists(ctx, req.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher id already registered")
	}
	if err := s.checkDepartment(ctx, req.DeptName); err != nil {
		return nil, err
	}

	user, err := s.newUser(ctx, req.TeacherName, req.TeacherID, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	teacher := &models.Teacher{
		TeacherID:   req.TeacherID,
		TeacherName: req.TeacherName,
		DeptName:    req.DeptName,
		Salary:      req.Salary,
		Tele:        req.Tele,
		UserID:      user.UserID,
	}
	if err := s.directory.CreateTeacher(ctx, user, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register teacher")
	}
	s.logger.Info("teacher registered",
		zap.String("teacher_id", teacher.TeacherID),
		zap.Int("user_id", user.UserID),
		zap.String("username", user.Username))
	return &RegistrationResult{UserID: user.UserID, Username: user.Username, Role: string(user.Role)}, nil
}

// GetStudent returns one student profile.
func (s *DirectoryService) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.directory.FindStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetTeacher returns one teacher profile.
func (s *DirectoryService) GetTeacher(ctx context.Context, teacherID string) (*models.Teacher, error) {
	teacher, err := s.directory.FindTeacher(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func (s *DirectoryService) checkDepartment(ctx context.Context, deptName string) error {
	ok, err := s.catalog.DepartmentExists(ctx, deptName)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "department not found")
	}
	return nil
}

func (s *DirectoryService) newUser(ctx context.Context, name, subjectID string, role models.UserRole) (*models.User, error) {
	userID, err := s.NextUserID(ctx)
	if err != nil {
		return nil, err
	}
	username := GenerateUsername(name, subjectID)
	taken, err := s.directory.UserIDOrUsernameTaken(ctx, userID, username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account availability")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "account already exists; retry registration")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash default password")
	}
	return &models.User{
		UserID:       userID,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}, nil
}
