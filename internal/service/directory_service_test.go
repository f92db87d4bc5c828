package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/pkg/config"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
)

type mockDirectoryRepo struct {
	students    map[string]*models.Student
	teachers    map[string]*models.Teacher
	takenNames  map[string]bool
	createdUser *models.User
}

func (m *mockDirectoryRepo) FindStudent(ctx context.Context, studentID string) (*models.Student, error) {
	if s, ok := m.students[studentID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDirectoryRepo) FindTeacher(ctx context.Context, teacherID string) (*models.Teacher, error) {
	if tr, ok := m.teachers[teacherID]; ok {
		return tr, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDirectoryRepo) StudentExists(ctx context.Context, studentID string) (bool, error) {
	_, ok := m.students[studentID]
	return ok, nil
}

func (m *mockDirectoryRepo) TeacherExists(ctx context.Context, teacherID string) (bool, error) {
	_, ok := m.teachers[teacherID]
	return ok, nil
}

func (m *mockDirectoryRepo) UserIDOrUsernameTaken(ctx context.Context, userID int, username string) (bool, error) {
	return m.takenNames[username], nil
}

func (m *mockDirectoryRepo) CreateStudent(ctx context.Context, user *models.User, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]*models.Student)
	}
	m.students[student.StudentID] = student
	m.createdUser = user
	return nil
}

func (m *mockDirectoryRepo) CreateTeacher(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	if m.teachers == nil {
		m.teachers = make(map[string]*models.Teacher)
	}
	m.teachers[teacher.TeacherID] = teacher
	m.createdUser = user
	return nil
}

type mockUserIDSource struct {
	max   int
	empty bool
}

func (m *mockUserIDSource) MaxUserID(ctx context.Context) (int, bool, error) {
	if m.empty {
		return 0, false, nil
	}
	return m.max, true, nil
}

type mockDeptSource struct {
	depts map[string]bool
}

func (m *mockDeptSource) DepartmentExists(ctx context.Context, deptName string) (bool, error) {
	return m.depts[deptName], nil
}

func newDirectoryService(repo *mockDirectoryRepo, users *mockUserIDSource) *DirectoryService {
	catalog := &mockDeptSource{depts: map[string]bool{"CS": true, "Math": true}}
	return NewDirectoryService(repo, users, catalog, config.DirectoryConfig{DefaultPassword: "123456", FallbackUserID: 10000}, nil, nil)
}

func TestGenerateUsernameStripsWhitespace(t *testing.T) {
	assert.Equal(t, "JaneDoe_S100", GenerateUsername("Jane Doe", "S100"))
	assert.Equal(t, "AliceChen_S-1001", GenerateUsername(" Alice\tChen ", "S-1001"))
	// same inputs always derive the same username
	assert.Equal(t, GenerateUsername("Bob Diaz", "T-42"), GenerateUsername("Bob Diaz", "T-42"))
}

func TestDirectoryServiceNextUserID(t *testing.T) {
	svc := newDirectoryService(&mockDirectoryRepo{}, &mockUserIDSource{max: 10041})

	next, err := svc.NextUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10042, next)
}

func TestDirectoryServiceNextUserIDEmptyDirectory(t *testing.T) {
	svc := newDirectoryService(&mockDirectoryRepo{}, &mockUserIDSource{empty: true})

	next, err := svc.NextUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10000, next)
}

func TestDirectoryServiceRegisterStudent(t *testing.T) {
	repo := &mockDirectoryRepo{}
	svc := newDirectoryService(repo, &mockUserIDSource{max: 10041})

	result, err := svc.RegisterStudent(context.Background(), RegisterStudentRequest{
		StudentID:   "S-1001",
		StudentName: "Alice Chen",
		DeptName:    "CS",
	})
	require.NoError(t, err)
	assert.Equal(t, 10042, result.UserID)
	assert.Equal(t, "AliceChen_S-1001", result.Username)
	assert.Equal(t, string(models.RoleStudent), result.Role)

	require.NotNil(t, repo.createdUser)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.createdUser.PasswordHash), []byte("123456")))
	assert.Equal(t, 10042, repo.students["S-1001"].UserID)
}

func TestDirectoryServiceRegisterStudentDuplicate(t *testing.T) {
	repo := &mockDirectoryRepo{students: map[string]*models.Student{"S-1001": {StudentID: "S-1001"}}}
	svc := newDirectoryService(repo, &mockUserIDSource{max: 10041})

	_, err := svc.RegisterStudent(context.Background(), RegisterStudentRequest{
		StudentID:   "S-1001",
		StudentName: "Alice Chen",
		DeptName:    "CS",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}

func TestDirectoryServiceRegisterStudentUnknownDepartment(t *testing.T) {
	svc := newDirectoryService(&mockDirectoryRepo{}, &mockUserIDSource{max: 10041})

	_, err := svc.RegisterStudent(context.Background(), RegisterStudentRequest{
		StudentID:   "S-1001",
		StudentName: "Alice Chen",
		DeptName:    "Alchemy",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestDirectoryServiceRegisterTeacher(t *testing.T) {
	repo := &mockDirectoryRepo{}
	svc := newDirectoryService(repo, &mockUserIDSource{empty: true})

	result, err := svc.RegisterTeacher(context.Background(), RegisterTeacherRequest{
		TeacherID:   "T-42",
		TeacherName: "Grace Hopper",
		DeptName:    "CS",
	})
	require.NoError(t, err)
	assert.Equal(t, 10000, result.UserID)
	assert.Equal(t, "GraceHopper_T-42", result.Username)
	assert.Equal(t, string(models.RoleTeacher), result.Role)
}

func TestDirectoryServiceRegisterUsernameCollision(t *testing.T) {
	repo := &mockDirectoryRepo{takenNames: map[string]bool{"AliceChen_S-1001": true}}
	svc := newDirectoryService(repo, &mockUserIDSource{max: 10041})

	_, err := svc.RegisterStudent(context.Background(), RegisterStudentRequest{
		StudentID:   "S-1001",
		StudentName: "Alice Chen",
		DeptName:    "CS",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
}
