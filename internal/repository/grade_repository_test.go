package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/registrar-api/internal/models"
)

func sampleGradeKey() models.GradeKey {
	return models.GradeKey{StudentID: "S-1001", CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}
}

func TestGradeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grades")).
		WithArgs(sqlmock.AnyArg(), "S-1001", "CS-101", "1", "Fall", 2026, "A-", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	grade := &models.Grade{GradeKey: sampleGradeKey(), Letter: "A-"}
	err := repo.Create(context.Background(), grade)
	require.NoError(t, err)
	assert.NotEmpty(t, grade.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryUpdateByKeyNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE grades SET grade")).
		WithArgs("S-1001", "CS-101", "1", "Fall", 2026, "B+", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateByKey(context.Background(), sampleGradeKey(), "B+")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListGradedCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	rows := sqlmock.NewRows([]string{"course_id", "course_name", "sec_id", "semester", "year", "credits", "grade"}).
		AddRow("CS-101", "Intro to Computer Science", "1", "Fall", 2026, 4, "A").
		AddRow("MATH-201", "Linear Algebra", "2", "Fall", 2026, 3, "B+")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT g.course_id, c.course_name")).
		WithArgs("S-1001").
		WillReturnRows(rows)

	graded, err := repo.ListGradedCourses(context.Background(), "S-1001")
	require.NoError(t, err)
	require.Len(t, graded, 2)
	assert.Equal(t, 4, graded[0].Credits)
	assert.Equal(t, "B+", graded[1].Letter)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "student_name", "grade"}).
		AddRow("S-1001", "Alice Chen", "A").
		AddRow("S-2002", "Bob Diaz", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.student_id, st.student_name, g.grade")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnRows(rows)

	key := models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}
	roster, err := repo.Roster(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.NotNil(t, roster[0].Letter)
	assert.Equal(t, "A", *roster[0].Letter)
	assert.Nil(t, roster[1].Letter)
	require.NoError(t, mock.ExpectationsWereMet())
}
