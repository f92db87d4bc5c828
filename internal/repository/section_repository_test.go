package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/registrar-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func strPtr(s string) *string { return &s }

func sampleSection() *models.Section {
	return &models.Section{
		SectionKey: models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026},
		Building:   strPtr("Watson"),
		RoomNumber: strPtr("120"),
		TimeSlotID: strPtr("A"),
		Capacity:   30,
	}
}

func TestSectionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)
	section := sampleSection()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM sections WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND year = $4 FOR UPDATE")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id, sec_id FROM sections")).
		WithArgs("Watson", "120", "A", "Fall", 2026).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sections")).
		WithArgs("CS-101", "1", "Fall", 2026, "Watson", "120", "A", 30).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), section)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryCreateDuplicateKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM sections")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleSection())
	assert.ErrorIs(t, err, ErrSectionExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryCreateRoomTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM sections")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id, sec_id FROM sections")).
		WithArgs("Watson", "120", "A", "Fall", 2026).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "sec_id"}).AddRow("PHY-200", "2"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleSection())
	assert.ErrorIs(t, err, ErrRoomTimeTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)
	section := sampleSection()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id, sec_id FROM sections")).
		WithArgs("Watson", "120", "A", "Fall", 2026, "CS-101", "1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET")).
		WithArgs("CS-101", "1", "Fall", 2026, "Watson", "120", "A", 30).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), section)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryDeleteRejectsEnrollments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)
	key := models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), key, false)
	assert.ErrorIs(t, err, ErrHasEnrollments)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryDeleteCascade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)
	key := models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grades")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sections")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), key, true)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)
	key := models.SectionKey{CourseID: "CS-101", SecID: "1", Semester: "Fall", Year: 2026}

	rows := sqlmock.NewRows([]string{"course_id", "sec_id", "semester", "year", "building", "room_number", "time_slot_id", "capacity", "course_name", "credits", "enrolled"}).
		AddRow("CS-101", "1", "Fall", 2026, "Watson", "120", "A", 30, "Intro to Computer Science", 4, 12)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.course_id")).
		WithArgs("CS-101", "1", "Fall", 2026).
		WillReturnRows(rows)

	section, err := repo.Find(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "Intro to Computer Science", section.CourseName)
	assert.Equal(t, 12, section.Enrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}
