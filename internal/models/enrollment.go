package models

import "time"

// Enrollment registers a student into a section. The surrogate id keys the
// row; (student_id, course_id, sec_id, semester, year) is unique.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	SecID      string    `db:"sec_id" json:"sec_id"`
	Semester   string    `db:"semester" json:"semester"`
	Year       int       `db:"year" json:"year"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// Key returns the section identity of the enrollment.
func (e *Enrollment) Key() SectionKey {
	return SectionKey{CourseID: e.CourseID, SecID: e.SecID, Semester: e.Semester, Year: e.Year}
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	CourseName  string `db:"course_name" json:"course_name"`
	Credits     int    `db:"credits" json:"credits"`
}

// ScheduleEntry is one row of a student's weekly schedule.
type ScheduleEntry struct {
	CourseID   string  `db:"course_id" json:"course_id"`
	CourseName string  `db:"course_name" json:"course_name"`
	SecID      string  `db:"sec_id" json:"sec_id"`
	Semester   string  `db:"semester" json:"semester"`
	Year       int     `db:"year" json:"year"`
	Building   *string `db:"building" json:"building,omitempty"`
	RoomNumber *string `db:"room_number" json:"room_number,omitempty"`
	Day        *string `db:"day" json:"day,omitempty"`
	StartTime  *string `db:"start_time" json:"start_time,omitempty"`
	EndTime    *string `db:"end_time" json:"end_time,omitempty"`
}
