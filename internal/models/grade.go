package models

import "time"

// GradeKey identifies the enrollment a grade belongs to.
type GradeKey struct {
	StudentID string `db:"student_id" json:"student_id"`
	CourseID  string `db:"course_id" json:"course_id"`
	SecID     string `db:"sec_id" json:"sec_id"`
	Semester  string `db:"semester" json:"semester"`
	Year      int    `db:"year" json:"year"`
}

// SectionKey returns the section part of the grade key.
func (k GradeKey) SectionKey() SectionKey {
	return SectionKey{CourseID: k.CourseID, SecID: k.SecID, Semester: k.Semester, Year: k.Year}
}

// Grade is a letter grade attached to exactly one enrollment.
type Grade struct {
	ID string `db:"id" json:"id"`
	GradeKey
	Letter    string    `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradeFilter scopes admin grade listings.
type GradeFilter struct {
	StudentID string
	CourseID  string
	Semester  string
	Year      int
	Page      int
	PageSize  int
}

// GradedCourse is one graded row joined with course credits, the input to
// GPA computation and transcripts.
type GradedCourse struct {
	CourseID   string `db:"course_id" json:"course_id"`
	CourseName string `db:"course_name" json:"course_name"`
	SecID      string `db:"sec_id" json:"sec_id"`
	Semester   string `db:"semester" json:"semester"`
	Year       int    `db:"year" json:"year"`
	Credits    int    `db:"credits" json:"credits"`
	Letter     string `db:"grade" json:"grade"`
}

// RosterEntry is one student row in a section roster, grade included when
// already posted.
type RosterEntry struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	Letter      *string `db:"grade" json:"grade,omitempty"`
}

// gradePoints maps the fixed letter scale to grade-point values.
var gradePoints = map[string]float64{
	"A+": 4.0, "A": 4.0, "A-": 3.7,
	"B+": 3.3, "B": 3.0, "B-": 2.7,
	"C+": 2.3, "C": 2.0, "C-": 1.7,
	"D+": 1.3, "D": 1.0, "D-": 0.7,
	"F": 0.0,
}

// ValidLetter reports whether the letter is part of the grade scale.
func ValidLetter(letter string) bool {
	_, ok := gradePoints[letter]
	return ok
}

// GradePoint returns the grade-point value for a letter. The boolean is
// false for letters outside the scale.
func GradePoint(letter string) (float64, bool) {
	p, ok := gradePoints[letter]
	return p, ok
}

// GradeLetters lists the accepted scale in display order.
func GradeLetters() []string {
	return []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "F"}
}
