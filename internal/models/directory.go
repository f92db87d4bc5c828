package models

// Student holds the domain record created alongside a student account.
type Student struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	DeptName    string  `db:"dept_name" json:"dept_name"`
	Major       *string `db:"major" json:"major,omitempty"`
	Year        *int    `db:"year" json:"year,omitempty"`
	Email       *string `db:"email" json:"email,omitempty"`
	Tele        *string `db:"tele" json:"tele,omitempty"`
	HighSchool  *string `db:"high_school" json:"high_school,omitempty"`
	Hometown    *string `db:"hometown" json:"hometown,omitempty"`
	DateOfBirth *string `db:"date_of_birth" json:"date_of_birth,omitempty"`
	UserID      int     `db:"user_id" json:"user_id"`
}

// Teacher holds the domain record created alongside a teacher account.
type Teacher struct {
	TeacherID   string   `db:"teacher_id" json:"teacher_id"`
	TeacherName string   `db:"teacher_name" json:"teacher_name"`
	DeptName    string   `db:"dept_name" json:"dept_name"`
	Salary      *float64 `db:"salary" json:"salary,omitempty"`
	Tele        *string  `db:"tele" json:"tele,omitempty"`
	UserID      int      `db:"user_id" json:"user_id"`
}
