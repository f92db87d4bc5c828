package models

// Department is static reference data; courses, students and teachers
// reference it by name.
type Department struct {
	DeptName string `db:"dept_name" json:"dept_name"`
}

// Course describes a catalog course. Credits feed GPA weighting and are
// frozen once a section references the course.
type Course struct {
	CourseID   string `db:"course_id" json:"course_id"`
	CourseName string `db:"course_name" json:"course_name"`
	DeptName   string `db:"dept_name" json:"dept_name"`
	Credits    int    `db:"credits" json:"credits"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	DeptName string
	Search   string
	Page     int
	PageSize int
}

// Classroom identifies a physical room by its composite key.
type Classroom struct {
	Building   string `db:"building" json:"building"`
	RoomNumber string `db:"room_number" json:"room_number"`
}

// TimeSlot is a fixed admin-managed meeting pattern.
type TimeSlot struct {
	TimeSlotID string `db:"time_slot_id" json:"time_slot_id"`
	Day        string `db:"day" json:"day"`
	StartTime  string `db:"start_time" json:"start_time"`
	EndTime    string `db:"end_time" json:"end_time"`
}
