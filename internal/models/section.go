package models

import "fmt"

// SectionKey is the composite identity of one course offering in a term.
type SectionKey struct {
	CourseID string `db:"course_id" json:"course_id"`
	SecID    string `db:"sec_id" json:"sec_id"`
	Semester string `db:"semester" json:"semester"`
	Year     int    `db:"year" json:"year"`
}

// String renders the key for logs and error messages.
func (k SectionKey) String() string {
	return fmt.Sprintf("%s/%s %s %d", k.CourseID, k.SecID, k.Semester, k.Year)
}

// Section is the scheduling unit. The location triple (building, room_number,
// time_slot_id) is assigned as a whole or not at all; capacity bounds
// concurrent enrollments independently of any physical room size.
type Section struct {
	SectionKey
	Building   *string `db:"building" json:"building,omitempty"`
	RoomNumber *string `db:"room_number" json:"room_number,omitempty"`
	TimeSlotID *string `db:"time_slot_id" json:"time_slot_id,omitempty"`
	Capacity   int     `db:"capacity" json:"capacity"`
}

// HasLocation reports whether the section is bound to a room and time slot.
func (s *Section) HasLocation() bool {
	return s.Building != nil && s.RoomNumber != nil && s.TimeSlotID != nil
}

// SectionDetail enriches Section with catalog and occupancy info.
type SectionDetail struct {
	Section
	CourseName string `db:"course_name" json:"course_name"`
	Credits    int    `db:"credits" json:"credits"`
	Enrolled   int    `db:"enrolled" json:"enrolled"`
}

// SectionFilter mirrors the admin client's filtering: partial match on the
// identifying strings, exact match on term fields.
type SectionFilter struct {
	CourseID string
	SecID    string
	Semester string
	Year     int
	Page     int
	PageSize int
}
