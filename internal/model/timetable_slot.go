package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock is a same-day wall-clock instant stored as minutes since midnight.
// It marshals to and from "HH:MM".
type Clock int

// ParseClock converts "HH:MM" (24h, zero-padded) into a Clock.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// String formats the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalJSON implements json.Marshaler.
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimetableSlot is one scheduled occurrence of a course taught by a teacher
// to a class. Conflict rule: no overlapping [start, end) intervals for the
// same teacher or the same class on the same day within one semester and
// academic year.
type TimetableSlot struct {
	ID           uuid.UUID `json:"id"`
	CourseID     int       `json:"course_id"`
	TeacherID    int       `json:"teacher_id"`
	ClassID      int       `json:"class_id"`
	DayOfWeek    int       `json:"day_of_week"` // 1 = Monday ... 7 = Sunday
	StartTime    Clock     `json:"start_time"`
	EndTime      Clock     `json:"end_time"`
	Semester     string    `json:"semester"`
	AcademicYear string    `json:"academic_year"`
	Room         string    `json:"room"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OverlapsWindow reports whether the slot's [start, end) interval intersects
// [start, end). Touching intervals (end == start) do not overlap.
func (s *TimetableSlot) OverlapsWindow(start, end Clock) bool {
	return s.StartTime < end && start < s.EndTime
}

// CreateSlotRequest is the payload for scheduling a timetable slot.
type CreateSlotRequest struct {
	CourseID     int    `json:"course_id" binding:"required,min=1"`
	TeacherID    int    `json:"teacher_id" binding:"required,min=1"`
	ClassID      int    `json:"class_id" binding:"required,min=1"`
	DayOfWeek    int    `json:"day_of_week" binding:"required,min=1,max=7"`
	StartTime    string `json:"start_time" binding:"required,clock"`
	EndTime      string `json:"end_time" binding:"required,clock"`
	Semester     string `json:"semester" binding:"required,min=1,max=20"`
	AcademicYear string `json:"academic_year" binding:"required,min=4,max=20"`
	Room         string `json:"room" binding:"omitempty,max=60"`
}

// UpdateSlotRequest is the partial-update payload for a timetable slot.
type UpdateSlotRequest struct {
	CourseID     *int    `json:"course_id" binding:"omitempty,min=1"`
	TeacherID    *int    `json:"teacher_id" binding:"omitempty,min=1"`
	ClassID      *int    `json:"class_id" binding:"omitempty,min=1"`
	DayOfWeek    *int    `json:"day_of_week" binding:"omitempty,min=1,max=7"`
	StartTime    *string `json:"start_time" binding:"omitempty,clock"`
	EndTime      *string `json:"end_time" binding:"omitempty,clock"`
	Semester     *string `json:"semester" binding:"omitempty,min=1,max=20"`
	AcademicYear *string `json:"academic_year" binding:"omitempty,min=4,max=20"`
	Room         *string `json:"room" binding:"omitempty,max=60"`
}

// TimetableSetupRequest is the single-endpoint dispatch payload: add and
// update carry slot fields, update and delete identify the slot by slot_id.
type TimetableSetupRequest struct {
	Action string             `json:"action" binding:"required,oneof=add update delete"`
	SlotID *string            `json:"slot_id" binding:"omitempty,uuid"`
	Slot   *UpdateSlotRequest `json:"slot"`
}
