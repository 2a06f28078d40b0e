package model

import "time"

// Enrollment is the (student, course) pair maintained by write-time cascades:
// it must equal the union, over each student's active class, of that class's
// attached courses once a cascade has completed.
type Enrollment struct {
	StudentID int       `json:"student_id"`
	CourseID  int       `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}
