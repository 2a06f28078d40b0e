package model

import "time"

// Teacher represents a teaching staff member. Reference data for this core:
// teachers are looked up (class teacher, timetable slots) but never mutated here.
type Teacher struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DepartmentID *int      `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TeacherRef is the light projection embedded in merged views.
type TeacherRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
