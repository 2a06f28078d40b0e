package model

import "time"

// Course represents a taught course. Reference data for this core.
type Course struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Credits   int       `json:"credits"`
	Semester  string    `json:"semester"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CourseRef is the light projection embedded in merged class views.
type CourseRef struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Code     string `json:"code" binding:"required,min=2,max=20"`
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Credits  int    `json:"credits" binding:"required,min=1,max=40"`
	Semester string `json:"semester" binding:"required,min=1,max=20"`
}

// UpdateCourseRequest is the payload for updating a course.
type UpdateCourseRequest struct {
	Code     string `json:"code" binding:"required,min=2,max=20"`
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Credits  int    `json:"credits" binding:"required,min=1,max=40"`
	Semester string `json:"semester" binding:"required,min=1,max=20"`
}
