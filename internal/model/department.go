package model

import "time"

// Department represents an academic department that owns classes and staff.
type Department struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DepartmentRef is the light projection embedded in merged views.
type DepartmentRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreateDepartmentRequest is the payload for creating a department.
type CreateDepartmentRequest struct {
	Code string `json:"code" binding:"required,min=2,max=20"`
	Name string `json:"name" binding:"required,min=2,max=120"`
}

// UpdateDepartmentRequest is the payload for updating a department.
type UpdateDepartmentRequest struct {
	Code string `json:"code" binding:"required,min=2,max=20"`
	Name string `json:"name" binding:"required,min=2,max=120"`
}
