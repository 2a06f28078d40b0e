package model

import "time"

// Class represents a student cohort active over an inclusive date window.
// The roster lives in the class_students join table; attached courses in
// class_courses. A student may belong to at most one active class at a time.
type Class struct {
	ID           int       `json:"id"`
	DepartmentID int       `json:"department_id"`
	Name         string    `json:"name"`
	AcademicYear string    `json:"academic_year"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	IsActive     bool      `json:"is_active"`
	CreatedBy    *int      `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ActiveAt reports whether the class counts as active at t: the is_active
// flag is set and t's calendar date falls inside [start_date, end_date].
func (c *Class) ActiveAt(t time.Time) bool {
	if !c.IsActive {
		return false
	}
	day := dateOnly(t)
	return !day.Before(dateOnly(c.StartDate)) && !day.After(dateOnly(c.EndDate))
}

// Expired reports whether t's date is past the class end date. Expired
// classes reject roster mutations but remain readable by id.
func (c *Class) Expired(t time.Time) bool {
	return dateOnly(t).After(dateOnly(c.EndDate))
}

// WindowOverlaps reports whether the class date window intersects
// [start, end], both windows inclusive.
func (c *Class) WindowOverlaps(start, end time.Time) bool {
	return !dateOnly(c.StartDate).After(dateOnly(end)) && !dateOnly(start).After(dateOnly(c.EndDate))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClassDetail is the merged read view of a class: resolved department and
// class teacher, attached courses, and the roster as light student records.
type ClassDetail struct {
	Class
	Department   DepartmentRef `json:"department"`
	ClassTeacher *TeacherRef   `json:"class_teacher,omitempty"`
	Courses      []CourseRef   `json:"courses"`
	Students     []StudentRef  `json:"students"`
}

// ClassCourse is the join row attaching a course to a class.
type ClassCourse struct {
	ClassID   int       `json:"class_id"`
	CourseID  int       `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateClassRequest is the payload for creating a class with its initial
// roster. Dates are calendar days, no time component.
type CreateClassRequest struct {
	DepartmentID   int    `json:"department_id" binding:"required,min=1"`
	Name           string `json:"name" binding:"required,min=2,max=120"`
	AcademicYear   string `json:"academic_year" binding:"required,min=4,max=20"`
	StartDate      string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate        string `json:"end_date" binding:"required,datetime=2006-01-02"`
	ClassTeacherID *int   `json:"class_teacher_id" binding:"omitempty,min=1"`
	StudentIDs     []int  `json:"student_ids" binding:"required,min=1,dive,min=1"`
}

// UpdateClassRequest is the partial-update payload. Absent fields are left
// untouched; student_ids, when present, replaces the whole roster.
type UpdateClassRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=2,max=120"`
	AcademicYear *string `json:"academic_year" binding:"omitempty,min=4,max=20"`
	StartDate    *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate      *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	IsActive     *bool   `json:"is_active"`
	DepartmentID *int    `json:"department_id" binding:"omitempty,min=1"`
	StudentIDs   *[]int  `json:"student_ids" binding:"omitempty,dive,min=1"`
}

// AddStudentsRequest is the payload for batch roster additions.
type AddStudentsRequest struct {
	StudentIDs []int `json:"student_ids" binding:"required,min=1,dive,min=1"`
}

// CourseIDsRequest carries the course ids for attach/detach operations.
type CourseIDsRequest struct {
	CourseIDs []int `json:"course_ids" binding:"required,min=1,dive,min=1"`
}
