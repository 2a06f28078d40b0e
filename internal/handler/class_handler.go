package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/scholaris-backend/internal/model"
	"github.com/scholaris/scholaris-backend/internal/response"
	"github.com/scholaris/scholaris-backend/internal/service"
	"github.com/scholaris/scholaris-backend/internal/validator"
)

const classDateLayout = "2006-01-02"

// ClassHandler handles class and roster endpoints.
type ClassHandler struct {
	classService *service.ClassService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

// CreateClass godoc
// POST /api/v1/admin/classes
// Creates a class with its initial roster. Atomic: if any student already
// belongs to an overlapping active class, nothing is created.
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req model.CreateClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	startDate, _ := time.Parse(classDateLayout, req.StartDate)
	endDate, _ := time.Parse(classDateLayout, req.EndDate)

	in := service.CreateClassInput{
		DepartmentID: req.DepartmentID,
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
		StartDate:    startDate,
		EndDate:      endDate,
		StudentIDs:   req.StudentIDs,
		CreatedBy:    req.ClassTeacherID,
	}

	class, err := h.classService.Create(c.Request.Context(), in)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// GetClass godoc
// GET /api/v1/admin/classes/:id
// Returns the merged class view: department, class teacher, courses, roster.
func (h *ClassHandler) GetClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.classService.GetDetail(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": detail})
}

// ListClasses godoc
// GET /api/v1/admin/classes?page=1&per_page=20
func (h *ClassHandler) ListClasses(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	classes, pagination, err := h.classService.List(c.Request.Context(), page, perPage)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"classes": classes}, pagination)
}

// UpdateClass godoc
// PATCH /api/v1/admin/classes/:id
// Partial update. A student_ids field replaces the roster through the same
// checked path as individual add/remove.
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	in := service.UpdateClassInput{
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
		IsActive:     req.IsActive,
		DepartmentID: req.DepartmentID,
		Roster:       req.StudentIDs,
	}
	if req.StartDate != nil {
		t, _ := time.Parse(classDateLayout, *req.StartDate)
		in.StartDate = &t
	}
	if req.EndDate != nil {
		t, _ := time.Parse(classDateLayout, *req.EndDate)
		in.EndDate = &t
	}

	changed, err := h.classService.Update(c.Request.Context(), id, in)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": changed})
}

// AddStudents godoc
// POST /api/v1/admin/classes/:id/students
// Batch roster addition with enrollment cascade. Applied in input order,
// stopping at the first failure; success and failure responses both carry
// the ids applied so far.
func (h *ClassHandler) AddStudents(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.AddStudentsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	applied, err := h.classService.AddStudents(c.Request.Context(), id, req.StudentIDs)
	if err != nil {
		failBatch(c, err, "added_student_ids", applied)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"added_student_ids": applied})
}

// RemoveStudent godoc
// DELETE /api/v1/admin/classes/:id/students/:student_id
// Removes a student from the roster and unenrolls them from the class's
// courses. Removing an absent student is a no-op success.
func (h *ClassHandler) RemoveStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	studentID, ok := pathID(c, "student_id")
	if !ok {
		return
	}

	if err := h.classService.RemoveStudent(c.Request.Context(), id, studentID); err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// AddCourses godoc
// POST /api/v1/admin/classes/:id/courses
// Attaches courses and enrolls the current roster into each newly attached
// course. Duplicate attachments are no-ops.
func (h *ClassHandler) AddCourses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.CourseIDsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	applied, err := h.classService.AddCourses(c.Request.Context(), id, req.CourseIDs)
	if err != nil {
		failBatch(c, err, "added_course_ids", applied)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"added_course_ids": applied})
}

// RemoveCourses godoc
// DELETE /api/v1/admin/classes/:id/courses
// Detaches courses and unenrolls every roster student from each.
func (h *ClassHandler) RemoveCourses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.CourseIDsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	applied, err := h.classService.RemoveCourses(c.Request.Context(), id, req.CourseIDs)
	if err != nil {
		failBatch(c, err, "removed_course_ids", applied)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"removed_course_ids": applied})
}
