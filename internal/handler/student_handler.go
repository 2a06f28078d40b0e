package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/scholaris-backend/internal/response"
	"github.com/scholaris/scholaris-backend/internal/service"
)

// StudentHandler handles student lookup endpoints. Student records are owned
// by the upstream user-management system; this surface is read-only.
type StudentHandler struct {
	studentService    *service.StudentService
	classService      *service.ClassService
	enrollmentService *service.EnrollmentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(
	studentService *service.StudentService,
	classService *service.ClassService,
	enrollmentService *service.EnrollmentService,
) *StudentHandler {
	return &StudentHandler{
		studentService:    studentService,
		classService:      classService,
		enrollmentService: enrollmentService,
	}
}

// ListStudents godoc
// GET /api/v1/admin/students?page=1&per_page=20
func (h *StudentHandler) ListStudents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	students, pagination, err := h.studentService.List(c.Request.Context(), page, perPage)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, pagination)
}

// GetStudent godoc
// GET /api/v1/admin/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// GetStudentClasses godoc
// GET /api/v1/admin/students/:id/classes?active=true
// With active=true at most one class comes back; more than one is reported
// as a consistency violation, never silently collapsed.
func (h *StudentHandler) GetStudentClasses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if _, err := h.studentService.GetByID(c.Request.Context(), id); err != nil {
		failDomain(c, err)
		return
	}

	activeOnly := c.Query("active") == "true"
	classes, err := h.classService.FindByStudent(c.Request.Context(), id, activeOnly)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// GetStudentCourses godoc
// GET /api/v1/admin/students/:id/courses
// Returns the course ids the student is enrolled in, as maintained by the
// roster/course cascades.
func (h *StudentHandler) GetStudentCourses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if _, err := h.studentService.GetByID(c.Request.Context(), id); err != nil {
		failDomain(c, err)
		return
	}

	courseIDs, err := h.enrollmentService.CoursesOf(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course_ids": courseIDs})
}
