package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/scholaris/scholaris-backend/internal/config"
	"github.com/scholaris/scholaris-backend/internal/handler"
	"github.com/scholaris/scholaris-backend/internal/middleware"
	"github.com/scholaris/scholaris-backend/internal/response"
	"github.com/scholaris/scholaris-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Class      *handler.ClassHandler
	Timetable  *handler.TimetableHandler
	Department *handler.DepartmentHandler
	Course     *handler.CourseHandler
	Student    *handler.StudentHandler
	Teacher    *handler.TeacherHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/admin/login", handlers.Auth.AdminLogin)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Classes and rosters
		adminAPI.POST("/classes", handlers.Class.CreateClass)
		adminAPI.GET("/classes", handlers.Class.ListClasses)
		adminAPI.GET("/classes/:id", handlers.Class.GetClass)
		adminAPI.PATCH("/classes/:id", handlers.Class.UpdateClass)
		adminAPI.POST("/classes/:id/students", handlers.Class.AddStudents)
		adminAPI.DELETE("/classes/:id/students/:student_id", handlers.Class.RemoveStudent)
		adminAPI.POST("/classes/:id/courses", handlers.Class.AddCourses)
		adminAPI.DELETE("/classes/:id/courses", handlers.Class.RemoveCourses)

		// Timetable
		adminAPI.POST("/timetable", handlers.Timetable.SetupTimetable)
		adminAPI.POST("/timetable/slots", handlers.Timetable.CreateSlot)
		adminAPI.GET("/timetable/slots", handlers.Timetable.ListSlots)
		adminAPI.GET("/timetable/slots/:id", handlers.Timetable.GetSlot)
		adminAPI.PUT("/timetable/slots/:id", handlers.Timetable.UpdateSlot)
		adminAPI.DELETE("/timetable/slots/:id", handlers.Timetable.DeleteSlot)

		// Reference data: departments and courses change rarely, so GETs
		// carry a short client cache.
		refCache := middleware.CacheControl(60)
		adminAPI.GET("/departments", refCache, handlers.Department.ListDepartments)
		adminAPI.GET("/departments/:id", refCache, handlers.Department.GetDepartment)
		adminAPI.POST("/departments", handlers.Department.CreateDepartment)
		adminAPI.PUT("/departments/:id", handlers.Department.UpdateDepartment)
		adminAPI.DELETE("/departments/:id", handlers.Department.DeleteDepartment)

		adminAPI.GET("/courses", refCache, handlers.Course.ListCourses)
		adminAPI.GET("/courses/:id", refCache, handlers.Course.GetCourse)
		adminAPI.POST("/courses", handlers.Course.CreateCourse)
		adminAPI.PUT("/courses/:id", handlers.Course.UpdateCourse)
		adminAPI.DELETE("/courses/:id", handlers.Course.DeleteCourse)

		// Students and teachers (read-only lookups)
		adminAPI.GET("/students", handlers.Student.ListStudents)
		adminAPI.GET("/students/:id", handlers.Student.GetStudent)
		adminAPI.GET("/students/:id/classes", handlers.Student.GetStudentClasses)
		adminAPI.GET("/students/:id/courses", handlers.Student.GetStudentCourses)
		adminAPI.GET("/teachers", handlers.Teacher.ListTeachers)
		adminAPI.GET("/teachers/:id", handlers.Teacher.GetTeacher)
	}

	return router
}
