package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/scholaris/scholaris-backend/internal/model"
	"github.com/scholaris/scholaris-backend/internal/repository"
)

// CourseService handles course reference-data logic.
type CourseService struct {
	repo *repository.CourseRepository
	log  zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(repo *repository.CourseRepository, log zerolog.Logger) *CourseService {
	return &CourseService{
		repo: repo,
		log:  log.With().Str("component", "course_service").Logger(),
	}
}

// GetByID retrieves a course by its ID.
func (s *CourseService) GetByID(ctx context.Context, id int) (*model.Course, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves all courses.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	return s.repo.List(ctx)
}

// Create creates a new course.
func (s *CourseService) Create(ctx context.Context, c *model.Course) error {
	return s.repo.Create(ctx, c)
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, c *model.Course) error {
	return s.repo.Update(ctx, c)
}

// Delete removes a course. Class attachments and enrollments reference
// courses with ON DELETE restrictions, so deletion of an in-use course is
// rejected by the store.
func (s *CourseService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
