package service

import (
	"context"

	"github.com/scholaris/scholaris-backend/internal/model"
	"github.com/scholaris/scholaris-backend/internal/repository"
)

// TeacherService exposes read access to teacher reference data.
type TeacherService struct {
	repo *repository.TeacherRepository
}

// NewTeacherService creates a new TeacherService.
func NewTeacherService(repo *repository.TeacherRepository) *TeacherService {
	return &TeacherService{repo: repo}
}

// GetByID retrieves a teacher by its ID.
func (s *TeacherService) GetByID(ctx context.Context, id int) (*model.Teacher, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves all teachers.
func (s *TeacherService) List(ctx context.Context) ([]model.Teacher, error) {
	return s.repo.List(ctx)
}
