package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/scholaris/scholaris-backend/internal/model"
	"github.com/scholaris/scholaris-backend/internal/repository"
)

// DepartmentService handles department reference-data logic.
type DepartmentService struct {
	repo *repository.DepartmentRepository
	log  zerolog.Logger
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(repo *repository.DepartmentRepository, log zerolog.Logger) *DepartmentService {
	return &DepartmentService{
		repo: repo,
		log:  log.With().Str("component", "department_service").Logger(),
	}
}

// GetByID retrieves a department by its ID.
func (s *DepartmentService) GetByID(ctx context.Context, id int) (*model.Department, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves all departments.
func (s *DepartmentService) List(ctx context.Context) ([]model.Department, error) {
	return s.repo.List(ctx)
}

// Create creates a new department.
func (s *DepartmentService) Create(ctx context.Context, d *model.Department) error {
	return s.repo.Create(ctx, d)
}

// Update modifies an existing department.
func (s *DepartmentService) Update(ctx context.Context, d *model.Department) error {
	return s.repo.Update(ctx, d)
}

// Delete removes a department. Foreign keys on classes/students/teachers
// block deletion while records still reference it; the handler maps that to
// a dependency-exists response.
func (s *DepartmentService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
