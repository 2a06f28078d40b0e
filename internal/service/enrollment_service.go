package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/scholaris/scholaris-backend/internal/model"
)

// EnrollmentStore is the narrow persistence surface the synchronizer needs.
type EnrollmentStore interface {
	Upsert(ctx context.Context, pairs []model.Enrollment) error
	DeleteForStudent(ctx context.Context, studentID int, courseIDs []int) error
	CourseIDsByStudent(ctx context.Context, studentID int) ([]int, error)
}

// EnrollmentService keeps enrollment rows consistent with class membership
// and class-course attachment. Both directions are idempotent: re-applying a
// completed cascade is a no-op, which is what makes retry-to-convergence
// viable after a partial failure.
type EnrollmentService struct {
	store EnrollmentStore
	log   zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(store EnrollmentStore, log zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		store: store,
		log:   log.With().Str("component", "enrollment_service").Logger(),
	}
}

// Enroll ensures an enrollment row exists for the full cross-product of
// studentIDs and courseIDs. Duplicates in the input and pre-existing rows
// are no-ops. On error, partial application is possible and the caller must
// treat the cascade as incomplete.
func (s *EnrollmentService) Enroll(ctx context.Context, studentIDs, courseIDs []int) error {
	if len(studentIDs) == 0 || len(courseIDs) == 0 {
		return nil
	}

	seen := make(map[[2]int]bool, len(studentIDs)*len(courseIDs))
	pairs := make([]model.Enrollment, 0, len(studentIDs)*len(courseIDs))
	for _, studentID := range studentIDs {
		for _, courseID := range courseIDs {
			key := [2]int{studentID, courseID}
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, model.Enrollment{StudentID: studentID, CourseID: courseID})
		}
	}

	if err := s.store.Upsert(ctx, pairs); err != nil {
		return err
	}

	s.log.Debug().
		Int("students", len(studentIDs)).
		Int("courses", len(courseIDs)).
		Msg("Enrollment cascade applied")
	return nil
}

// Unenroll removes the student's enrollment rows for the given courses.
// Rows that are already gone are not errors.
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID int, courseIDs []int) error {
	if len(courseIDs) == 0 {
		return nil
	}
	return s.store.DeleteForStudent(ctx, studentID, courseIDs)
}

// CoursesOf returns the ids of the courses the student is enrolled in.
func (s *EnrollmentService) CoursesOf(ctx context.Context, studentID int) ([]int, error) {
	ids, err := s.store.CourseIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}
