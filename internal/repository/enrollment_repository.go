package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholaris/scholaris-backend/internal/model"
)

// EnrollmentRepository handles (student, course) enrollment rows. All writes
// are duplicate-safe so the cascade layer can re-apply them to convergence.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// Upsert ensures every given pair exists. Existing pairs are left untouched.
func (r *EnrollmentRepository) Upsert(ctx context.Context, pairs []model.Enrollment) error {
	if len(pairs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range pairs {
		batch.Queue(
			`INSERT INTO enrollments (student_id, course_id) VALUES ($1, $2)
			 ON CONFLICT (student_id, course_id) DO NOTHING`,
			p.StudentID, p.CourseID)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pairs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// DeleteForStudent removes the student's enrollments in the given courses.
// Missing rows are not errors.
func (r *EnrollmentRepository) DeleteForStudent(ctx context.Context, studentID int, courseIDs []int) error {
	if len(courseIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM enrollments WHERE student_id = $1 AND course_id = ANY($2)`,
		studentID, courseIDs)
	return err
}

// CourseIDsByStudent returns the course ids the student is enrolled in.
func (r *EnrollmentRepository) CourseIDsByStudent(ctx context.Context, studentID int) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT course_id FROM enrollments WHERE student_id = $1 ORDER BY course_id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
