package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholaris/scholaris-backend/internal/model"
)

// studentLockNS is the advisory-lock namespace for per-student roster writes.
// Locking the student id inside the transaction serializes the
// check-then-write of the "one active class per student" invariant across
// concurrent requests and across instances sharing the database.
const studentLockNS = 4201

// ClassRepository handles class, roster, and course-attachment data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// GetByID retrieves a class by its ID.
func (r *ClassRepository) GetByID(ctx context.Context, id int) (*model.Class, error) {
	c := &model.Class{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, department_id, name, academic_year, start_date, end_date, is_active, created_by, created_at, updated_at
		 FROM classes WHERE id = $1`, id,
	).Scan(&c.ID, &c.DepartmentID, &c.Name, &c.AcademicYear, &c.StartDate, &c.EndDate, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves classes with pagination, newest first.
func (r *ClassRepository) List(ctx context.Context, limit, offset int) ([]model.Class, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM classes`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, department_id, name, academic_year, start_date, end_date, is_active, created_by, created_at, updated_at
		 FROM classes ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	classes, err := scanClasses(rows)
	return classes, total, err
}

// CreateWithRoster inserts a class together with its initial roster in one
// transaction. Each student is validated in input order against the "one
// active class" invariant; on conflict the returned ActiveClassError reports
// the offending student and the ids validated before it.
func (r *ClassRepository) CreateWithRoster(ctx context.Context, c *model.Class, roster []int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockStudents(ctx, tx, roster); err != nil {
		return err
	}

	accepted := make([]int, 0, len(roster))
	for _, studentID := range roster {
		conflictID, err := activeClassConflict(ctx, tx, studentID, c, 0)
		if err != nil {
			return err
		}
		if conflictID != 0 {
			return &model.ActiveClassError{
				StudentID:     studentID,
				ActiveClassID: conflictID,
				Accepted:      accepted,
			}
		}
		accepted = append(accepted, studentID)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO classes (department_id, name, academic_year, start_date, end_date, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		 RETURNING id, is_active, created_at, updated_at`,
		c.DepartmentID, c.Name, c.AcademicYear, c.StartDate, c.EndDate, c.CreatedBy,
	).Scan(&c.ID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}

	for _, studentID := range roster {
		if _, err := tx.Exec(ctx,
			`INSERT INTO class_students (class_id, student_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, c.ID, studentID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// AddMember appends a student to the class roster under the per-student
// advisory lock. Returns false without error when the student is already a
// member (no-op success). Returns ActiveClassError when the student is
// active in another overlapping class.
func (r *ClassRepository) AddMember(ctx context.Context, c *model.Class, studentID int) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, studentLockNS, studentID); err != nil {
		return false, err
	}

	var isMember bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2)`,
		c.ID, studentID,
	).Scan(&isMember)
	if err != nil {
		return false, err
	}
	if isMember {
		return false, tx.Commit(ctx)
	}

	conflictID, err := activeClassConflict(ctx, tx, studentID, c, c.ID)
	if err != nil {
		return false, err
	}
	if conflictID != 0 {
		return false, &model.ActiveClassError{StudentID: studentID, ActiveClassID: conflictID}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO class_students (class_id, student_id) VALUES ($1, $2)`,
		c.ID, studentID); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

// RemoveMember drops a student from the roster. Returns whether a row existed.
func (r *ClassRepository) RemoveMember(ctx context.Context, classID, studentID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM class_students WHERE class_id = $1 AND student_id = $2`,
		classID, studentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Roster returns the student ids belonging to the class.
func (r *ClassRepository) Roster(ctx context.Context, classID int) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id FROM class_students WHERE class_id = $1 ORDER BY student_id`, classID)
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

// AttachCourse links a course to the class. Duplicate attach is a no-op;
// the return value reports whether a new link was created.
func (r *ClassRepository) AttachCourse(ctx context.Context, classID, courseID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO class_courses (class_id, course_id) VALUES ($1, $2)
		 ON CONFLICT (class_id, course_id) DO NOTHING`,
		classID, courseID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DetachCourse unlinks a course from the class. Returns whether a row existed.
func (r *ClassRepository) DetachCourse(ctx context.Context, classID, courseID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM class_courses WHERE class_id = $1 AND course_id = $2`,
		classID, courseID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CourseIDs returns the ids of courses attached to the class.
func (r *ClassRepository) CourseIDs(ctx context.Context, classID int) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT course_id FROM class_courses WHERE class_id = $1 ORDER BY course_id`, classID)
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

// GetDetail assembles the merged class view: resolved department, class
// teacher if set, attached courses, and the roster as light student records.
func (r *ClassRepository) GetDetail(ctx context.Context, id int) (*model.ClassDetail, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.ClassDetail{Class: *c}

	err = r.pool.QueryRow(ctx,
		`SELECT id, name FROM departments WHERE id = $1`, c.DepartmentID,
	).Scan(&detail.Department.ID, &detail.Department.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve department: %w", err)
	}

	if c.CreatedBy != nil {
		var t model.TeacherRef
		err = r.pool.QueryRow(ctx,
			`SELECT id, name FROM teachers WHERE id = $1`, *c.CreatedBy,
		).Scan(&t.ID, &t.Name)
		if err != nil && err != pgx.ErrNoRows {
			return nil, fmt.Errorf("resolve class teacher: %w", err)
		}
		if err == nil {
			detail.ClassTeacher = &t
		}
	}

	courseRows, err := r.pool.Query(ctx,
		`SELECT co.id, co.code, co.name
		 FROM class_courses cc JOIN courses co ON co.id = cc.course_id
		 WHERE cc.class_id = $1 ORDER BY co.code`, id)
	if err != nil {
		return nil, err
	}
	defer courseRows.Close()
	detail.Courses = []model.CourseRef{}
	for courseRows.Next() {
		var ref model.CourseRef
		if err := courseRows.Scan(&ref.ID, &ref.Code, &ref.Name); err != nil {
			return nil, err
		}
		detail.Courses = append(detail.Courses, ref)
	}
	if err := courseRows.Err(); err != nil {
		return nil, err
	}

	studentRows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.email
		 FROM class_students cs JOIN students s ON s.id = cs.student_id
		 WHERE cs.class_id = $1 ORDER BY s.name`, id)
	if err != nil {
		return nil, err
	}
	defer studentRows.Close()
	detail.Students = []model.StudentRef{}
	for studentRows.Next() {
		var ref model.StudentRef
		if err := studentRows.Scan(&ref.ID, &ref.Name, &ref.Email); err != nil {
			return nil, err
		}
		detail.Students = append(detail.Students, ref)
	}
	return detail, studentRows.Err()
}

// UpdateFields applies a partial update; fields maps column names to values.
// Returns false when no row matched. Column whitelisting happens in the
// service layer.
func (r *ClassRepository) UpdateFields(ctx context.Context, id int, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}

	set := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for col, val := range fields {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	set = append(set, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE classes SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindByStudent returns the classes whose roster contains the student,
// newest window first. Active filtering happens in the service layer so it
// shares one clock with the rest of the roster checks.
func (r *ClassRepository) FindByStudent(ctx context.Context, studentID int) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.department_id, c.name, c.academic_year, c.start_date, c.end_date, c.is_active, c.created_by, c.created_at, c.updated_at
		FROM classes c
		JOIN class_students cs ON cs.class_id = c.id
		WHERE cs.student_id = $1
		ORDER BY c.start_date DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClasses(rows)
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

// lockStudents takes the per-student advisory locks in sorted order so two
// overlapping roster writes never deadlock on each other.
func lockStudents(ctx context.Context, tx pgx.Tx, studentIDs []int) error {
	sorted := make([]int, len(studentIDs))
	copy(sorted, studentIDs)
	sort.Ints(sorted)

	prev := 0
	for i, id := range sorted {
		if i > 0 && id == prev {
			continue
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, studentLockNS, id); err != nil {
			return err
		}
		prev = id
	}
	return nil
}

// activeClassConflict returns the id of an is_active class whose date window
// overlaps target's window and whose roster contains the student, or 0.
// excludeClassID skips the class being mutated itself.
func activeClassConflict(ctx context.Context, tx pgx.Tx, studentID int, target *model.Class, excludeClassID int) (int, error) {
	var conflictID int
	err := tx.QueryRow(ctx,
		`SELECT c.id
		 FROM classes c
		 JOIN class_students cs ON cs.class_id = c.id
		 WHERE cs.student_id = $1
		   AND c.is_active
		   AND c.start_date <= $2
		   AND c.end_date >= $3
		   AND c.id <> $4
		 LIMIT 1`,
		studentID, target.EndDate, target.StartDate, excludeClassID,
	).Scan(&conflictID)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return conflictID, nil
}

func scanClasses(rows pgx.Rows) ([]model.Class, error) {
	var classes []model.Class
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(&c.ID, &c.DepartmentID, &c.Name, &c.AcademicYear, &c.StartDate, &c.EndDate, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}
