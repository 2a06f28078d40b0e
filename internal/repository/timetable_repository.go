package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholaris/scholaris-backend/internal/model"
)

// TimetableRepository handles timetable slot data access.
type TimetableRepository struct {
	pool *pgxpool.Pool
}

// NewTimetableRepository creates a new TimetableRepository.
func NewTimetableRepository(pool *pgxpool.Pool) *TimetableRepository {
	return &TimetableRepository{pool: pool}
}

const slotColumns = `id, course_id, teacher_id, class_id, day_of_week, start_minute, end_minute, semester, academic_year, room, created_at, updated_at`

// GetByID retrieves a slot by its ID.
func (r *TimetableRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TimetableSlot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM timetable_slots WHERE id = $1`, id)
	return scanSlot(row)
}

// ListForDay returns all slots in one semester/year on one day of the week.
// The conflict scan is a linear pass over this result set: correct at any
// volume, sized for a school's weekly schedule.
func (r *TimetableRepository) ListForDay(ctx context.Context, semester, academicYear string, dayOfWeek int) ([]model.TimetableSlot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+slotColumns+`
		 FROM timetable_slots
		 WHERE semester = $1 AND academic_year = $2 AND day_of_week = $3
		 ORDER BY start_minute`, semester, academicYear, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.TimetableSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	return slots, rows.Err()
}

// ListBySemester returns a semester's full schedule, ordered for display.
func (r *TimetableRepository) ListBySemester(ctx context.Context, semester, academicYear string) ([]model.TimetableSlot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+slotColumns+`
		 FROM timetable_slots
		 WHERE semester = $1 AND academic_year = $2
		 ORDER BY day_of_week, start_minute`, semester, academicYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.TimetableSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	return slots, rows.Err()
}

// Create inserts a new slot.
func (r *TimetableRepository) Create(ctx context.Context, s *model.TimetableSlot) error {
	s.ID = uuid.New()
	return r.pool.QueryRow(ctx,
		`INSERT INTO timetable_slots (id, course_id, teacher_id, class_id, day_of_week, start_minute, end_minute, semester, academic_year, room)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		s.ID, s.CourseID, s.TeacherID, s.ClassID, s.DayOfWeek, int(s.StartTime), int(s.EndTime), s.Semester, s.AcademicYear, s.Room,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// UpdateFields applies a partial update; fields maps column names to values.
// Returns false when no row matched.
func (r *TimetableRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
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

	query := fmt.Sprintf(`UPDATE timetable_slots SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a slot. Returns whether a row existed.
func (r *TimetableRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanSlot(row pgx.Row) (*model.TimetableSlot, error) {
	s := &model.TimetableSlot{}
	var startMinute, endMinute int
	err := row.Scan(&s.ID, &s.CourseID, &s.TeacherID, &s.ClassID, &s.DayOfWeek,
		&startMinute, &endMinute, &s.Semester, &s.AcademicYear, &s.Room, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.StartTime = model.Clock(startMinute)
	s.EndTime = model.Clock(endMinute)
	return s, nil
}
