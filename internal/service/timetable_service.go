package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/scholaris/scholaris-backend/internal/config"
	"github.com/scholaris/scholaris-backend/internal/model"
)

// Domain errors.
var (
	ErrInvalidTimeWindow = errors.New("end time must be after start time")
	ErrInvalidDayOfWeek  = errors.New("day_of_week must be between 1 and 7")
)

// TimetableStore is the persistence surface of the scheduler.
type TimetableStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.TimetableSlot, error)
	ListForDay(ctx context.Context, semester, academicYear string, dayOfWeek int) ([]model.TimetableSlot, error)
	ListBySemester(ctx context.Context, semester, academicYear string) ([]model.TimetableSlot, error)
	Create(ctx context.Context, s *model.TimetableSlot) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// KeyLocker serializes conflict validation per contention key. Two writers
// for the same teacher (or class) on the same day/semester must never both
// pass validation against each other; a plain unique constraint cannot
// express interval overlap, so a short-lived lock is taken around the
// check-then-write.
type KeyLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// TimetableService owns timetable slot CRUD and conflict detection.
type TimetableService struct {
	store   TimetableStore
	locker  KeyLocker
	lockTTL time.Duration
	log     zerolog.Logger
}

// NewTimetableService creates a new TimetableService.
func NewTimetableService(store TimetableStore, locker KeyLocker, cfg *config.Config, log zerolog.Logger) *TimetableService {
	return &TimetableService{
		store:   store,
		locker:  locker,
		lockTTL: cfg.TimetableLockTTL,
		log:     log.With().Str("component", "timetable_service").Logger(),
	}
}

// ConflictQuery describes a candidate slot to validate.
type ConflictQuery struct {
	TeacherID     int
	ClassID       int
	DayOfWeek     int
	Start         model.Clock
	End           model.Clock
	Semester      string
	AcademicYear  string
	ExcludeSlotID uuid.UUID
}

// CheckConflicts scans existing slots in the same semester/year on the same
// day and returns the ids of those that share the teacher or the class and
// overlap the candidate's [start, end) interval. ExcludeSlotID skips the
// slot being re-validated on update. An empty result means no conflict.
func (s *TimetableService) CheckConflicts(ctx context.Context, q ConflictQuery) ([]uuid.UUID, error) {
	slots, err := s.store.ListForDay(ctx, q.Semester, q.AcademicYear, q.DayOfWeek)
	if err != nil {
		return nil, err
	}

	var conflicts []uuid.UUID
	for i := range slots {
		slot := &slots[i]
		if slot.ID == q.ExcludeSlotID {
			continue
		}
		if slot.TeacherID != q.TeacherID && slot.ClassID != q.ClassID {
			continue
		}
		if slot.OverlapsWindow(q.Start, q.End) {
			conflicts = append(conflicts, slot.ID)
		}
	}
	return conflicts, nil
}

// CreateSlot validates and persists a new slot. On overlap it returns a
// SlotConflictError naming the conflicting slot ids.
func (s *TimetableService) CreateSlot(ctx context.Context, slot *model.TimetableSlot) error {
	if err := validateSlotWindow(slot.DayOfWeek, slot.StartTime, slot.EndTime); err != nil {
		return err
	}

	release, err := s.lockSlotKeys(ctx, slot.TeacherID, slot.ClassID, slot.DayOfWeek, slot.Semester, slot.AcademicYear)
	if err != nil {
		return err
	}
	defer release()

	conflicts, err := s.CheckConflicts(ctx, ConflictQuery{
		TeacherID:    slot.TeacherID,
		ClassID:      slot.ClassID,
		DayOfWeek:    slot.DayOfWeek,
		Start:        slot.StartTime,
		End:          slot.EndTime,
		Semester:     slot.Semester,
		AcademicYear: slot.AcademicYear,
	})
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &model.SlotConflictError{SlotIDs: conflicts}
	}

	if err := s.store.Create(ctx, slot); err != nil {
		return err
	}

	s.log.Info().Str("slot_id", slot.ID.String()).Int("teacher_id", slot.TeacherID).
		Int("class_id", slot.ClassID).Msg("Timetable slot created")
	return nil
}

// UpdateSlotInput carries partial slot fields; nil means "keep current".
type UpdateSlotInput struct {
	CourseID     *int
	TeacherID    *int
	ClassID      *int
	DayOfWeek    *int
	Start        *model.Clock
	End          *model.Clock
	Semester     *string
	AcademicYear *string
	Room         *string
}

// UpdateSlot merges the partial input over the stored slot, re-validates the
// merged values excluding the slot itself, and persists only the provided
// fields. A slot whose times did not change therefore never conflicts with
// itself.
func (s *TimetableService) UpdateSlot(ctx context.Context, id uuid.UUID, in UpdateSlotInput) (*model.TimetableSlot, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *current
	fields := map[string]any{}
	if in.CourseID != nil {
		merged.CourseID = *in.CourseID
		fields["course_id"] = *in.CourseID
	}
	if in.TeacherID != nil {
		merged.TeacherID = *in.TeacherID
		fields["teacher_id"] = *in.TeacherID
	}
	if in.ClassID != nil {
		merged.ClassID = *in.ClassID
		fields["class_id"] = *in.ClassID
	}
	if in.DayOfWeek != nil {
		merged.DayOfWeek = *in.DayOfWeek
		fields["day_of_week"] = *in.DayOfWeek
	}
	if in.Start != nil {
		merged.StartTime = *in.Start
		fields["start_minute"] = int(*in.Start)
	}
	if in.End != nil {
		merged.EndTime = *in.End
		fields["end_minute"] = int(*in.End)
	}
	if in.Semester != nil {
		merged.Semester = *in.Semester
		fields["semester"] = *in.Semester
	}
	if in.AcademicYear != nil {
		merged.AcademicYear = *in.AcademicYear
		fields["academic_year"] = *in.AcademicYear
	}
	if in.Room != nil {
		merged.Room = *in.Room
		fields["room"] = *in.Room
	}

	if len(fields) == 0 {
		return current, nil
	}

	if err := validateSlotWindow(merged.DayOfWeek, merged.StartTime, merged.EndTime); err != nil {
		return nil, err
	}

	release, err := s.lockSlotKeys(ctx, merged.TeacherID, merged.ClassID, merged.DayOfWeek, merged.Semester, merged.AcademicYear)
	if err != nil {
		return nil, err
	}
	defer release()

	conflicts, err := s.CheckConflicts(ctx, ConflictQuery{
		TeacherID:     merged.TeacherID,
		ClassID:       merged.ClassID,
		DayOfWeek:     merged.DayOfWeek,
		Start:         merged.StartTime,
		End:           merged.EndTime,
		Semester:      merged.Semester,
		AcademicYear:  merged.AcademicYear,
		ExcludeSlotID: id,
	})
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &model.SlotConflictError{SlotIDs: conflicts}
	}

	found, err := s.store.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("slot %s disappeared during update", id)
	}
	return &merged, nil
}

// GetSlot retrieves one slot by id.
func (s *TimetableService) GetSlot(ctx context.Context, id uuid.UUID) (*model.TimetableSlot, error) {
	return s.store.GetByID(ctx, id)
}

// ListBySemester returns a semester's full schedule.
func (s *TimetableService) ListBySemester(ctx context.Context, semester, academicYear string) ([]model.TimetableSlot, error) {
	slots, err := s.store.ListBySemester(ctx, semester, academicYear)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []model.TimetableSlot{}
	}
	return slots, nil
}

// DeleteSlot removes a slot unconditionally. Returns whether it existed.
// Deletion has no cascading effect on enrollments.
func (s *TimetableService) DeleteSlot(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.Delete(ctx, id)
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

// lockSlotKeys takes the teacher lock then the class lock. Every writer
// acquires in the same order, so the two keyed locks cannot deadlock.
func (s *TimetableService) lockSlotKeys(ctx context.Context, teacherID, classID, day int, semester, academicYear string) (func(), error) {
	releaseTeacher, err := s.locker.Acquire(ctx,
		config.CacheKey.TimetableTeacherLockKey(teacherID, day, semester, academicYear), s.lockTTL)
	if err != nil {
		return nil, err
	}

	releaseClass, err := s.locker.Acquire(ctx,
		config.CacheKey.TimetableClassLockKey(classID, day, semester, academicYear), s.lockTTL)
	if err != nil {
		releaseTeacher()
		return nil, err
	}

	return func() {
		releaseClass()
		releaseTeacher()
	}, nil
}

func validateSlotWindow(dayOfWeek int, start, end model.Clock) error {
	if dayOfWeek < 1 || dayOfWeek > 7 {
		return ErrInvalidDayOfWeek
	}
	if end <= start {
		return ErrInvalidTimeWindow
	}
	return nil
}
