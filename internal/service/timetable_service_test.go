package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/scholaris/scholaris-backend/internal/config"
	"github.com/scholaris/scholaris-backend/internal/model"
)

// ----------------------------------------------------------------
// Fakes
// ----------------------------------------------------------------

type fakeTimetableStore struct {
	slots map[uuid.UUID]*model.TimetableSlot
}

func newFakeTimetableStore() *fakeTimetableStore {
	return &fakeTimetableStore{slots: map[uuid.UUID]*model.TimetableSlot{}}
}

func (f *fakeTimetableStore) addSlot(s *model.TimetableSlot) *model.TimetableSlot {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.slots[s.ID] = s
	return s
}

func (f *fakeTimetableStore) GetByID(_ context.Context, id uuid.UUID) (*model.TimetableSlot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, errors.New("slot not found")
	}
	return s, nil
}

func (f *fakeTimetableStore) ListForDay(_ context.Context, semester, academicYear string, dayOfWeek int) ([]model.TimetableSlot, error) {
	var out []model.TimetableSlot
	for _, s := range f.slots {
		if s.Semester == semester && s.AcademicYear == academicYear && s.DayOfWeek == dayOfWeek {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeTimetableStore) ListBySemester(_ context.Context, semester, academicYear string) ([]model.TimetableSlot, error) {
	var out []model.TimetableSlot
	for _, s := range f.slots {
		if s.Semester == semester && s.AcademicYear == academicYear {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeTimetableStore) Create(_ context.Context, s *model.TimetableSlot) error {
	f.addSlot(s)
	return nil
}

func (f *fakeTimetableStore) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
	s, ok := f.slots[id]
	if !ok {
		return false, nil
	}
	for k, v := range fields {
		switch k {
		case "course_id":
			s.CourseID = v.(int)
		case "teacher_id":
			s.TeacherID = v.(int)
		case "class_id":
			s.ClassID = v.(int)
		case "day_of_week":
			s.DayOfWeek = v.(int)
		case "start_minute":
			s.StartTime = model.Clock(v.(int))
		case "end_minute":
			s.EndTime = model.Clock(v.(int))
		case "semester":
			s.Semester = v.(string)
		case "academic_year":
			s.AcademicYear = v.(string)
		case "room":
			s.Room = v.(string)
		}
	}
	return true, nil
}

func (f *fakeTimetableStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.slots[id]; !ok {
		return false, nil
	}
	delete(f.slots, id)
	return true, nil
}

// recordingLocker counts acquisitions; the lock is always granted.
type recordingLocker struct {
	keys []string
}

func (l *recordingLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.keys = append(l.keys, key)
	return func() {}, nil
}

// ----------------------------------------------------------------
// Harness
// ----------------------------------------------------------------

func newTestTimetableService(store *fakeTimetableStore) (*TimetableService, *recordingLocker) {
	locker := &recordingLocker{}
	cfg := &config.Config{TimetableLockTTL: 5 * time.Second}
	return NewTimetableService(store, locker, cfg, zerolog.Nop()), locker
}

func clock(s string) model.Clock {
	c, err := model.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func baseSlot() *model.TimetableSlot {
	return &model.TimetableSlot{
		CourseID:     55,
		TeacherID:    9,
		ClassID:      3,
		DayOfWeek:    2,
		StartTime:    clock("09:00"),
		EndTime:      clock("10:00"),
		Semester:     "T1",
		AcademicYear: "2026/2027",
	}
}

// ----------------------------------------------------------------
// CreateSlot
// ----------------------------------------------------------------

func TestCreateSlotDetectsTeacherOverlap(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	first := baseSlot()
	if err := svc.CreateSlot(context.Background(), first); err != nil {
		t.Fatalf("first slot: %v", err)
	}

	// Same teacher, different class, overlapping interval on the same day.
	second := baseSlot()
	second.CourseID = 71
	second.ClassID = 4
	second.StartTime = clock("09:30")
	second.EndTime = clock("10:30")

	err := svc.CreateSlot(context.Background(), second)
	var conflict *model.SlotConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SlotConflictError, got %v", err)
	}
	if len(conflict.SlotIDs) != 1 || conflict.SlotIDs[0] != first.ID {
		t.Errorf("conflicting ids = %v, want [%s]", conflict.SlotIDs, first.ID)
	}
}

func TestCreateSlotDetectsClassOverlap(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	first := baseSlot()
	if err := svc.CreateSlot(context.Background(), first); err != nil {
		t.Fatalf("first slot: %v", err)
	}

	// Different teacher, same class: the class cannot attend two courses at once.
	second := baseSlot()
	second.TeacherID = 10
	second.StartTime = clock("09:45")
	second.EndTime = clock("11:00")

	err := svc.CreateSlot(context.Background(), second)
	var conflict *model.SlotConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SlotConflictError, got %v", err)
	}
}

func TestCreateSlotAllowsDifferentDay(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	if err := svc.CreateSlot(context.Background(), baseSlot()); err != nil {
		t.Fatalf("first slot: %v", err)
	}

	second := baseSlot()
	second.DayOfWeek = 3
	if err := svc.CreateSlot(context.Background(), second); err != nil {
		t.Fatalf("different day must not conflict: %v", err)
	}
}

func TestCreateSlotAllowsDifferentSemester(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	if err := svc.CreateSlot(context.Background(), baseSlot()); err != nil {
		t.Fatalf("first slot: %v", err)
	}

	second := baseSlot()
	second.Semester = "T2"
	if err := svc.CreateSlot(context.Background(), second); err != nil {
		t.Fatalf("different semester must not conflict: %v", err)
	}
}

func TestCreateSlotAllowsTouchingIntervals(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	if err := svc.CreateSlot(context.Background(), baseSlot()); err != nil {
		t.Fatalf("first slot: %v", err)
	}

	// 10:00-11:00 starts exactly where 09:00-10:00 ends.
	second := baseSlot()
	second.StartTime = clock("10:00")
	second.EndTime = clock("11:00")
	if err := svc.CreateSlot(context.Background(), second); err != nil {
		t.Fatalf("touching intervals must not conflict: %v", err)
	}
}

func TestCreateSlotRejectsBadWindow(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	slot := baseSlot()
	slot.StartTime = clock("10:00")
	slot.EndTime = clock("10:00")
	if err := svc.CreateSlot(context.Background(), slot); !errors.Is(err, ErrInvalidTimeWindow) {
		t.Errorf("expected ErrInvalidTimeWindow for zero-length slot, got %v", err)
	}

	slot = baseSlot()
	slot.DayOfWeek = 8
	if err := svc.CreateSlot(context.Background(), slot); !errors.Is(err, ErrInvalidDayOfWeek) {
		t.Errorf("expected ErrInvalidDayOfWeek, got %v", err)
	}
}

func TestCreateSlotTakesBothLocks(t *testing.T) {
	store := newFakeTimetableStore()
	svc, locker := newTestTimetableService(store)

	if err := svc.CreateSlot(context.Background(), baseSlot()); err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if len(locker.keys) != 2 {
		t.Fatalf("expected teacher and class locks, got %v", locker.keys)
	}
	if locker.keys[0] == locker.keys[1] {
		t.Error("teacher and class lock keys must differ")
	}
}

// ----------------------------------------------------------------
// UpdateSlot
// ----------------------------------------------------------------

func TestUpdateSlotRoomOnlyDoesNotConflictWithItself(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	slot := store.addSlot(baseSlot())

	room := "B-204"
	updated, err := svc.UpdateSlot(context.Background(), slot.ID, UpdateSlotInput{Room: &room})
	if err != nil {
		t.Fatalf("room-only update must not conflict with the slot itself: %v", err)
	}
	if updated.Room != "B-204" {
		t.Errorf("room = %q, want B-204", updated.Room)
	}
	if updated.StartTime != slot.StartTime || updated.EndTime != slot.EndTime {
		t.Error("times must be unchanged by a room-only update")
	}
}

func TestUpdateSlotDetectsConflictOnMove(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	blocker := baseSlot()
	blocker.StartTime = clock("11:00")
	blocker.EndTime = clock("12:00")
	store.addSlot(blocker)

	slot := store.addSlot(baseSlot()) // 09:00-10:00

	start := "11:30"
	end := "12:30"
	in, err := updateInput(start, end)
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.UpdateSlot(context.Background(), slot.ID, in)
	var conflict *model.SlotConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SlotConflictError, got %v", err)
	}
	if len(conflict.SlotIDs) != 1 || conflict.SlotIDs[0] != blocker.ID {
		t.Errorf("conflicting ids = %v, want [%s]", conflict.SlotIDs, blocker.ID)
	}
	// The stored slot must be untouched after a rejected move.
	stored := store.slots[slot.ID]
	if stored.StartTime != clock("09:00") {
		t.Error("rejected update must not mutate the stored slot")
	}
}

func TestUpdateSlotMoveToFreeDaySucceeds(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	slot := store.addSlot(baseSlot())

	newDay := 5
	updated, err := svc.UpdateSlot(context.Background(), slot.ID, UpdateSlotInput{DayOfWeek: &newDay})
	if err != nil {
		t.Fatalf("UpdateSlot: %v", err)
	}
	if updated.DayOfWeek != 5 {
		t.Errorf("day = %d, want 5", updated.DayOfWeek)
	}
	if store.slots[slot.ID].DayOfWeek != 5 {
		t.Error("store not updated")
	}
}

func TestUpdateSlotEmptyInputReturnsCurrent(t *testing.T) {
	store := newFakeTimetableStore()
	svc, locker := newTestTimetableService(store)

	slot := store.addSlot(baseSlot())

	got, err := svc.UpdateSlot(context.Background(), slot.ID, UpdateSlotInput{})
	if err != nil {
		t.Fatalf("UpdateSlot: %v", err)
	}
	if got.ID != slot.ID {
		t.Error("expected the stored slot back")
	}
	if len(locker.keys) != 0 {
		t.Error("empty update must not take locks")
	}
}

func TestUpdateSlotRejectsInvertedMergedWindow(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	slot := store.addSlot(baseSlot()) // 09:00-10:00

	// Only the end moves, to before the stored start.
	end := clock("08:00")
	_, err := svc.UpdateSlot(context.Background(), slot.ID, UpdateSlotInput{End: &end})
	if !errors.Is(err, ErrInvalidTimeWindow) {
		t.Fatalf("expected ErrInvalidTimeWindow, got %v", err)
	}
}

// ----------------------------------------------------------------
// DeleteSlot
// ----------------------------------------------------------------

func TestDeleteSlot(t *testing.T) {
	store := newFakeTimetableStore()
	svc, _ := newTestTimetableService(store)

	slot := store.addSlot(baseSlot())

	existed, err := svc.DeleteSlot(context.Background(), slot.ID)
	if err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if !existed {
		t.Error("expected existed=true")
	}

	existed, err = svc.DeleteSlot(context.Background(), slot.ID)
	if err != nil {
		t.Fatalf("DeleteSlot second call: %v", err)
	}
	if existed {
		t.Error("second delete must report existed=false")
	}
}

func updateInput(start, end string) (UpdateSlotInput, error) {
	s, err := model.ParseClock(start)
	if err != nil {
		return UpdateSlotInput{}, err
	}
	e, err := model.ParseClock(end)
	if err != nil {
		return UpdateSlotInput{}, err
	}
	return UpdateSlotInput{Start: &s, End: &e}, nil
}
