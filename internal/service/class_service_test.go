package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/scholaris/scholaris-backend/internal/config"
	"github.com/scholaris/scholaris-backend/internal/model"
)

// ----------------------------------------------------------------
// Fakes
// ----------------------------------------------------------------

// fakeClassStore mirrors the repository's semantics in memory, including the
// one-active-class conflict check, so service tests exercise the real
// decision paths.
type fakeClassStore struct {
	classes map[int]*model.Class
	rosters map[int]map[int]bool
	courses map[int]map[int]bool
	nextID  int
}

func newFakeClassStore() *fakeClassStore {
	return &fakeClassStore{
		classes: map[int]*model.Class{},
		rosters: map[int]map[int]bool{},
		courses: map[int]map[int]bool{},
		nextID:  1,
	}
}

func (f *fakeClassStore) addClass(c *model.Class) *model.Class {
	c.ID = f.nextID
	f.nextID++
	f.classes[c.ID] = c
	f.rosters[c.ID] = map[int]bool{}
	f.courses[c.ID] = map[int]bool{}
	return c
}

func (f *fakeClassStore) conflictFor(studentID int, target *model.Class) *model.Class {
	for id, members := range f.rosters {
		if id == target.ID || !members[studentID] {
			continue
		}
		other := f.classes[id]
		if other.IsActive && other.WindowOverlaps(target.StartDate, target.EndDate) {
			return other
		}
	}
	return nil
}

func (f *fakeClassStore) GetByID(_ context.Context, id int) (*model.Class, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, fmt.Errorf("class %d not found", id)
	}
	return c, nil
}

func (f *fakeClassStore) GetDetail(_ context.Context, id int) (*model.ClassDetail, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, fmt.Errorf("class %d not found", id)
	}
	return &model.ClassDetail{Class: *c}, nil
}

func (f *fakeClassStore) List(_ context.Context, limit, offset int) ([]model.Class, int, error) {
	ids := make([]int, 0, len(f.classes))
	for id := range f.classes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var out []model.Class
	for i, id := range ids {
		if i >= offset && len(out) < limit {
			out = append(out, *f.classes[id])
		}
	}
	return out, len(ids), nil
}

func (f *fakeClassStore) CreateWithRoster(_ context.Context, c *model.Class, roster []int) error {
	c.IsActive = true
	staged := f.addClass(c)
	accepted := []int{}
	for _, studentID := range roster {
		if other := f.conflictFor(studentID, staged); other != nil {
			delete(f.classes, staged.ID)
			delete(f.rosters, staged.ID)
			delete(f.courses, staged.ID)
			return &model.ActiveClassError{
				StudentID:     studentID,
				ActiveClassID: other.ID,
				Accepted:      accepted,
			}
		}
		f.rosters[staged.ID][studentID] = true
		accepted = append(accepted, studentID)
	}
	return nil
}

func (f *fakeClassStore) AddMember(_ context.Context, c *model.Class, studentID int) (bool, error) {
	if f.rosters[c.ID][studentID] {
		return false, nil
	}
	if other := f.conflictFor(studentID, c); other != nil {
		return false, &model.ActiveClassError{StudentID: studentID, ActiveClassID: other.ID}
	}
	f.rosters[c.ID][studentID] = true
	return true, nil
}

func (f *fakeClassStore) RemoveMember(_ context.Context, classID, studentID int) (bool, error) {
	if !f.rosters[classID][studentID] {
		return false, nil
	}
	delete(f.rosters[classID], studentID)
	return true, nil
}

func (f *fakeClassStore) Roster(_ context.Context, classID int) ([]int, error) {
	var ids []int
	for id := range f.rosters[classID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (f *fakeClassStore) AttachCourse(_ context.Context, classID, courseID int) (bool, error) {
	if f.courses[classID][courseID] {
		return false, nil
	}
	f.courses[classID][courseID] = true
	return true, nil
}

func (f *fakeClassStore) DetachCourse(_ context.Context, classID, courseID int) (bool, error) {
	if !f.courses[classID][courseID] {
		return false, nil
	}
	delete(f.courses[classID], courseID)
	return true, nil
}

func (f *fakeClassStore) CourseIDs(_ context.Context, classID int) ([]int, error) {
	var ids []int
	for id := range f.courses[classID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (f *fakeClassStore) UpdateFields(_ context.Context, id int, fields map[string]any) (bool, error) {
	c, ok := f.classes[id]
	if !ok {
		return false, nil
	}
	for k, v := range fields {
		switch k {
		case "name":
			c.Name = v.(string)
		case "academic_year":
			c.AcademicYear = v.(string)
		case "start_date":
			c.StartDate = v.(time.Time)
		case "end_date":
			c.EndDate = v.(time.Time)
		case "is_active":
			c.IsActive = v.(bool)
		case "department_id":
			c.DepartmentID = v.(int)
		}
	}
	return true, nil
}

func (f *fakeClassStore) FindByStudent(_ context.Context, studentID int) ([]model.Class, error) {
	var out []model.Class
	ids := make([]int, 0, len(f.rosters))
	for id := range f.rosters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if f.rosters[id][studentID] {
			out = append(out, *f.classes[id])
		}
	}
	return out, nil
}

// allExist satisfies ExistenceChecker and StudentLookup: every id exists
// unless listed in missing.
type allExist struct {
	missing map[int]bool
}

func (a allExist) Exists(_ context.Context, id int) (bool, error) {
	return !a.missing[id], nil
}

func (a allExist) MissingIDs(_ context.Context, ids []int) ([]int, error) {
	var out []int
	for _, id := range ids {
		if a.missing[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// recordingEnroller records cascade calls and can fail on demand.
type recordingEnroller struct {
	enrolls    [][2][]int // studentIDs, courseIDs per call
	unenrolls  []struct {
		StudentID int
		CourseIDs []int
	}
	failEnroll bool
}

func (r *recordingEnroller) Enroll(_ context.Context, studentIDs, courseIDs []int) error {
	if r.failEnroll {
		return errors.New("enrollment store down")
	}
	r.enrolls = append(r.enrolls, [2][]int{studentIDs, courseIDs})
	return nil
}

func (r *recordingEnroller) Unenroll(_ context.Context, studentID int, courseIDs []int) error {
	r.unenrolls = append(r.unenrolls, struct {
		StudentID int
		CourseIDs []int
	}{studentID, courseIDs})
	return nil
}

// ----------------------------------------------------------------
// Harness
// ----------------------------------------------------------------

func newTestClassService(store *fakeClassStore, enroller *recordingEnroller) *ClassService {
	cfg := &config.Config{ClassCacheTTL: time.Minute}
	svc := NewClassService(store, allExist{}, allExist{}, allExist{}, allExist{}, enroller, nil, cfg, zerolog.Nop())
	svc.now = func() time.Time { return day("2026-03-01") }
	return svc
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func activeClass(store *fakeClassStore, roster ...int) *model.Class {
	c := store.addClass(&model.Class{
		DepartmentID: 1,
		Name:         "10-A",
		AcademicYear: "2026/2027",
		StartDate:    day("2026-01-10"),
		EndDate:      day("2026-06-30"),
		IsActive:     true,
	})
	for _, id := range roster {
		store.rosters[c.ID][id] = true
	}
	return c
}

// ----------------------------------------------------------------
// Create
// ----------------------------------------------------------------

func TestCreateRejectsEmptyRoster(t *testing.T) {
	svc := newTestClassService(newFakeClassStore(), &recordingEnroller{})

	_, err := svc.Create(context.Background(), CreateClassInput{
		DepartmentID: 1,
		Name:         "10-A",
		AcademicYear: "2026/2027",
		StartDate:    day("2026-01-10"),
		EndDate:      day("2026-06-30"),
	})
	if !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	svc := newTestClassService(newFakeClassStore(), &recordingEnroller{})

	_, err := svc.Create(context.Background(), CreateClassInput{
		DepartmentID: 1,
		Name:         "10-A",
		AcademicYear: "2026/2027",
		StartDate:    day("2026-06-30"),
		EndDate:      day("2026-01-10"),
		StudentIDs:   []int{1},
	})
	if !errors.Is(err, ErrInvalidDateWindow) {
		t.Fatalf("expected ErrInvalidDateWindow, got %v", err)
	}
}

func TestCreateConflictReportsAcceptedSoFar(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})

	// Student 12 already sits in an overlapping active class.
	existing := activeClass(store, 12)

	_, err := svc.Create(context.Background(), CreateClassInput{
		DepartmentID: 1,
		Name:         "10-B",
		AcademicYear: "2026/2027",
		StartDate:    day("2026-02-01"),
		EndDate:      day("2026-07-31"),
		StudentIDs:   []int{10, 11, 12, 13},
	})

	var conflict *model.ActiveClassError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ActiveClassError, got %v", err)
	}
	if conflict.StudentID != 12 {
		t.Errorf("conflict student = %d, want 12", conflict.StudentID)
	}
	if conflict.ActiveClassID != existing.ID {
		t.Errorf("conflict class = %d, want %d", conflict.ActiveClassID, existing.ID)
	}
	if len(conflict.Accepted) != 2 || conflict.Accepted[0] != 10 || conflict.Accepted[1] != 11 {
		t.Errorf("accepted = %v, want [10 11]", conflict.Accepted)
	}

	// Nothing may survive the failed create.
	if len(store.classes) != 1 {
		t.Errorf("expected only the pre-existing class to remain, got %d", len(store.classes))
	}
}

func TestCreateAllowsDisjointWindows(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})

	activeClass(store, 12) // ends 2026-06-30

	class, err := svc.Create(context.Background(), CreateClassInput{
		DepartmentID: 1,
		Name:         "11-A",
		AcademicYear: "2027/2028",
		StartDate:    day("2026-07-01"),
		EndDate:      day("2026-12-20"),
		StudentIDs:   []int{12},
	})
	if err != nil {
		t.Fatalf("expected success for non-overlapping window, got %v", err)
	}
	if !store.rosters[class.ID][12] {
		t.Error("student 12 missing from new roster")
	}
}

// ----------------------------------------------------------------
// Roster mutation
// ----------------------------------------------------------------

func TestAddStudentCascadesEnrollment(t *testing.T) {
	store := newFakeClassStore()
	enroller := &recordingEnroller{}
	svc := newTestClassService(store, enroller)

	c := activeClass(store)
	store.courses[c.ID][55] = true
	store.courses[c.ID][56] = true

	if err := svc.AddStudent(context.Background(), c.ID, 7); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}

	if len(enroller.enrolls) != 1 {
		t.Fatalf("expected 1 enroll call, got %d", len(enroller.enrolls))
	}
	call := enroller.enrolls[0]
	if len(call[0]) != 1 || call[0][0] != 7 {
		t.Errorf("enrolled students = %v, want [7]", call[0])
	}
	if len(call[1]) != 2 || call[1][0] != 55 || call[1][1] != 56 {
		t.Errorf("enrolled courses = %v, want [55 56]", call[1])
	}
}

func TestAddStudentsStopsAtFirstFailure(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})

	blocker := activeClass(store, 3)
	target := activeClass(store)

	applied, err := svc.AddStudents(context.Background(), target.ID, []int{1, 2, 3, 4})

	var conflict *model.ActiveClassError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ActiveClassError, got %v", err)
	}
	if conflict.ActiveClassID != blocker.ID {
		t.Errorf("conflict class = %d, want %d", conflict.ActiveClassID, blocker.ID)
	}
	if len(applied) != 2 || applied[0] != 1 || applied[1] != 2 {
		t.Errorf("applied = %v, want [1 2]", applied)
	}
	if len(conflict.Accepted) != 2 {
		t.Errorf("conflict.Accepted = %v, want [1 2]", conflict.Accepted)
	}
	// Student 4 must not have been touched.
	if store.rosters[target.ID][4] {
		t.Error("student 4 was added after the failure point")
	}
}

func TestAddStudentTwiceIsNoOp(t *testing.T) {
	store := newFakeClassStore()
	enroller := &recordingEnroller{}
	svc := newTestClassService(store, enroller)

	c := activeClass(store, 7)
	store.courses[c.ID][55] = true

	if err := svc.AddStudent(context.Background(), c.ID, 7); err != nil {
		t.Fatalf("re-adding a member must succeed: %v", err)
	}
	if len(enroller.enrolls) != 0 {
		t.Errorf("no cascade expected for an existing member, got %d calls", len(enroller.enrolls))
	}
}

func TestAddStudentRejectsInactiveAndExpired(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})

	inactive := activeClass(store)
	inactive.IsActive = false
	if err := svc.AddStudent(context.Background(), inactive.ID, 7); !errors.Is(err, ErrClassNotActive) {
		t.Errorf("expected ErrClassNotActive, got %v", err)
	}

	expired := activeClass(store)
	expired.StartDate = day("2025-01-10")
	expired.EndDate = day("2025-06-30")
	if err := svc.AddStudent(context.Background(), expired.ID, 7); !errors.Is(err, ErrClassExpired) {
		t.Errorf("expected ErrClassExpired, got %v", err)
	}
}

func TestAddStudentCascadeFailureSurfaces(t *testing.T) {
	store := newFakeClassStore()
	enroller := &recordingEnroller{failEnroll: true}
	svc := newTestClassService(store, enroller)

	c := activeClass(store)
	store.courses[c.ID][55] = true

	err := svc.AddStudent(context.Background(), c.ID, 7)
	if !errors.Is(err, ErrCascadeIncomplete) {
		t.Fatalf("expected ErrCascadeIncomplete, got %v", err)
	}
	// The roster write itself is durable.
	if !store.rosters[c.ID][7] {
		t.Error("roster write must survive a failed cascade")
	}
}

func TestRemoveStudentUnenrollsClassCourses(t *testing.T) {
	store := newFakeClassStore()
	enroller := &recordingEnroller{}
	svc := newTestClassService(store, enroller)

	c := activeClass(store, 7)
	store.courses[c.ID][55] = true
	store.courses[c.ID][56] = true

	if err := svc.RemoveStudent(context.Background(), c.ID, 7); err != nil {
		t.Fatalf("RemoveStudent: %v", err)
	}
	if store.rosters[c.ID][7] {
		t.Error("student still on roster")
	}
	if len(enroller.unenrolls) != 1 {
		t.Fatalf("expected 1 unenroll call, got %d", len(enroller.unenrolls))
	}
	got := enroller.unenrolls[0]
	if got.StudentID != 7 || len(got.CourseIDs) != 2 {
		t.Errorf("unenroll = %+v, want student 7 from [55 56]", got)
	}
}

func TestRemoveAbsentStudentIsNoOp(t *testing.T) {
	store := newFakeClassStore()
	enroller := &recordingEnroller{}
	svc := newTestClassService(store, enroller)

	c := activeClass(store)
	if err := svc.RemoveStudent(context.Background(), c.ID, 99); err != nil {
		t.Fatalf("removing an absent student must succeed: %v", err)
	}
	if len(enroller.unenrolls) != 0 {
		t.Error("no unenroll expected for an absent student")
	}
}

// ----------------------------------------------------------------
// Cache invalidation
// ----------------------------------------------------------------

func recordInvalidations(svc *ClassService) *[]int {
	var invalidated []int
	svc.invalidate = func(_ context.Context, classID int) {
		invalidated = append(invalidated, classID)
	}
	return &invalidated
}

func TestAddStudentsPartialFailureInvalidatesCache(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})
	invalidated := recordInvalidations(svc)

	activeClass(store, 3) // blocks student 3
	target := activeClass(store)

	_, err := svc.AddStudents(context.Background(), target.ID, []int{1, 2, 3})
	var conflict *model.ActiveClassError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ActiveClassError, got %v", err)
	}
	// Students 1 and 2 landed, so the cached detail must go.
	if len(*invalidated) != 1 || (*invalidated)[0] != target.ID {
		t.Errorf("invalidated = %v, want [%d]", *invalidated, target.ID)
	}
}

func TestAddStudentCascadeFailureInvalidatesCache(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{failEnroll: true})
	invalidated := recordInvalidations(svc)

	c := activeClass(store)
	store.courses[c.ID][55] = true

	if err := svc.AddStudent(context.Background(), c.ID, 7); !errors.Is(err, ErrCascadeIncomplete) {
		t.Fatalf("expected ErrCascadeIncomplete, got %v", err)
	}
	if len(*invalidated) != 1 || (*invalidated)[0] != c.ID {
		t.Errorf("invalidated = %v, want [%d]", *invalidated, c.ID)
	}
}

func TestUpdatePartialRosterFailureInvalidatesCache(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})
	invalidated := recordInvalidations(svc)

	activeClass(store, 9) // blocks student 9
	c := activeClass(store, 1)

	name := "10-Z"
	roster := []int{1, 9}
	changed, err := svc.Update(context.Background(), c.ID, UpdateClassInput{Name: &name, Roster: &roster})
	if err == nil {
		t.Fatal("expected the roster replacement to fail on student 9")
	}
	if !changed {
		t.Error("the name update landed, changed must be true")
	}
	if len(*invalidated) != 1 || (*invalidated)[0] != c.ID {
		t.Errorf("invalidated = %v, want [%d]", *invalidated, c.ID)
	}
}

// ----------------------------------------------------------------
// Course attachment
// ----------------------------------------------------------------

func TestAddCoursesEnrollsRoster(t *testing.T) {
	store := newFakeClassStore()
	enroller := &recordingEnroller{}
	svc := newTestClassService(store, enroller)

	c := activeClass(store, 1, 2, 3)

	applied, err := svc.AddCourses(context.Background(), c.ID, []int{55})
	if err != nil {
		t.Fatalf("AddCourses: %v", err)
	}
	if len(applied) != 1 || applied[0] != 55 {
		t.Errorf("applied = %v, want [55]", applied)
	}
	if len(enroller.enrolls) != 1 {
		t.Fatalf("expected 1 enroll call, got %d", len(enroller.enrolls))
	}
	if got := enroller.enrolls[0][0]; len(got) != 3 {
		t.Errorf("enrolled students = %v, want the full roster", got)
	}
}

func TestAddCourseTwiceSkipsCascade(t *testing.T) {
	store := newFakeClassStore()
	enroller := &recordingEnroller{}
	svc := newTestClassService(store, enroller)

	c := activeClass(store, 1)
	store.courses[c.ID][55] = true

	applied, err := svc.AddCourses(context.Background(), c.ID, []int{55})
	if err != nil {
		t.Fatalf("AddCourses: %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("duplicate attach still counts as applied, got %v", applied)
	}
	if len(enroller.enrolls) != 0 {
		t.Error("no cascade expected for an already attached course")
	}
}

func TestRemoveCoursesUnenrollsRoster(t *testing.T) {
	store := newFakeClassStore()
	enroller := &recordingEnroller{}
	svc := newTestClassService(store, enroller)

	c := activeClass(store, 1, 2)
	store.courses[c.ID][55] = true

	applied, err := svc.RemoveCourses(context.Background(), c.ID, []int{55})
	if err != nil {
		t.Fatalf("RemoveCourses: %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("applied = %v, want [55]", applied)
	}
	if len(enroller.unenrolls) != 2 {
		t.Fatalf("expected one unenroll per roster student, got %d", len(enroller.unenrolls))
	}
}

// ----------------------------------------------------------------
// Update / roster replacement
// ----------------------------------------------------------------

func TestUpdateReplacesRosterThroughCheckedPath(t *testing.T) {
	store := newFakeClassStore()
	enroller := &recordingEnroller{}
	svc := newTestClassService(store, enroller)

	c := activeClass(store, 1, 2)
	store.courses[c.ID][55] = true

	roster := []int{2, 3}
	changed, err := svc.Update(context.Background(), c.ID, UpdateClassInput{Roster: &roster})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !changed {
		t.Error("expected changed=true")
	}

	got, _ := store.Roster(context.Background(), c.ID)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("roster = %v, want [2 3]", got)
	}
	// 3 joined the courses, 1 left them.
	if len(enroller.enrolls) != 1 || enroller.enrolls[0][0][0] != 3 {
		t.Errorf("enrolls = %v, want one call for student 3", enroller.enrolls)
	}
	if len(enroller.unenrolls) != 1 || enroller.unenrolls[0].StudentID != 1 {
		t.Errorf("unenrolls = %+v, want one call for student 1", enroller.unenrolls)
	}
}

func TestUpdateRejectsInvertedMergedWindow(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})

	c := activeClass(store)
	end := day("2026-01-01") // before the stored start date
	_, err := svc.Update(context.Background(), c.ID, UpdateClassInput{EndDate: &end})
	if !errors.Is(err, ErrInvalidDateWindow) {
		t.Fatalf("expected ErrInvalidDateWindow, got %v", err)
	}
}

func TestUpdateNoFieldsIsNoChange(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})

	c := activeClass(store)
	changed, err := svc.Update(context.Background(), c.ID, UpdateClassInput{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if changed {
		t.Error("empty update must report no change")
	}
}

// ----------------------------------------------------------------
// FindByStudent
// ----------------------------------------------------------------

func TestFindByStudentActiveOnly(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})

	c := activeClass(store, 7)
	inactive := activeClass(store, 7)
	inactive.IsActive = false
	past := activeClass(store, 7) // flag still set, but the window ended
	past.StartDate = day("2025-01-10")
	past.EndDate = day("2025-06-30")

	classes, err := svc.FindByStudent(context.Background(), 7, true)
	if err != nil {
		t.Fatalf("FindByStudent: %v", err)
	}
	if len(classes) != 1 || classes[0].ID != c.ID {
		t.Errorf("classes = %v, want only class %d", classes, c.ID)
	}

	all, err := svc.FindByStudent(context.Background(), 7, false)
	if err != nil {
		t.Fatalf("FindByStudent: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d classes without the active filter, want 3", len(all))
	}
}

func TestFindByStudentReportsBrokenInvariant(t *testing.T) {
	store := newFakeClassStore()
	svc := newTestClassService(store, &recordingEnroller{})

	// Corrupt state: student 7 active in two classes at once.
	activeClass(store, 7)
	activeClass(store, 7)

	_, err := svc.FindByStudent(context.Background(), 7, true)
	var consistency *model.ConsistencyError
	if !errors.As(err, &consistency) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
}
