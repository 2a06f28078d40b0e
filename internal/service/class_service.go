package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/scholaris/scholaris-backend/internal/config"
	"github.com/scholaris/scholaris-backend/internal/model"
	"github.com/scholaris/scholaris-backend/internal/response"
)

// Domain errors.
var (
	ErrEmptyRoster        = errors.New("initial roster must not be empty")
	ErrInvalidDateWindow  = errors.New("end_date must not precede start_date")
	ErrClassNotActive     = errors.New("class is not active")
	ErrClassExpired       = errors.New("class date window has ended")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrCourseNotFound     = errors.New("course not found")
	// ErrCascadeIncomplete marks a roster/course write whose enrollment
	// cascade did not finish. The write itself is durable; a reconcile job
	// has been queued to drive enrollments to convergence.
	ErrCascadeIncomplete = errors.New("enrollment cascade incomplete")
)

// ClassStore is the persistence surface of the class engine. The
// implementation owns transactions and the advisory locks that serialize
// per-student roster writes.
type ClassStore interface {
	GetByID(ctx context.Context, id int) (*model.Class, error)
	GetDetail(ctx context.Context, id int) (*model.ClassDetail, error)
	List(ctx context.Context, limit, offset int) ([]model.Class, int, error)
	CreateWithRoster(ctx context.Context, c *model.Class, roster []int) error
	AddMember(ctx context.Context, c *model.Class, studentID int) (bool, error)
	RemoveMember(ctx context.Context, classID, studentID int) (bool, error)
	Roster(ctx context.Context, classID int) ([]int, error)
	AttachCourse(ctx context.Context, classID, courseID int) (bool, error)
	DetachCourse(ctx context.Context, classID, courseID int) (bool, error)
	CourseIDs(ctx context.Context, classID int) ([]int, error)
	UpdateFields(ctx context.Context, id int, fields map[string]any) (bool, error)
	FindByStudent(ctx context.Context, studentID int) ([]model.Class, error)
}

// ExistenceChecker is the narrow read-only capability used for reference
// lookups, keeping the class engine decoupled from the full student/course
// components.
type ExistenceChecker interface {
	Exists(ctx context.Context, id int) (bool, error)
}

// StudentLookup extends ExistenceChecker with a batch variant for roster
// validation.
type StudentLookup interface {
	ExistenceChecker
	MissingIDs(ctx context.Context, ids []int) ([]int, error)
}

// Enroller is the cascade surface of the enrollment synchronizer.
type Enroller interface {
	Enroll(ctx context.Context, studentIDs, courseIDs []int) error
	Unenroll(ctx context.Context, studentID int, courseIDs []int) error
}

// ReconcileJob is the payload queued for the reconcile worker when an
// enrollment cascade fails partway.
type ReconcileJob struct {
	ClassID    int   `json:"class_id"`
	StudentIDs []int `json:"student_ids"`
	CourseIDs  []int `json:"course_ids"`
}

// ClassService owns class lifecycle, roster mutation, and course attachment.
// Every roster/course change triggers the enrollment cascade; membership of
// a student in more than one active class is rejected at write time.
type ClassService struct {
	store       ClassStore
	departments ExistenceChecker
	teachers    ExistenceChecker
	students    StudentLookup
	courses     ExistenceChecker
	enroller    Enroller
	rdb         *redis.Client
	cacheTTL    time.Duration
	log         zerolog.Logger
	now         func() time.Time
	invalidate  func(ctx context.Context, classID int)
}

// NewClassService creates a new ClassService. rdb may be nil, which disables
// the detail cache and the reconcile queue (unit tests, degraded mode).
func NewClassService(
	store ClassStore,
	departments ExistenceChecker,
	teachers ExistenceChecker,
	students StudentLookup,
	courses ExistenceChecker,
	enroller Enroller,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *ClassService {
	s := &ClassService{
		store:       store,
		departments: departments,
		teachers:    teachers,
		students:    students,
		courses:     courses,
		enroller:    enroller,
		rdb:         rdb,
		cacheTTL:    cfg.ClassCacheTTL,
		log:         log.With().Str("component", "class_service").Logger(),
		now:         time.Now,
	}
	s.invalidate = s.invalidateCache
	return s
}

// CreateClassInput is the validated payload for Create.
type CreateClassInput struct {
	DepartmentID int
	Name         string
	AcademicYear string
	StartDate    time.Time
	EndDate      time.Time
	StudentIDs   []int
	CreatedBy    *int
}

// Create persists a new class with its initial roster. No course enrollment
// happens here: a fresh class has no attached courses yet.
func (s *ClassService) Create(ctx context.Context, in CreateClassInput) (*model.Class, error) {
	if len(in.StudentIDs) == 0 {
		return nil, ErrEmptyRoster
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, ErrInvalidDateWindow
	}

	ok, err := s.departments.Exists(ctx, in.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrDepartmentNotFound, in.DepartmentID)
	}

	if in.CreatedBy != nil {
		ok, err := s.teachers.Exists(ctx, *in.CreatedBy)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrTeacherNotFound, *in.CreatedBy)
		}
	}

	missing, err := s.students.MissingIDs(ctx, in.StudentIDs)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: id %d", ErrStudentNotFound, missing[0])
	}

	class := &model.Class{
		DepartmentID: in.DepartmentID,
		Name:         in.Name,
		AcademicYear: in.AcademicYear,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		CreatedBy:    in.CreatedBy,
	}
	if err := s.store.CreateWithRoster(ctx, class, in.StudentIDs); err != nil {
		return nil, err
	}

	s.log.Info().Int("class_id", class.ID).Int("roster", len(in.StudentIDs)).Msg("Class created")
	return class, nil
}

// GetDetail returns the merged class view, read through the Redis cache
// when one is configured.
func (s *ClassService) GetDetail(ctx context.Context, id int) (*model.ClassDetail, error) {
	cacheKey := config.CacheKey.ClassDetailKey(id)

	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var detail model.ClassDetail
			if err := json.Unmarshal([]byte(raw), &detail); err == nil {
				return &detail, nil
			}
		}
	}

	detail, err := s.store.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(detail); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Int("class_id", id).Msg("Class cache write failed")
			}
		}
	}
	return detail, nil
}

// List retrieves classes with pagination.
func (s *ClassService) List(ctx context.Context, page, perPage int) ([]model.Class, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	classes, total, err := s.store.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if classes == nil {
		classes = []model.Class{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return classes, pagination, nil
}

// UpdateClassInput carries the whitelisted mutable fields; nil means "leave
// unchanged". Roster replacement is routed through the same checked
// add/remove path as the dedicated operations, never written raw.
type UpdateClassInput struct {
	Name         *string
	AcademicYear *string
	StartDate    *time.Time
	EndDate      *time.Time
	IsActive     *bool
	DepartmentID *int
	Roster       *[]int
}

// Update applies a partial update. Returns false when the input carries no
// effective change.
func (s *ClassService) Update(ctx context.Context, id int, in UpdateClassInput) (bool, error) {
	class, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	// Validate the merged date window before touching anything.
	start, end := class.StartDate, class.EndDate
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil {
		end = *in.EndDate
	}
	if end.Before(start) {
		return false, ErrInvalidDateWindow
	}

	// Invalidate the cached detail for any durable write, including a roster
	// replacement that fails partway after the field update landed.
	changed := false
	defer func() {
		if changed {
			s.invalidate(ctx, id)
		}
	}()

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.AcademicYear != nil {
		fields["academic_year"] = *in.AcademicYear
	}
	if in.StartDate != nil {
		fields["start_date"] = *in.StartDate
	}
	if in.EndDate != nil {
		fields["end_date"] = *in.EndDate
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.DepartmentID != nil {
		ok, err := s.departments.Exists(ctx, *in.DepartmentID)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("%w: id %d", ErrDepartmentNotFound, *in.DepartmentID)
		}
		fields["department_id"] = *in.DepartmentID
	}

	if len(fields) > 0 {
		if changed, err = s.store.UpdateFields(ctx, id, fields); err != nil {
			return false, err
		}
	}

	if in.Roster != nil {
		rosterChanged, err := s.replaceRoster(ctx, class, *in.Roster)
		changed = changed || rosterChanged
		if err != nil {
			return changed, err
		}
	}

	return changed, nil
}

// replaceRoster diffs the desired roster against the current one and routes
// every element through the checked AddStudent/RemoveStudent paths, so a raw
// roster overwrite cannot bypass the one-active-class invariant.
func (s *ClassService) replaceRoster(ctx context.Context, class *model.Class, desired []int) (bool, error) {
	current, err := s.store.Roster(ctx, class.ID)
	if err != nil {
		return false, err
	}

	currentSet := make(map[int]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	desiredSet := make(map[int]bool, len(desired))
	for _, id := range desired {
		desiredSet[id] = true
	}

	changed := false
	for _, id := range desired {
		if currentSet[id] {
			continue
		}
		if err := s.AddStudent(ctx, class.ID, id); err != nil {
			return changed, err
		}
		changed = true
	}
	for _, id := range current {
		if desiredSet[id] {
			continue
		}
		if err := s.RemoveStudent(ctx, class.ID, id); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}

// AddStudent appends one student to the roster and cascades enrollment into
// every course already attached to the class. Already-member is a no-op
// success.
func (s *ClassService) AddStudent(ctx context.Context, classID, studentID int) error {
	_, err := s.AddStudents(ctx, classID, []int{studentID})
	return err
}

// AddStudents appends students in input order, stopping at the first
// failure. The returned slice lists the ids applied before the failure so
// the caller knows the partial set; on full success it echoes every id that
// was newly added.
func (s *ClassService) AddStudents(ctx context.Context, classID int, studentIDs []int) ([]int, error) {
	applied := []int{}

	// Any durable roster write leaves the cached detail stale, even when a
	// later student in the batch fails.
	wrote := false
	defer func() {
		if wrote {
			s.invalidate(ctx, classID)
		}
	}()

	class, err := s.store.GetByID(ctx, classID)
	if err != nil {
		return applied, err
	}
	if !class.IsActive {
		return applied, ErrClassNotActive
	}
	if class.Expired(s.now()) {
		return applied, ErrClassExpired
	}

	courseIDs, err := s.store.CourseIDs(ctx, classID)
	if err != nil {
		return applied, err
	}

	for _, studentID := range studentIDs {
		ok, err := s.students.Exists(ctx, studentID)
		if err != nil {
			return applied, err
		}
		if !ok {
			return applied, fmt.Errorf("%w: id %d", ErrStudentNotFound, studentID)
		}

		added, err := s.store.AddMember(ctx, class, studentID)
		if err != nil {
			var conflict *model.ActiveClassError
			if errors.As(err, &conflict) {
				conflict.Accepted = applied
			}
			return applied, err
		}
		if !added {
			// Already on the roster.
			continue
		}
		wrote = true

		if err := s.enroller.Enroll(ctx, []int{studentID}, courseIDs); err != nil {
			s.queueReconcile(ctx, ReconcileJob{ClassID: classID, StudentIDs: []int{studentID}, CourseIDs: courseIDs})
			s.log.Error().Err(err).Int("class_id", classID).Int("student_id", studentID).
				Msg("Enrollment cascade failed after roster write")
			return applied, fmt.Errorf("%w: student %d", ErrCascadeIncomplete, studentID)
		}
		applied = append(applied, studentID)
	}

	return applied, nil
}

// RemoveStudent drops a student from the roster and retracts the student's
// enrollments in the class's attached courses. Removal of a non-member is a
// no-op success. The retraction mirrors AddStudent: leaving the roster means
// leaving the class's courses.
func (s *ClassService) RemoveStudent(ctx context.Context, classID, studentID int) error {
	if _, err := s.store.GetByID(ctx, classID); err != nil {
		return err
	}

	existed, err := s.store.RemoveMember(ctx, classID, studentID)
	if err != nil {
		return err
	}
	if !existed {
		return nil
	}
	defer s.invalidate(ctx, classID)

	courseIDs, err := s.store.CourseIDs(ctx, classID)
	if err != nil {
		return err
	}
	if err := s.enroller.Unenroll(ctx, studentID, courseIDs); err != nil {
		s.log.Error().Err(err).Int("class_id", classID).Int("student_id", studentID).
			Msg("Unenrollment cascade failed after roster write")
		return fmt.Errorf("%w: student %d", ErrCascadeIncomplete, studentID)
	}

	return nil
}

// AddCourses attaches courses in input order and cascades enrollment of the
// current roster into each newly attached course. Duplicate attachments are
// no-ops. Stops at the first failure, returning the ids applied before it.
func (s *ClassService) AddCourses(ctx context.Context, classID int, courseIDs []int) ([]int, error) {
	applied := []int{}

	wrote := false
	defer func() {
		if wrote {
			s.invalidate(ctx, classID)
		}
	}()

	if _, err := s.store.GetByID(ctx, classID); err != nil {
		return applied, err
	}

	roster, err := s.store.Roster(ctx, classID)
	if err != nil {
		return applied, err
	}

	for _, courseID := range courseIDs {
		ok, err := s.courses.Exists(ctx, courseID)
		if err != nil {
			return applied, err
		}
		if !ok {
			return applied, fmt.Errorf("%w: id %d", ErrCourseNotFound, courseID)
		}

		attached, err := s.store.AttachCourse(ctx, classID, courseID)
		if err != nil {
			return applied, err
		}
		if attached {
			wrote = true
			if err := s.enroller.Enroll(ctx, roster, []int{courseID}); err != nil {
				s.queueReconcile(ctx, ReconcileJob{ClassID: classID, StudentIDs: roster, CourseIDs: []int{courseID}})
				s.log.Error().Err(err).Int("class_id", classID).Int("course_id", courseID).
					Msg("Enrollment cascade failed after course attach")
				return applied, fmt.Errorf("%w: course %d", ErrCascadeIncomplete, courseID)
			}
		}
		applied = append(applied, courseID)
	}

	return applied, nil
}

// RemoveCourses detaches courses and cascades unenrollment of every roster
// student from each detached course. Stops at the first failure.
func (s *ClassService) RemoveCourses(ctx context.Context, classID int, courseIDs []int) ([]int, error) {
	applied := []int{}

	wrote := false
	defer func() {
		if wrote {
			s.invalidate(ctx, classID)
		}
	}()

	if _, err := s.store.GetByID(ctx, classID); err != nil {
		return applied, err
	}

	roster, err := s.store.Roster(ctx, classID)
	if err != nil {
		return applied, err
	}

	for _, courseID := range courseIDs {
		existed, err := s.store.DetachCourse(ctx, classID, courseID)
		if err != nil {
			return applied, err
		}
		if existed {
			wrote = true
			for _, studentID := range roster {
				if err := s.enroller.Unenroll(ctx, studentID, []int{courseID}); err != nil {
					s.log.Error().Err(err).Int("class_id", classID).Int("course_id", courseID).
						Msg("Unenrollment cascade failed after course detach")
					return applied, fmt.Errorf("%w: course %d", ErrCascadeIncomplete, courseID)
				}
			}
		}
		applied = append(applied, courseID)
	}

	return applied, nil
}

// FindByStudent returns the classes containing the student. With activeOnly,
// the result is narrowed to classes active right now and at most one may
// come back; more than one means the invariant is broken in storage and is
// surfaced as a consistency error rather than silently picking one.
func (s *ClassService) FindByStudent(ctx context.Context, studentID int, activeOnly bool) ([]model.Class, error) {
	classes, err := s.store.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		now := s.now()
		active := classes[:0]
		for _, c := range classes {
			if c.ActiveAt(now) {
				active = append(active, c)
			}
		}
		classes = active
	}
	if activeOnly && len(classes) > 1 {
		ids := make([]int, len(classes))
		for i, c := range classes {
			ids[i] = c.ID
		}
		s.log.Error().Int("student_id", studentID).Ints("class_ids", ids).
			Msg("Student active in multiple classes")
		return nil, &model.ConsistencyError{
			Detail: fmt.Sprintf("student %d is active in %d classes", studentID, len(classes)),
		}
	}
	if classes == nil {
		classes = []model.Class{}
	}
	return classes, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func (s *ClassService) invalidateCache(ctx context.Context, classID int) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, config.CacheKey.ClassDetailKey(classID)).Err(); err != nil {
		s.log.Warn().Err(err).Int("class_id", classID).Msg("Class cache invalidation failed")
	}
}

func (s *ClassService) queueReconcile(ctx context.Context, job ReconcileJob) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.EnrollmentReconcileQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Int("class_id", job.ClassID).Msg("Failed to queue reconcile job")
	}
}
