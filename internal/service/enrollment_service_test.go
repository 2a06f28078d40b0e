package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/scholaris/scholaris-backend/internal/model"
)

type fakeEnrollmentStore struct {
	upserts [][]model.Enrollment
	deletes []struct {
		StudentID int
		CourseIDs []int
	}
	courses map[int][]int
}

func (f *fakeEnrollmentStore) Upsert(_ context.Context, pairs []model.Enrollment) error {
	f.upserts = append(f.upserts, pairs)
	return nil
}

func (f *fakeEnrollmentStore) DeleteForStudent(_ context.Context, studentID int, courseIDs []int) error {
	f.deletes = append(f.deletes, struct {
		StudentID int
		CourseIDs []int
	}{studentID, courseIDs})
	return nil
}

func (f *fakeEnrollmentStore) CourseIDsByStudent(_ context.Context, studentID int) ([]int, error) {
	return f.courses[studentID], nil
}

func TestEnrollCrossProduct(t *testing.T) {
	store := &fakeEnrollmentStore{}
	svc := NewEnrollmentService(store, zerolog.Nop())

	if err := svc.Enroll(context.Background(), []int{1, 2}, []int{10, 20, 30}); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("expected 1 upsert call, got %d", len(store.upserts))
	}
	if got := len(store.upserts[0]); got != 6 {
		t.Errorf("pairs = %d, want 6", got)
	}
}

func TestEnrollDeduplicatesInput(t *testing.T) {
	store := &fakeEnrollmentStore{}
	svc := NewEnrollmentService(store, zerolog.Nop())

	if err := svc.Enroll(context.Background(), []int{1, 1, 2}, []int{10, 10}); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if got := len(store.upserts[0]); got != 2 {
		t.Errorf("pairs = %d, want 2 after dedup", got)
	}
}

func TestEnrollEmptySetsAreNoOps(t *testing.T) {
	store := &fakeEnrollmentStore{}
	svc := NewEnrollmentService(store, zerolog.Nop())

	if err := svc.Enroll(context.Background(), nil, []int{10}); err != nil {
		t.Fatalf("Enroll with no students: %v", err)
	}
	if err := svc.Enroll(context.Background(), []int{1}, nil); err != nil {
		t.Fatalf("Enroll with no courses: %v", err)
	}
	if len(store.upserts) != 0 {
		t.Errorf("expected no store calls, got %d", len(store.upserts))
	}
}

func TestUnenroll(t *testing.T) {
	store := &fakeEnrollmentStore{}
	svc := NewEnrollmentService(store, zerolog.Nop())

	if err := svc.Unenroll(context.Background(), 7, []int{10, 20}); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}
	if len(store.deletes) != 1 || store.deletes[0].StudentID != 7 {
		t.Errorf("deletes = %+v, want one call for student 7", store.deletes)
	}

	if err := svc.Unenroll(context.Background(), 7, nil); err != nil {
		t.Fatalf("Unenroll with no courses: %v", err)
	}
	if len(store.deletes) != 1 {
		t.Error("empty course set must not hit the store")
	}
}

func TestCoursesOf(t *testing.T) {
	store := &fakeEnrollmentStore{courses: map[int][]int{7: {10, 20}}}
	svc := NewEnrollmentService(store, zerolog.Nop())

	ids, err := svc.CoursesOf(context.Background(), 7)
	if err != nil {
		t.Fatalf("CoursesOf: %v", err)
	}
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 20 {
		t.Errorf("ids = %v, want [10 20]", ids)
	}

	ids, err = svc.CoursesOf(context.Background(), 8)
	if err != nil {
		t.Fatalf("CoursesOf: %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("ids = %v, want an empty non-nil slice", ids)
	}
}
