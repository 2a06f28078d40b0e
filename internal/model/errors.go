package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ActiveClassError is returned when a roster mutation would give a student a
// second active class. Accepted lists the student ids that were already
// validated or applied by the same call before the offending one, so the
// caller can reason about partial application without re-querying.
type ActiveClassError struct {
	StudentID     int   `json:"student_id"`
	ActiveClassID int   `json:"active_class_id"`
	Accepted      []int `json:"accepted"`
}

func (e *ActiveClassError) Error() string {
	return fmt.Sprintf("student %d already belongs to active class %d", e.StudentID, e.ActiveClassID)
}

// SlotConflictError is returned when a timetable slot overlaps existing slots
// for the same teacher or class on the same day/semester.
type SlotConflictError struct {
	SlotIDs []uuid.UUID `json:"conflicting_slot_ids"`
}

func (e *SlotConflictError) Error() string {
	ids := make([]string, len(e.SlotIDs))
	for i, id := range e.SlotIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("timetable conflict with slots [%s]", strings.Join(ids, ", "))
}

// ConsistencyError signals that a should-be-impossible invariant was observed
// broken (data corruption), as opposed to user error. Surfaced distinctly so
// operators can tell it apart from NotFound/Conflict.
type ConsistencyError struct {
	Detail string `json:"detail"`
}

func (e *ConsistencyError) Error() string {
	return "consistency violation: " + e.Detail
}
