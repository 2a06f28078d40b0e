package model

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassActiveAt(t *testing.T) {
	c := &Class{
		IsActive:  true,
		StartDate: day("2026-01-10"),
		EndDate:   day("2026-06-30"),
	}

	if !c.ActiveAt(day("2026-03-15")) {
		t.Error("expected active inside window")
	}
	if !c.ActiveAt(day("2026-01-10")) {
		t.Error("expected active on start date")
	}
	if !c.ActiveAt(day("2026-06-30")) {
		t.Error("expected active on end date")
	}
	if c.ActiveAt(day("2026-01-09")) {
		t.Error("expected inactive before window")
	}
	if c.ActiveAt(day("2026-07-01")) {
		t.Error("expected inactive after window")
	}

	c.IsActive = false
	if c.ActiveAt(day("2026-03-15")) {
		t.Error("expected inactive when flag cleared")
	}
}

func TestClassExpired(t *testing.T) {
	c := &Class{StartDate: day("2026-01-10"), EndDate: day("2026-06-30")}

	if c.Expired(day("2026-06-30")) {
		t.Error("end date itself is not expired")
	}
	if !c.Expired(day("2026-07-01")) {
		t.Error("day after end date is expired")
	}
	// A timestamp late on the end date still counts as the end date.
	if c.Expired(day("2026-06-30").Add(23 * time.Hour)) {
		t.Error("late timestamp on end date must not count as expired")
	}
}

func TestClassWindowOverlaps(t *testing.T) {
	c := &Class{StartDate: day("2026-01-10"), EndDate: day("2026-06-30")}

	cases := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"identical", "2026-01-10", "2026-06-30", true},
		{"contained", "2026-02-01", "2026-03-01", true},
		{"containing", "2026-01-01", "2026-12-31", true},
		{"touching start", "2025-09-01", "2026-01-10", true},
		{"touching end", "2026-06-30", "2026-12-31", true},
		{"before", "2025-09-01", "2026-01-09", false},
		{"after", "2026-07-01", "2026-12-31", false},
	}

	for _, tc := range cases {
		if got := c.WindowOverlaps(day(tc.start), day(tc.end)); got != tc.want {
			t.Errorf("%s: WindowOverlaps(%s, %s) = %v, want %v", tc.name, tc.start, tc.end, got, tc.want)
		}
	}
}
