package model

import (
	"encoding/json"
	"testing"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:00", 0, true},
		{"09:60", 0, true},
		{"0900", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestClockString(t *testing.T) {
	if got := Clock(570).String(); got != "09:30" {
		t.Errorf("Clock(570).String() = %q, want %q", got, "09:30")
	}
	if got := Clock(0).String(); got != "00:00" {
		t.Errorf("Clock(0).String() = %q, want %q", got, "00:00")
	}
}

func TestClockJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Clock(615))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"10:15"` {
		t.Fatalf("marshal = %s, want %q", raw, `"10:15"`)
	}

	var c Clock
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c != 615 {
		t.Fatalf("round trip = %d, want 615", c)
	}

	if err := json.Unmarshal([]byte(`"25:00"`), &c); err == nil {
		t.Fatal("expected error for out-of-range clock")
	}
}

func TestSlotOverlapsWindow(t *testing.T) {
	slot := &TimetableSlot{StartTime: 540, EndTime: 600} // 09:00-10:00

	cases := []struct {
		name       string
		start, end Clock
		want       bool
	}{
		{"identical", 540, 600, true},
		{"contained", 550, 590, true},
		{"containing", 500, 700, true},
		{"overlap start", 510, 570, true},
		{"overlap end", 570, 630, true},
		{"touching before", 480, 540, false},
		{"touching after", 600, 660, false},
		{"disjoint before", 400, 500, false},
		{"disjoint after", 700, 800, false},
	}

	for _, tc := range cases {
		if got := slot.OverlapsWindow(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: OverlapsWindow(%v, %v) = %v, want %v", tc.name, tc.start, tc.end, got, tc.want)
		}
	}
}
