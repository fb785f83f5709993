package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Month
		wantErr bool
	}{
		{"valid month", "2024-05", Month{2024, time.May}, false},
		{"december", "2023-12", Month{2023, time.December}, false},
		{"empty", "", Month{}, true},
		{"month out of range", "2024-13", Month{}, true},
		{"full date", "2024-05-01", Month{}, true},
		{"garbage", "mayo", Month{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMonth) {
					t.Errorf("ParseMonth(%q) error = %v, want ErrInvalidMonth", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonth(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMonth(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMonth_Bounds(t *testing.T) {
	tests := []struct {
		month   Month
		lastDay int
	}{
		{Month{2024, time.February}, 29},
		{Month{2023, time.February}, 28},
		{Month{2024, time.April}, 30},
		{Month{2024, time.December}, 31},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			if got := tt.month.Start().Day(); got != 1 {
				t.Errorf("Start().Day() = %d, want 1", got)
			}
			if got := tt.month.End().Day(); got != tt.lastDay {
				t.Errorf("End().Day() = %d, want %d", got, tt.lastDay)
			}
			if !tt.month.Contains(tt.month.Start()) || !tt.month.Contains(tt.month.End()) {
				t.Error("month should contain its first and last day")
			}
			if tt.month.Contains(tt.month.Start().AddDate(0, 0, -1)) {
				t.Error("month should not contain the previous day")
			}
			if tt.month.Contains(tt.month.End().AddDate(0, 0, 1)) {
				t.Error("month should not contain the next day")
			}
		})
	}
}

func TestMonth_MarshalJSON(t *testing.T) {
	b, err := Month{2024, time.March}.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(b) != `"2024-03"` {
		t.Errorf("MarshalJSON() = %s, want %q", b, "2024-03")
	}
}

func TestAttendanceRecord_IsUnjustifiedAbsence(t *testing.T) {
	tests := []struct {
		name      string
		present   bool
		justified bool
		expected  bool
	}{
		{"present", true, false, false},
		{"present and justified", true, true, false},
		{"justified absence", false, true, false},
		{"unjustified absence", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := AttendanceRecord{Present: tt.present, Justified: tt.justified}
			if got := r.IsUnjustifiedAbsence(); got != tt.expected {
				t.Errorf("IsUnjustifiedAbsence() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var d Date
	if err := d.UnmarshalJSON([]byte(`"2024-05-03"`)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if d.String() != "2024-05-03" {
		t.Errorf("String() = %q, want %q", d.String(), "2024-05-03")
	}

	if err := d.UnmarshalJSON([]byte(`"03/05/2024"`)); err == nil {
		t.Error("UnmarshalJSON() should reject non ISO dates")
	}

	var empty Date
	if err := empty.UnmarshalJSON([]byte(`""`)); err != nil || !empty.IsZero() {
		t.Errorf("UnmarshalJSON(\"\") = %v, zero = %v", err, empty.IsZero())
	}
}
