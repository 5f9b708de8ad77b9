package domain

import (
	"testing"
	"time"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "09:00", want: 9 * 60},
		{in: "23:59", want: 23*60 + 59},
		{in: "00:00", want: 0},
		{in: "14:30:00", want: 14*60 + 30},
		{in: " 08:15 ", want: 8*60 + 15},
		{in: "24:00", wantErr: true},
		{in: "9:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "14:30:15", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClockTime error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseClockTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClockTime_StringAndAdd(t *testing.T) {
	c := MustClockTime("09:30")
	if c.String() != "09:30" {
		t.Fatalf("String = %q", c.String())
	}
	if got := c.Add(90 * time.Minute).String(); got != "11:00" {
		t.Fatalf("Add = %q, want 11:00", got)
	}
}

func TestClockTime_Scan(t *testing.T) {
	var c ClockTime
	if err := c.Scan([]byte("10:45:00")); err != nil {
		t.Fatalf("Scan bytes error: %v", err)
	}
	if c.String() != "10:45" {
		t.Fatalf("scanned %q", c.String())
	}
	if err := c.Scan(time.Date(0, 1, 1, 7, 5, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Scan time error: %v", err)
	}
	if c.String() != "07:05" {
		t.Fatalf("scanned %q", c.String())
	}
	if err := c.Scan(42); err == nil {
		t.Fatalf("expected error scanning int")
	}

	v, err := MustClockTime("18:00").Value()
	if err != nil || v != "18:00" {
		t.Fatalf("Value = %v, %v", v, err)
	}
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(start, start); got != 1 {
		t.Fatalf("same day = %d, want 1", got)
	}
	if got := DaysBetween(start, start.AddDate(0, 0, 6)); got != 7 {
		t.Fatalf("week = %d, want 7", got)
	}
	if got := DaysBetween(start, start.AddDate(0, 0, -1)); got != 0 {
		t.Fatalf("inverted = %d, want 0", got)
	}
}
