package domain

import "testing"

func TestReservationStatus_Transitions(t *testing.T) {
	all := []ReservationStatus{
		StatusPending,
		StatusConfirmed,
		StatusCompleted,
		StatusCancelledByClient,
		StatusCancelledByProvider,
	}
	allowed := map[ReservationStatus][]ReservationStatus{
		StatusPending:   {StatusConfirmed, StatusCancelledByClient, StatusCancelledByProvider},
		StatusConfirmed: {StatusCompleted, StatusCancelledByClient, StatusCancelledByProvider},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
		if from.IsTerminal() == from.IsLive() {
			t.Errorf("%s: terminal and live must be exclusive", from)
		}
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    string
		aMin int
		b    string
		bMin int
		want bool
	}{
		{name: "same start", a: "10:00", aMin: 30, b: "10:00", bMin: 60, want: true},
		{name: "touching after", a: "11:00", aMin: 30, b: "10:00", bMin: 60, want: false},
		{name: "touching before", a: "09:00", aMin: 60, b: "10:00", bMin: 60, want: false},
		{name: "inside", a: "10:15", aMin: 15, b: "10:00", bMin: 60, want: true},
		{name: "straddles start", a: "09:30", aMin: 60, b: "10:00", bMin: 30, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(MustClockTime(tt.a), tt.aMin, MustClockTime(tt.b), tt.bMin)
			if got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReservationEventType(t *testing.T) {
	if got := ReservationEventType(StatusCancelledByProvider); got != "reservation.cancelled_by_provider.v1" {
		t.Fatalf("event type = %q", got)
	}
	if got := ReservationEventType("UNKNOWN"); got != "" {
		t.Fatalf("event type = %q, want empty", got)
	}
}
