package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
)

func seedReservation(f *fixture, status domain.ReservationStatus) domain.Reservation {
	r := domain.Reservation{
		ID:              uuid.New(),
		ProviderID:      "p1",
		ClientID:        "c1",
		SessionDate:     monday,
		SessionTime:     domain.MustClockTime("10:00"),
		DurationMinutes: 60,
		ServiceType:     domain.ServiceTarotReading,
		Status:          status,
		PaymentStatus:   domain.PaymentPending,
	}
	f.store.put(r)
	return r
}

func TestLifecycle_ConfirmThenComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, "c1", "10:00")
	notes := "bring your questions"

	confirmed, err := f.svc.Confirm(ctx, r.ID, "p1", &notes)
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if confirmed.Status != domain.StatusConfirmed || confirmed.ConfirmedAt == nil {
		t.Fatalf("confirmed = %+v", confirmed)
	}
	if confirmed.ProviderNotes == nil || *confirmed.ProviderNotes != notes {
		t.Fatalf("provider notes = %v", confirmed.ProviderNotes)
	}

	_, err = f.svc.Confirm(ctx, r.ID, "p1", nil)
	assertKind(t, err, ErrInvalidTransition)

	completed, err := f.svc.Complete(ctx, r.ID, "p1", nil)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if completed.Status != domain.StatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("completed = %+v", completed)
	}
	if completed.ProviderNotes == nil || *completed.ProviderNotes != notes {
		t.Fatalf("notes lost on completion")
	}

	want := []string{domain.EventReservationRequested, domain.EventReservationConfirmed, domain.EventReservationCompleted}
	if got := f.store.eventTypes(); !equalStrings(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestLifecycle_CompleteRequiresConfirmed(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, "c1", "10:00")

	_, err := f.svc.Complete(context.Background(), r.ID, "p1", nil)
	assertKind(t, err, ErrInvalidTransition)
}

func TestLifecycle_ClientCancellationWindow(t *testing.T) {
	session := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	t.Run("exactly the window remaining is allowed", func(t *testing.T) {
		f := newFixture(t)
		r := f.book(t, "c1", "10:00")
		f.clock.Set(session.Add(-24 * time.Hour))

		got, err := f.svc.Cancel(context.Background(), r.ID, "c1", " change of plans ")
		if err != nil {
			t.Fatalf("Cancel error: %v", err)
		}
		if got.Status != domain.StatusCancelledByClient || got.CancelledAt == nil {
			t.Fatalf("cancelled = %+v", got)
		}
		if got.CancellationReason == nil || *got.CancellationReason != "change of plans" {
			t.Fatalf("reason = %v", got.CancellationReason)
		}
	})

	t.Run("one second less is rejected", func(t *testing.T) {
		f := newFixture(t)
		r := f.book(t, "c1", "10:00")
		f.clock.Set(session.Add(-24*time.Hour + time.Second))

		_, err := f.svc.Cancel(context.Background(), r.ID, "c1", "")
		assertKind(t, err, ErrCancellationWindowViolation)

		got, err := f.svc.GetReservation(context.Background(), r.ID, "c1")
		if err != nil || got.Status != domain.StatusPending {
			t.Fatalf("reservation changed: %+v, %v", got, err)
		}
	})

	t.Run("confirmed reservations can be cancelled", func(t *testing.T) {
		f := newFixture(t)
		r := f.book(t, "c1", "10:00")
		if _, err := f.svc.Confirm(context.Background(), r.ID, "p1", nil); err != nil {
			t.Fatalf("Confirm error: %v", err)
		}
		if _, err := f.svc.Cancel(context.Background(), r.ID, "c1", ""); err != nil {
			t.Fatalf("Cancel error: %v", err)
		}
	})
}

func TestLifecycle_ProviderCancelIgnoresWindow(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, "c1", "10:00")
	f.clock.Set(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))

	got, err := f.svc.CancelByProvider(context.Background(), r.ID, "p1", "")
	if err != nil {
		t.Fatalf("CancelByProvider error: %v", err)
	}
	if got.Status != domain.StatusCancelledByProvider || got.CancellationReason != nil {
		t.Fatalf("cancelled = %+v", got)
	}

	want := []string{domain.EventReservationRequested, domain.EventReservationCancelledByProvider}
	if events := f.store.eventTypes(); !equalStrings(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestLifecycle_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, "c1", "10:00")

	_, err := f.svc.Confirm(ctx, r.ID, "p2", nil)
	assertKind(t, err, ErrNotFound)
	_, err = f.svc.Confirm(ctx, r.ID, "c1", nil)
	assertKind(t, err, ErrNotFound)
	_, err = f.svc.Cancel(ctx, r.ID, "c2", "")
	assertKind(t, err, ErrNotFound)
	_, err = f.svc.Cancel(ctx, r.ID, "p1", "")
	assertKind(t, err, ErrNotFound)
	_, err = f.svc.CancelByProvider(ctx, uuid.New(), "p1", "")
	assertKind(t, err, ErrNotFound)

	if got := f.store.eventTypes(); len(got) != 1 {
		t.Fatalf("failed transitions emitted events: %v", got)
	}
}

func TestLifecycle_TerminalStatesAreClosed(t *testing.T) {
	terminal := []domain.ReservationStatus{
		domain.StatusCompleted,
		domain.StatusCancelledByClient,
		domain.StatusCancelledByProvider,
	}
	for _, status := range terminal {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			r := seedReservation(f, status)

			_, err := f.svc.Confirm(ctx, r.ID, "p1", nil)
			assertKind(t, err, ErrInvalidTransition)
			_, err = f.svc.Complete(ctx, r.ID, "p1", nil)
			assertKind(t, err, ErrInvalidTransition)
			_, err = f.svc.Cancel(ctx, r.ID, "c1", "")
			assertKind(t, err, ErrAlreadyFinalized)
			_, err = f.svc.CancelByProvider(ctx, r.ID, "p1", "")
			assertKind(t, err, ErrAlreadyFinalized)

			got, err := f.svc.GetReservation(ctx, r.ID, "p1")
			if err != nil || got.Status != status {
				t.Fatalf("status changed: %+v, %v", got, err)
			}
			if events := f.store.eventTypes(); len(events) != 0 {
				t.Fatalf("events = %v", events)
			}
		})
	}
}
