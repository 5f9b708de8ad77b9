package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
)

func TestGetReservation_VisibleToParticipantsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, "c1", "10:00")

	for _, actor := range []string{"c1", "p1"} {
		if _, err := f.svc.GetReservation(ctx, r.ID, actor); err != nil {
			t.Fatalf("GetReservation(%s) error: %v", actor, err)
		}
	}
	_, err := f.svc.GetReservation(ctx, r.ID, "c2")
	assertKind(t, err, ErrNotFound)
	_, err = f.svc.GetReservation(ctx, uuid.New(), "c1")
	assertKind(t, err, ErrNotFound)
}

func TestListReservations(t *testing.T) {
	f := newFixture(t, WithBookingPolicies())
	ctx := context.Background()
	f.setWeekly(t, "p1", time.Tuesday, "09:00", "12:00")

	first := f.book(t, "c1", "09:00")
	f.book(t, "c2", "11:00")
	tuesday := bookingRequest("c1", "10:00")
	tuesday.Date = monday.AddDate(0, 0, 1)
	if _, err := f.svc.BookSession(ctx, tuesday); err != nil {
		t.Fatalf("BookSession error: %v", err)
	}
	if _, err := f.svc.Confirm(ctx, first.ID, "p1", nil); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	t.Run("client", func(t *testing.T) {
		all, err := f.svc.ListClientReservations(ctx, "c1", nil)
		if err != nil || len(all) != 2 {
			t.Fatalf("ListClientReservations = %d, %v", len(all), err)
		}
		pending := domain.StatusPending
		onlyPending, err := f.svc.ListClientReservations(ctx, "c1", &pending)
		if err != nil || len(onlyPending) != 1 || !onlyPending[0].SessionDate.Equal(tuesday.Date) {
			t.Fatalf("pending filter = %+v, %v", onlyPending, err)
		}

		bogus := domain.ReservationStatus("LOST")
		_, err = f.svc.ListClientReservations(ctx, "c1", &bogus)
		assertKind(t, err, ErrInvalidInput)
	})

	t.Run("provider", func(t *testing.T) {
		all, err := f.svc.ListProviderReservations(ctx, "p1", nil, nil, nil)
		if err != nil || len(all) != 3 {
			t.Fatalf("ListProviderReservations = %d, %v", len(all), err)
		}
		if all[0].SessionTime.String() != "09:00" || all[2].SessionDate.Equal(monday) {
			t.Fatalf("unexpected order: %+v", all)
		}

		from, to := monday, monday
		mondayOnly, err := f.svc.ListProviderReservations(ctx, "p1", &from, &to, nil)
		if err != nil || len(mondayOnly) != 2 {
			t.Fatalf("date filter = %d, %v", len(mondayOnly), err)
		}

		inverted := monday.AddDate(0, 0, -1)
		_, err = f.svc.ListProviderReservations(ctx, "p1", &from, &inverted, nil)
		assertKind(t, err, ErrInvalidRange)
	})
}
