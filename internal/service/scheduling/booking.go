package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/observability"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store"
)

const maxIdempotencyKeyLen = 256

type BookingRequest struct {
	ClientID        string
	ClientContact   string
	ProviderID      string
	Date            time.Time
	Time            domain.ClockTime
	DurationMinutes int
	ServiceType     domain.ServiceType
	Notes           *string
	// IdempotencyKey makes retries of the same request return the reservation created
	// by the first attempt.
	IdempotencyKey string
}

func (s *Service) BookSession(ctx context.Context, req BookingRequest) (domain.Reservation, error) {
	ctx, span := observability.Tracer().Start(ctx, "scheduling.BookSession", trace.WithAttributes(
		attribute.String("provider_id", req.ProviderID),
		attribute.String("session_date", domain.FormatDate(req.Date)),
		attribute.String("session_time", req.Time.String()),
	))
	defer span.End()

	r, err := s.bookSession(ctx, req)
	outcome := "booked"
	if err != nil {
		outcome = outcomeLabel(err)
		span.RecordError(err)
		if _, ok := CategoryOf(err); !ok {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	s.metrics.RecordBooking(outcome)
	return r, err
}

func (s *Service) bookSession(ctx context.Context, req BookingRequest) (domain.Reservation, error) {
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	req.ClientContact = strings.TrimSpace(req.ClientContact)
	req.Date = domain.DateOf(req.Date)

	if req.ClientID == "" {
		return domain.Reservation{}, invalidInput("client_id is required")
	}
	if req.ProviderID == "" {
		return domain.Reservation{}, invalidInput("provider_id is required")
	}
	if !req.ServiceType.Valid() {
		return domain.Reservation{}, invalidInput("unknown service_type")
	}
	if !req.Time.Valid() || req.DurationMinutes <= 0 {
		return domain.Reservation{}, ErrInvalidRange
	}

	var id uuid.UUID
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		if len(key) > maxIdempotencyKeyLen {
			return domain.Reservation{}, invalidInput("idempotency_key too long")
		}
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte("tarot:book_session:"+req.ClientID+":"+key))
		if existing, ok, err := replay(ctx, s.reservations, id, req); err != nil || ok {
			return existing, err
		}
	}

	now := s.now()
	start := domain.DateAt(req.Date, req.Time, s.cfg.Location)
	if !leadTimeSatisfied(start, now, s.cfg.LeadTime) {
		return domain.Reservation{}, ErrLeadTimeViolation
	}

	if err := s.checkPolicies(ctx, s.reservations, req); err != nil {
		// The first attempt of a retried request may have committed since the lookup above.
		if id != uuid.Nil {
			if existing, ok, rerr := replay(ctx, s.reservations, id, req); rerr != nil || ok {
				return existing, rerr
			}
		}
		return domain.Reservation{}, err
	}

	var (
		out      domain.Reservation
		replayed bool
	)
	scope := store.BookingScope{ClientID: req.ClientID, ProviderID: req.ProviderID, Date: req.Date}
	err := s.reservations.InBookingTransaction(ctx, scope, func(ctx context.Context, tx store.BookingTx) error {
		if id != uuid.Nil {
			existing, ok, err := replay(ctx, tx, id, req)
			if err != nil {
				return err
			}
			if ok {
				out, replayed = existing, true
				return nil
			}
		}
		if err := s.checkPolicies(ctx, tx, req); err != nil {
			return err
		}

		snap, err := tx.ReadSchedule(ctx, req.ProviderID, req.Date, req.Date)
		if err != nil {
			return err
		}
		slots := domain.ProjectSlots(snap, s.slotQuery(req.Date, req.Date, req.DurationMinutes))
		if !domain.ContainsSlot(slots, req.Date, req.Time) {
			return ErrSlotUnavailable
		}

		taken, err := tx.LiveReservationExists(ctx, req.ProviderID, req.Date, req.Time)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotUnavailable
		}

		r := domain.Reservation{
			ID:              id,
			ProviderID:      req.ProviderID,
			ClientID:        req.ClientID,
			ClientContact:   req.ClientContact,
			SessionDate:     req.Date,
			SessionTime:     req.Time,
			DurationMinutes: req.DurationMinutes,
			ServiceType:     req.ServiceType,
			Status:          domain.StatusPending,
			PriceAmount:     s.prices.PriceFor(req.ServiceType, req.DurationMinutes),
			PaymentStatus:   domain.PaymentPending,
			MeetingLink:     s.meetings.NewMeetingReference(),
			ClientNotes:     trimmedOrNil(req.Notes),
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		created, err := tx.InsertReservation(ctx, r)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrSlotUnavailable
			}
			return mapStoreError(err)
		}

		evt, err := reservationOutboxEvent(created, now)
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	if replayed {
		s.logger.Info("booking replayed", "reservation_id", out.ID.String(), "client_id", out.ClientID)
		return out, nil
	}

	s.logger.Info("reservation booked",
		"reservation_id", out.ID.String(), "provider_id", out.ProviderID, "client_id", out.ClientID,
		"date", domain.FormatDate(out.SessionDate), "time", out.SessionTime.String())
	return out, nil
}

func (s *Service) checkPolicies(ctx context.Context, view PendingChecker, req BookingRequest) error {
	for _, p := range s.policies {
		if err := p.Check(ctx, view, req); err != nil {
			return err
		}
	}
	return nil
}

type reservationGetter interface {
	GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
}

// replay reports whether id already names a reservation made by the same request. A stored
// reservation with different parameters is an idempotency conflict.
func replay(ctx context.Context, r reservationGetter, id uuid.UUID, req BookingRequest) (domain.Reservation, bool, error) {
	existing, err := r.GetReservation(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Reservation{}, false, nil
	case err != nil:
		return domain.Reservation{}, false, err
	case !matchesRequest(existing, req):
		return domain.Reservation{}, false, ErrIdempotencyConflict
	}
	return existing, true, nil
}

func matchesRequest(r domain.Reservation, req BookingRequest) bool {
	return r.ClientID == req.ClientID &&
		r.ProviderID == req.ProviderID &&
		domain.DateOf(r.SessionDate).Equal(req.Date) &&
		r.SessionTime == req.Time &&
		r.DurationMinutes == req.DurationMinutes &&
		r.ServiceType == req.ServiceType
}

func outcomeLabel(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "error"
}
