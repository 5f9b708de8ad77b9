package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/observability"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store"
)

type actorRole int

const (
	roleClient actorRole = iota
	roleProvider
)

// transition describes one edge of the reservation life cycle.
type transition struct {
	name   string
	target domain.ReservationStatus
	role   actorRole
	// guard runs on the locked row after ownership is established.
	guard func(r domain.Reservation, now time.Time) error
	apply func(r *domain.Reservation, now time.Time)
}

// Confirm accepts a PENDING request.
func (s *Service) Confirm(ctx context.Context, reservationID uuid.UUID, providerID string, notes *string) (domain.Reservation, error) {
	return s.transition(ctx, reservationID, providerID, transition{
		name:   "confirm",
		target: domain.StatusConfirmed,
		role:   roleProvider,
		guard: func(r domain.Reservation, _ time.Time) error {
			if r.Status != domain.StatusPending {
				return ErrInvalidTransition
			}
			return nil
		},
		apply: func(r *domain.Reservation, now time.Time) {
			r.ConfirmedAt = &now
			if n := trimmedOrNil(notes); n != nil {
				r.ProviderNotes = n
			}
		},
	})
}

// Cancel is the client cancelling a live reservation at least the cancellation window
// ahead of the session.
func (s *Service) Cancel(ctx context.Context, reservationID uuid.UUID, clientID string, reason string) (domain.Reservation, error) {
	return s.transition(ctx, reservationID, clientID, transition{
		name:   "cancel",
		target: domain.StatusCancelledByClient,
		role:   roleClient,
		guard: func(r domain.Reservation, now time.Time) error {
			if r.Status.IsTerminal() {
				return ErrAlreadyFinalized
			}
			if !cancellationAllowed(s.sessionStart(r), now, s.cfg.CancellationWindow) {
				return ErrCancellationWindowViolation
			}
			return nil
		},
		apply: func(r *domain.Reservation, now time.Time) {
			r.CancelledAt = &now
			r.CancellationReason = trimmedOrNil(&reason)
		},
	})
}

// CancelByProvider withdraws a live reservation on the provider's side. No window applies.
func (s *Service) CancelByProvider(ctx context.Context, reservationID uuid.UUID, providerID string, reason string) (domain.Reservation, error) {
	return s.transition(ctx, reservationID, providerID, transition{
		name:   "provider_cancel",
		target: domain.StatusCancelledByProvider,
		role:   roleProvider,
		guard: func(r domain.Reservation, _ time.Time) error {
			if r.Status.IsTerminal() {
				return ErrAlreadyFinalized
			}
			return nil
		},
		apply: func(r *domain.Reservation, now time.Time) {
			r.CancelledAt = &now
			r.CancellationReason = trimmedOrNil(&reason)
		},
	})
}

// Complete closes a CONFIRMED session.
func (s *Service) Complete(ctx context.Context, reservationID uuid.UUID, providerID string, notes *string) (domain.Reservation, error) {
	return s.transition(ctx, reservationID, providerID, transition{
		name:   "complete",
		target: domain.StatusCompleted,
		role:   roleProvider,
		guard: func(r domain.Reservation, _ time.Time) error {
			if r.Status != domain.StatusConfirmed {
				return ErrInvalidTransition
			}
			return nil
		},
		apply: func(r *domain.Reservation, now time.Time) {
			r.CompletedAt = &now
			if n := trimmedOrNil(notes); n != nil {
				r.ProviderNotes = n
			}
		},
	})
}

func (s *Service) transition(ctx context.Context, reservationID uuid.UUID, actorID string, t transition) (domain.Reservation, error) {
	ctx, span := observability.Tracer().Start(ctx, "scheduling."+t.name, trace.WithAttributes(
		attribute.String("reservation_id", reservationID.String()),
	))
	defer span.End()

	out, err := s.runTransition(ctx, reservationID, strings.TrimSpace(actorID), t)
	outcome := "ok"
	if err != nil {
		outcome = outcomeLabel(err)
		span.RecordError(err)
	}
	s.metrics.RecordTransition(string(t.target), outcome)
	return out, err
}

func (s *Service) runTransition(ctx context.Context, reservationID uuid.UUID, actorID string, t transition) (domain.Reservation, error) {
	if actorID == "" || reservationID == uuid.Nil {
		return domain.Reservation{}, ErrNotFound
	}

	var out domain.Reservation
	err := s.reservations.InReservationTransaction(ctx, func(ctx context.Context, tx store.ReservationTx) error {
		r, err := tx.LockReservation(ctx, reservationID)
		if err != nil {
			return mapStoreError(err)
		}
		if !ownedBy(r, actorID, t.role) {
			return ErrNotFound
		}

		now := s.now()
		if err := t.guard(r, now); err != nil {
			return err
		}
		if !r.Status.CanTransition(t.target) {
			return ErrInvalidTransition
		}

		r.Status = t.target
		r.UpdatedAt = now
		t.apply(&r, now)

		updated, err := tx.UpdateReservation(ctx, r)
		if err != nil {
			return mapStoreError(err)
		}
		evt, err := reservationOutboxEvent(updated, now)
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.logger.Info("reservation transitioned",
		"reservation_id", out.ID.String(), "status", string(out.Status), "transition", t.name)
	return out, nil
}

func ownedBy(r domain.Reservation, actorID string, role actorRole) bool {
	if role == roleClient {
		return r.ClientID == actorID
	}
	return r.ProviderID == actorID
}
