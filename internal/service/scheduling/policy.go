package scheduling

import (
	"context"
	"time"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
)

// BookingPolicy is a business rule about the requesting client. It is evaluated once
// before the booking transaction opens, for early rejection, and again inside it against
// the transaction's view, where the (client, provider) pair is held exclusively.
// Policies may be removed or replaced without touching the transactional core.
type BookingPolicy interface {
	Name() string
	Check(ctx context.Context, view PendingChecker, req BookingRequest) error
}

type PendingChecker interface {
	HasPendingReservation(ctx context.Context, clientID, providerID string) (bool, error)
}

type singlePendingReservation struct{}

// SinglePendingReservation allows one outstanding PENDING request per client and provider.
func SinglePendingReservation() BookingPolicy {
	return singlePendingReservation{}
}

func (singlePendingReservation) Name() string { return "single_pending_reservation" }

func (singlePendingReservation) Check(ctx context.Context, view PendingChecker, req BookingRequest) error {
	pending, err := view.HasPendingReservation(ctx, req.ClientID, req.ProviderID)
	if err != nil {
		return err
	}
	if pending {
		return ErrExistingPendingReservation
	}
	return nil
}

// leadTimeSatisfied holds only when start is strictly after now + lead.
func leadTimeSatisfied(start, now time.Time, lead time.Duration) bool {
	return start.After(now.Add(lead))
}

// cancellationAllowed holds while at least window remains before start.
func cancellationAllowed(start, now time.Time, window time.Duration) bool {
	return start.Sub(now) >= window
}

func (s *Service) sessionStart(r domain.Reservation) time.Time {
	return r.StartsAt(s.cfg.Location)
}
