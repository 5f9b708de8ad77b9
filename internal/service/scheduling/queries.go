package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store"
)

// GetReservation returns the reservation when actorID is its client or its provider.
func (s *Service) GetReservation(ctx context.Context, id uuid.UUID, actorID string) (domain.Reservation, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" || id == uuid.Nil {
		return domain.Reservation{}, ErrNotFound
	}
	r, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, mapStoreError(err)
	}
	if r.ClientID != actorID && r.ProviderID != actorID {
		return domain.Reservation{}, ErrNotFound
	}
	return r, nil
}

func (s *Service) ListClientReservations(ctx context.Context, clientID string, status *domain.ReservationStatus) ([]domain.Reservation, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, invalidInput("client_id is required")
	}
	if status != nil && !status.Valid() {
		return nil, invalidInput("unknown status")
	}
	return s.reservations.ListReservations(ctx, store.ReservationFilter{ClientID: clientID, Status: status})
}

func (s *Service) ListProviderReservations(ctx context.Context, providerID string, from, to *time.Time, status *domain.ReservationStatus) ([]domain.Reservation, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, invalidInput("provider_id is required")
	}
	if status != nil && !status.Valid() {
		return nil, invalidInput("unknown status")
	}
	if from != nil && to != nil && domain.DateOf(*to).Before(domain.DateOf(*from)) {
		return nil, ErrInvalidRange
	}
	return s.reservations.ListReservations(ctx, store.ReservationFilter{
		ProviderID: providerID,
		From:       from,
		To:         to,
		Status:     status,
	})
}
