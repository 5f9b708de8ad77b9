package scheduling

import (
	"encoding/json"
	"time"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
)

type reservationEvent struct {
	ReservationID      string  `json:"reservation_id"`
	ProviderID         string  `json:"provider_id"`
	ClientID           string  `json:"client_id"`
	ClientContact      string  `json:"client_contact"`
	SessionDate        string  `json:"session_date"`
	SessionTime        string  `json:"session_time"`
	DurationMinutes    int     `json:"duration_minutes"`
	ServiceType        string  `json:"service_type"`
	Status             string  `json:"status"`
	PriceAmount        int64   `json:"price_amount"`
	MeetingLink        string  `json:"meeting_link"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	OccurredAt         string  `json:"occurred_at"`
}

// reservationOutboxEvent describes the status r has just reached.
func reservationOutboxEvent(r domain.Reservation, at time.Time) (domain.OutboxEvent, error) {
	payload, err := json.Marshal(reservationEvent{
		ReservationID:      r.ID.String(),
		ProviderID:         r.ProviderID,
		ClientID:           r.ClientID,
		ClientContact:      r.ClientContact,
		SessionDate:        domain.FormatDate(r.SessionDate),
		SessionTime:        r.SessionTime.String(),
		DurationMinutes:    r.DurationMinutes,
		ServiceType:        string(r.ServiceType),
		Status:             string(r.Status),
		PriceAmount:        r.PriceAmount,
		MeetingLink:        r.MeetingLink,
		CancellationReason: r.CancellationReason,
		OccurredAt:         at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return domain.OutboxEvent{}, err
	}
	return domain.OutboxEvent{
		AggregateType: domain.AggregateReservation,
		AggregateID:   r.ID.String(),
		EventType:     domain.ReservationEventType(r.Status),
		Payload:       payload,
	}, nil
}
