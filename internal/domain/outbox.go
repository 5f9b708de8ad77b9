package domain

import (
	"time"

	"github.com/uptrace/bun"
)

const AggregateReservation = "reservation"

// Reservation event types. The Kafka topic is the configured prefix plus the event type.
const (
	EventReservationRequested           = "reservation.requested.v1"
	EventReservationConfirmed           = "reservation.confirmed.v1"
	EventReservationCancelledByClient   = "reservation.cancelled_by_client.v1"
	EventReservationCancelledByProvider = "reservation.cancelled_by_provider.v1"
	EventReservationCompleted           = "reservation.completed.v1"
)

// OutboxEvent is written in the same transaction as the state change it describes.
type OutboxEvent struct {
	bun.BaseModel `bun:"table:outbox_events"`

	ID            int64      `bun:"id,pk,autoincrement"`
	EventID       string     `bun:"event_id,notnull"`
	AggregateType string     `bun:"aggregate_type,notnull"`
	AggregateID   string     `bun:"aggregate_id,notnull"`
	EventType     string     `bun:"event_type,notnull"`
	Payload       []byte     `bun:"payload,notnull,type:jsonb"`
	Traceparent   string     `bun:"traceparent,notnull"`
	Tracestate    string     `bun:"tracestate,notnull"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	PublishedAt   *time.Time `bun:"published_at"`
}

// ReservationEventType maps a status reached by a transition to the event it emits.
func ReservationEventType(status ReservationStatus) string {
	switch status {
	case StatusPending:
		return EventReservationRequested
	case StatusConfirmed:
		return EventReservationConfirmed
	case StatusCancelledByClient:
		return EventReservationCancelledByClient
	case StatusCancelledByProvider:
		return EventReservationCancelledByProvider
	case StatusCompleted:
		return EventReservationCompleted
	}
	return ""
}
