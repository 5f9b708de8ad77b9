package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
)

type AvailabilityRepository interface {
	// UpsertWeekly updates the active row for (provider, day) or inserts a new one.
	UpsertWeekly(ctx context.Context, w domain.WeeklyAvailability) (domain.WeeklyAvailability, error)
	ListWeekly(ctx context.Context, providerID string) ([]domain.WeeklyAvailability, error)
	// DeactivateWeekly returns ErrNotFound unless an active row with that id belongs to the provider.
	DeactivateWeekly(ctx context.Context, providerID string, id uuid.UUID) error
}

type ExceptionRepository interface {
	// CreateException returns ErrConflict when the provider already has an exception on that date.
	CreateException(ctx context.Context, ex domain.AvailabilityException) (domain.AvailabilityException, error)
	ListExceptions(ctx context.Context, providerID string, startDate, endDate time.Time) ([]domain.AvailabilityException, error)
	DeleteException(ctx context.Context, providerID string, id uuid.UUID) error
}

type ReservationFilter struct {
	ClientID   string
	ProviderID string
	From       *time.Time
	To         *time.Time
	Status     *domain.ReservationStatus
}

type ReservationRepository interface {
	// ReadSchedule loads template, exceptions and live reservations for the range from one
	// read-only snapshot.
	ReadSchedule(ctx context.Context, providerID string, startDate, endDate time.Time) (domain.ScheduleSnapshot, error)
	HasPendingReservation(ctx context.Context, clientID, providerID string) (bool, error)
	GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error)

	// InBookingTransaction serialises bookings for the scope's (client, provider) pair and for
	// its (provider, date), and rolls back when fn returns an error.
	InBookingTransaction(ctx context.Context, scope BookingScope, fn func(ctx context.Context, tx BookingTx) error) error
	// InReservationTransaction wraps a single-row read-modify-write.
	InReservationTransaction(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error
}

// BookingScope names what a booking transaction must hold exclusively.
type BookingScope struct {
	ClientID   string
	ProviderID string
	Date       time.Time
}

type BookingTx interface {
	GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	HasPendingReservation(ctx context.Context, clientID, providerID string) (bool, error)
	ReadSchedule(ctx context.Context, providerID string, startDate, endDate time.Time) (domain.ScheduleSnapshot, error)
	LiveReservationExists(ctx context.Context, providerID string, date time.Time, at domain.ClockTime) (bool, error)
	// InsertReservation returns ErrConflict when a live reservation already holds the slot
	// and ErrIdempotencyConflict when the id is taken.
	InsertReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	AppendEvent(ctx context.Context, evt domain.OutboxEvent) error
}

type ReservationTx interface {
	// LockReservation reads the row FOR UPDATE; ErrNotFound when absent.
	LockReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	UpdateReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	AppendEvent(ctx context.Context, evt domain.OutboxEvent) error
}

type OutboxRepository interface {
	// PublishPending hands up to limit unpublished events to fn and marks them published
	// when fn succeeds.
	PublishPending(ctx context.Context, limit int, fn func(ctx context.Context, events []domain.OutboxEvent) error) (int, error)
}
