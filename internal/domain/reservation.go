package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	StatusPending             ReservationStatus = "PENDING"
	StatusConfirmed           ReservationStatus = "CONFIRMED"
	StatusCompleted           ReservationStatus = "COMPLETED"
	StatusCancelledByClient   ReservationStatus = "CANCELLED_BY_CLIENT"
	StatusCancelledByProvider ReservationStatus = "CANCELLED_BY_PROVIDER"
)

// LiveStatuses occupy calendar space.
var LiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed}

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelledByClient, StatusCancelledByProvider:
		return true
	}
	return false
}

func (s ReservationStatus) IsLive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelledByClient || s == StatusCancelledByProvider
}

// CanTransition reports whether the life-cycle graph has an edge from s to next.
func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelledByClient || next == StatusCancelledByProvider
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelledByClient || next == StatusCancelledByProvider
	}
	return false
}

type ServiceType string

const (
	ServiceTarotReading         ServiceType = "TAROT_READING"
	ServiceEnergyCleaning       ServiceType = "ENERGY_CLEANING"
	ServiceHebrewPendulum       ServiceType = "HEBREW_PENDULUM"
	ServicePersonalConsultation ServiceType = "PERSONAL_CONSULTATION"
)

var ServiceTypes = []ServiceType{
	ServiceTarotReading,
	ServiceEnergyCleaning,
	ServiceHebrewPendulum,
	ServicePersonalConsultation,
}

func (t ServiceType) Valid() bool {
	for _, v := range ServiceTypes {
		if t == v {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID                 uuid.UUID         `bun:"id,pk,type:uuid"`
	ProviderID         string            `bun:"provider_id,notnull"`
	ClientID           string            `bun:"client_id,notnull"`
	ClientContact      string            `bun:"client_contact,notnull"`
	SessionDate        time.Time         `bun:"session_date,notnull,type:date"`
	SessionTime        ClockTime         `bun:"session_time,notnull,type:varchar(5)"`
	DurationMinutes    int               `bun:"duration_minutes,notnull"`
	ServiceType        ServiceType       `bun:"service_type,notnull"`
	Status             ReservationStatus `bun:"status,notnull"`
	PriceAmount        int64             `bun:"price_amount,notnull"`
	PaymentStatus      PaymentStatus     `bun:"payment_status,notnull"`
	MeetingLink        string            `bun:"meeting_link,notnull"`
	ClientNotes        *string           `bun:"client_notes"`
	ProviderNotes      *string           `bun:"provider_notes"`
	CancellationReason *string           `bun:"cancellation_reason"`
	CreatedAt          time.Time         `bun:"created_at,notnull"`
	UpdatedAt          time.Time         `bun:"updated_at,notnull"`
	ConfirmedAt        *time.Time        `bun:"confirmed_at"`
	CancelledAt        *time.Time        `bun:"cancelled_at"`
	CompletedAt        *time.Time        `bun:"completed_at"`
}

func (r *Reservation) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	}
	return nil
}

// StartsAt is the instant the session begins when its wall-clock date and time are read in loc.
func (r Reservation) StartsAt(loc *time.Location) time.Time {
	return DateAt(r.SessionDate, r.SessionTime, loc)
}

// Overlaps applies the half-open interval test between the reservation and a candidate
// starting at start lasting duration minutes on the same date.
func (r Reservation) Overlaps(start ClockTime, durationMinutes int) bool {
	return Overlaps(start, durationMinutes, r.SessionTime, r.DurationMinutes)
}

// Overlaps reports whether [a, a+aMin) and [b, b+bMin) intersect.
func Overlaps(a ClockTime, aMin int, b ClockTime, bMin int) bool {
	return int(a) < int(b)+bMin && int(b) < int(a)+aMin
}
