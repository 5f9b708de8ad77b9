package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// WeeklyAvailability is one day of a provider's recurring template. DayOfWeek follows
// time.Weekday numbering (0 = Sunday).
type WeeklyAvailability struct {
	bun.BaseModel `bun:"table:weekly_availability"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	ProviderID string    `bun:"provider_id,notnull"`
	DayOfWeek  int       `bun:"day_of_week,notnull"`
	StartTime  ClockTime `bun:"start_time,notnull,type:varchar(5)"`
	EndTime    ClockTime `bun:"end_time,notnull,type:varchar(5)"`
	IsActive   bool      `bun:"is_active,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (w *WeeklyAvailability) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if w.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			w.ID = id
		}
		if w.CreatedAt.IsZero() {
			w.CreatedAt = now
		}
		if w.UpdatedAt.IsZero() {
			w.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		w.UpdatedAt = now
	}
	return nil
}

type ExceptionType string

const (
	ExceptionTypeBlocked     ExceptionType = "BLOCKED"
	ExceptionTypeCustomHours ExceptionType = "CUSTOM_HOURS"
)

func (t ExceptionType) Valid() bool {
	return t == ExceptionTypeBlocked || t == ExceptionTypeCustomHours
}

// AvailabilityException overrides the weekly template for one calendar date. Exceptions
// are never edited in place: they are removed and created again.
type AvailabilityException struct {
	bun.BaseModel `bun:"table:availability_exceptions"`

	ID            uuid.UUID     `bun:"id,pk,type:uuid"`
	ProviderID    string        `bun:"provider_id,notnull"`
	ExceptionDate time.Time     `bun:"exception_date,notnull,type:date"`
	ExceptionType ExceptionType `bun:"exception_type,notnull"`
	StartTime     *ClockTime    `bun:"start_time,type:varchar(5)"`
	EndTime       *ClockTime    `bun:"end_time,type:varchar(5)"`
	Reason        *string       `bun:"reason"`
	CreatedAt     time.Time     `bun:"created_at,notnull"`
}

func (e *AvailabilityException) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if e.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		e.ID = id
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
