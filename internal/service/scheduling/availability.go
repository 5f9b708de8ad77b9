package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store"
)

type SetWeeklyInput struct {
	ProviderID string
	DayOfWeek  int
	StartTime  domain.ClockTime
	EndTime    domain.ClockTime
}

func (s *Service) SetWeeklyAvailability(ctx context.Context, in SetWeeklyInput) (domain.WeeklyAvailability, error) {
	if strings.TrimSpace(in.ProviderID) == "" {
		return domain.WeeklyAvailability{}, invalidInput("provider_id is required")
	}
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return domain.WeeklyAvailability{}, invalidInput("day_of_week must be between 0 and 6")
	}
	if !in.StartTime.Valid() || !in.EndTime.Valid() || in.StartTime >= in.EndTime {
		return domain.WeeklyAvailability{}, ErrInvalidRange
	}

	w, err := s.availability.UpsertWeekly(ctx, domain.WeeklyAvailability{
		ProviderID: in.ProviderID,
		DayOfWeek:  in.DayOfWeek,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		IsActive:   true,
	})
	if err != nil {
		return domain.WeeklyAvailability{}, err
	}
	s.logger.Info("weekly availability set",
		"provider_id", w.ProviderID, "day_of_week", w.DayOfWeek,
		"start", w.StartTime.String(), "end", w.EndTime.String())
	return w, nil
}

func (s *Service) GetWeeklyAvailability(ctx context.Context, providerID string) ([]domain.WeeklyAvailability, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, invalidInput("provider_id is required")
	}
	return s.availability.ListWeekly(ctx, providerID)
}

func (s *Service) RemoveWeeklyAvailability(ctx context.Context, providerID string, id uuid.UUID) error {
	if strings.TrimSpace(providerID) == "" {
		return invalidInput("provider_id is required")
	}
	if id == uuid.Nil {
		return ErrNotFound
	}
	if err := s.availability.DeactivateWeekly(ctx, providerID, id); err != nil {
		return mapStoreError(err)
	}
	return nil
}

type AddExceptionInput struct {
	ProviderID string
	Date       time.Time
	Type       domain.ExceptionType
	StartTime  *domain.ClockTime
	EndTime    *domain.ClockTime
	Reason     *string
}

// AddException validates in a fixed order: past date, then the custom window, then
// uniqueness of the date.
func (s *Service) AddException(ctx context.Context, in AddExceptionInput) (domain.AvailabilityException, error) {
	if strings.TrimSpace(in.ProviderID) == "" {
		return domain.AvailabilityException{}, invalidInput("provider_id is required")
	}
	if !in.Type.Valid() {
		return domain.AvailabilityException{}, invalidInput("exception_type must be BLOCKED or CUSTOM_HOURS")
	}

	date := domain.DateOf(in.Date)
	if date.Before(s.today()) {
		return domain.AvailabilityException{}, ErrPastDate
	}

	ex := domain.AvailabilityException{
		ProviderID:    in.ProviderID,
		ExceptionDate: date,
		ExceptionType: in.Type,
		Reason:        trimmedOrNil(in.Reason),
	}
	if in.Type == domain.ExceptionTypeCustomHours {
		if in.StartTime == nil || in.EndTime == nil ||
			!in.StartTime.Valid() || !in.EndTime.Valid() || *in.StartTime >= *in.EndTime {
			return domain.AvailabilityException{}, ErrInvalidRange
		}
		start, end := *in.StartTime, *in.EndTime
		ex.StartTime, ex.EndTime = &start, &end
	}

	created, err := s.exceptions.CreateException(ctx, ex)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.AvailabilityException{}, ErrDuplicateException
		}
		return domain.AvailabilityException{}, err
	}
	s.logger.Info("availability exception added",
		"provider_id", created.ProviderID, "date", domain.FormatDate(created.ExceptionDate),
		"type", string(created.ExceptionType))
	return created, nil
}

func (s *Service) GetExceptionsInRange(ctx context.Context, providerID string, startDate, endDate time.Time) ([]domain.AvailabilityException, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, invalidInput("provider_id is required")
	}
	start, end := domain.DateOf(startDate), domain.DateOf(endDate)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	return s.exceptions.ListExceptions(ctx, providerID, start, end)
}

func (s *Service) RemoveException(ctx context.Context, providerID string, id uuid.UUID) error {
	if strings.TrimSpace(providerID) == "" {
		return invalidInput("provider_id is required")
	}
	if id == uuid.Nil {
		return ErrNotFound
	}
	if err := s.exceptions.DeleteException(ctx, providerID, id); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrIdempotencyConflict):
		return ErrIdempotencyConflict
	default:
		return err
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
