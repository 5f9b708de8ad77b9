package scheduling

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/observability"
)

type SlotsInput struct {
	ProviderID      string
	StartDate       time.Time
	EndDate         time.Time
	DurationMinutes int
}

// ProjectSlots lists bookable slots for a provider. It reads a single consistent
// snapshot and has no side effects.
func (s *Service) ProjectSlots(ctx context.Context, in SlotsInput) ([]domain.Slot, error) {
	if strings.TrimSpace(in.ProviderID) == "" {
		return nil, invalidInput("provider_id is required")
	}
	start, end := domain.DateOf(in.StartDate), domain.DateOf(in.EndDate)
	if in.DurationMinutes <= 0 || end.Before(start) {
		return nil, ErrInvalidRange
	}
	if domain.DaysBetween(start, end) > s.cfg.MaxProjectionDays {
		return nil, newError(KindInvalidRange, "date range is too long")
	}

	ctx, span := observability.Tracer().Start(ctx, "scheduling.ProjectSlots", trace.WithAttributes(
		attribute.String("provider_id", in.ProviderID),
		attribute.String("start_date", domain.FormatDate(start)),
		attribute.String("end_date", domain.FormatDate(end)),
	))
	defer span.End()

	began := time.Now()
	snap, err := s.reservations.ReadSchedule(ctx, in.ProviderID, start, end)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	slots := domain.ProjectSlots(snap, s.slotQuery(start, end, in.DurationMinutes))
	s.metrics.ObserveProjection(time.Since(began), len(slots))
	span.SetAttributes(attribute.Int("slots", len(slots)))
	return slots, nil
}

func (s *Service) slotQuery(start, end time.Time, durationMinutes int) domain.SlotQuery {
	return domain.SlotQuery{
		StartDate:       start,
		EndDate:         end,
		DurationMinutes: durationMinutes,
		Now:             s.now(),
		Location:        s.cfg.Location,
		LeadTime:        s.cfg.LeadTime,
		Step:            s.cfg.SlotStep,
	}
}
