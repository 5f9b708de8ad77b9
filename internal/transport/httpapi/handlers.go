package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/service/scheduling"
)

type schedulingService interface {
	SetWeeklyAvailability(ctx context.Context, in scheduling.SetWeeklyInput) (domain.WeeklyAvailability, error)
	GetWeeklyAvailability(ctx context.Context, providerID string) ([]domain.WeeklyAvailability, error)
	RemoveWeeklyAvailability(ctx context.Context, providerID string, id uuid.UUID) error
	AddException(ctx context.Context, in scheduling.AddExceptionInput) (domain.AvailabilityException, error)
	GetExceptionsInRange(ctx context.Context, providerID string, startDate, endDate time.Time) ([]domain.AvailabilityException, error)
	RemoveException(ctx context.Context, providerID string, id uuid.UUID) error
	ProjectSlots(ctx context.Context, in scheduling.SlotsInput) ([]domain.Slot, error)
	BookSession(ctx context.Context, req scheduling.BookingRequest) (domain.Reservation, error)
	Confirm(ctx context.Context, reservationID uuid.UUID, providerID string, notes *string) (domain.Reservation, error)
	Cancel(ctx context.Context, reservationID uuid.UUID, clientID string, reason string) (domain.Reservation, error)
	CancelByProvider(ctx context.Context, reservationID uuid.UUID, providerID string, reason string) (domain.Reservation, error)
	Complete(ctx context.Context, reservationID uuid.UUID, providerID string, notes *string) (domain.Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID, actorID string) (domain.Reservation, error)
	ListClientReservations(ctx context.Context, clientID string, status *domain.ReservationStatus) ([]domain.Reservation, error)
	ListProviderReservations(ctx context.Context, providerID string, from, to *time.Time, status *domain.ReservationStatus) ([]domain.Reservation, error)
}

type handlers struct {
	svc schedulingService
}

func (h *handlers) listSlots(c *gin.Context) {
	var q slotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, badRequest(err.Error()))
		return
	}
	start, _ := domain.ParseDate(q.StartDate)
	end, _ := domain.ParseDate(q.EndDate)
	slots, err := h.svc.ProjectSlots(c.Request.Context(), scheduling.SlotsInput{
		ProviderID:      c.Param("providerID"),
		StartDate:       start,
		EndDate:         end,
		DurationMinutes: q.DurationMinutes,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, toSlotResponses(slots))
}

func (h *handlers) listWeekly(c *gin.Context) {
	rows, err := h.svc.GetWeeklyAvailability(c.Request.Context(), c.Param("providerID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]weeklyResponse, 0, len(rows))
	for _, w := range rows {
		out = append(out, toWeeklyResponse(w))
	}
	respond(c, http.StatusOK, out)
}

func (h *handlers) listExceptions(c *gin.Context) {
	var q rangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, badRequest(err.Error()))
		return
	}
	start, _ := domain.ParseDate(q.StartDate)
	end, _ := domain.ParseDate(q.EndDate)
	rows, err := h.svc.GetExceptionsInRange(c.Request.Context(), c.Param("providerID"), start, end)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]exceptionResponse, 0, len(rows))
	for _, e := range rows {
		out = append(out, toExceptionResponse(e))
	}
	respond(c, http.StatusOK, out)
}

func (h *handlers) setWeekly(c *gin.Context) {
	var req setWeeklyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err.Error()))
		return
	}
	start, startErr := domain.ParseClockTime(req.StartTime)
	end, endErr := domain.ParseClockTime(req.EndTime)
	if startErr != nil || endErr != nil {
		abortWithError(c, badRequest("times must be HH:MM"))
		return
	}
	w, err := h.svc.SetWeeklyAvailability(c.Request.Context(), scheduling.SetWeeklyInput{
		ProviderID: actorFrom(c).ID,
		DayOfWeek:  *req.DayOfWeek,
		StartTime:  start,
		EndTime:    end,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, toWeeklyResponse(w))
}

func (h *handlers) removeWeekly(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveWeeklyAvailability(c.Request.Context(), actorFrom(c).ID, id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) addException(c *gin.Context) {
	var req addExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err.Error()))
		return
	}
	date, _ := domain.ParseDate(req.Date)
	start, startErr := optionalClock(req.StartTime)
	end, endErr := optionalClock(req.EndTime)
	if startErr != nil || endErr != nil {
		abortWithError(c, badRequest("times must be HH:MM"))
		return
	}
	ex, err := h.svc.AddException(c.Request.Context(), scheduling.AddExceptionInput{
		ProviderID: actorFrom(c).ID,
		Date:       date,
		Type:       domain.ExceptionType(req.Type),
		StartTime:  start,
		EndTime:    end,
		Reason:     req.Reason,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, toExceptionResponse(ex))
}

func (h *handlers) removeException(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveException(c.Request.Context(), actorFrom(c).ID, id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err.Error()))
		return
	}
	at, err := domain.ParseClockTime(req.Time)
	if err != nil {
		abortWithError(c, badRequest("time must be HH:MM"))
		return
	}
	actor := actorFrom(c)
	date, _ := domain.ParseDate(req.Date)
	r, err := h.svc.BookSession(c.Request.Context(), scheduling.BookingRequest{
		ClientID:        actor.ID,
		ClientContact:   actor.Contact,
		ProviderID:      req.ProviderID,
		Date:            date,
		Time:            at,
		DurationMinutes: req.DurationMinutes,
		ServiceType:     domain.ServiceType(strings.ToUpper(req.ServiceType)),
		Notes:           req.Notes,
		IdempotencyKey:  c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, toReservationResponse(r))
}

func (h *handlers) listReservations(c *gin.Context) {
	var q reservationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, badRequest(err.Error()))
		return
	}
	var status *domain.ReservationStatus
	if q.Status != "" {
		s := domain.ReservationStatus(strings.ToUpper(q.Status))
		status = &s
	}

	actor := actorFrom(c)
	var (
		rows []domain.Reservation
		err  error
	)
	if actor.Role == RoleProvider {
		rows, err = h.svc.ListProviderReservations(c.Request.Context(), actor.ID, optionalDate(q.From), optionalDate(q.To), status)
	} else {
		rows, err = h.svc.ListClientReservations(c.Request.Context(), actor.ID, status)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, toReservationResponses(rows))
}

func (h *handlers) getReservation(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	r, err := h.svc.GetReservation(c.Request.Context(), id, actorFrom(c).ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, toReservationResponse(r))
}

func (h *handlers) confirm(c *gin.Context) {
	h.withNotes(c, h.svc.Confirm)
}

func (h *handlers) complete(c *gin.Context) {
	h.withNotes(c, h.svc.Complete)
}

func (h *handlers) cancel(c *gin.Context) {
	h.withReason(c, h.svc.Cancel)
}

func (h *handlers) providerCancel(c *gin.Context) {
	h.withReason(c, h.svc.CancelByProvider)
}

func (h *handlers) withNotes(c *gin.Context, op func(context.Context, uuid.UUID, string, *string) (domain.Reservation, error)) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	var req notesRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		abortWithError(c, badRequest(err.Error()))
		return
	}
	r, err := op(c.Request.Context(), id, actorFrom(c).ID, req.Notes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, toReservationResponse(r))
}

func (h *handlers) withReason(c *gin.Context, op func(context.Context, uuid.UUID, string, string) (domain.Reservation, error)) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		abortWithError(c, badRequest(err.Error()))
		return
	}
	r, err := op(c.Request.Context(), id, actorFrom(c).ID, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, toReservationResponse(r))
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}

func pathUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, scheduling.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func optionalClock(s *string) (*domain.ClockTime, error) {
	if s == nil {
		return nil, nil
	}
	c, err := domain.ParseClockTime(*s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil
	}
	return &d
}
