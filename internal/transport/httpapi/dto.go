package httpapi

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
)

var registerValidators sync.Once

// registerBindingValidators adds the "clock" (HH:MM) and "date" (YYYY-MM-DD) tags to
// gin's validator.
func registerBindingValidators() {
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseClockTime(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseDate(fl.Field().String())
			return err == nil
		})
	})
}

type setWeeklyRequest struct {
	DayOfWeek *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime string `json:"start_time" binding:"required,clock"`
	EndTime   string `json:"end_time" binding:"required,clock"`
}

type addExceptionRequest struct {
	Date      string  `json:"date" binding:"required,date"`
	Type      string  `json:"type" binding:"required,oneof=BLOCKED CUSTOM_HOURS"`
	StartTime *string `json:"start_time" binding:"omitempty,clock"`
	EndTime   *string `json:"end_time" binding:"omitempty,clock"`
	Reason    *string `json:"reason" binding:"omitempty,max=500"`
}

type bookRequest struct {
	ProviderID      string  `json:"provider_id" binding:"required,max=128"`
	Date            string  `json:"date" binding:"required,date"`
	Time            string  `json:"time" binding:"required,clock"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=1,max=480"`
	ServiceType     string  `json:"service_type" binding:"required"`
	Notes           *string `json:"notes" binding:"omitempty,max=2000"`
}

type notesRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=2000"`
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type slotsQuery struct {
	StartDate       string `form:"start_date" binding:"required,date"`
	EndDate         string `form:"end_date" binding:"required,date"`
	DurationMinutes int    `form:"duration_minutes" binding:"required,min=1,max=480"`
}

type rangeQuery struct {
	StartDate string `form:"start_date" binding:"required,date"`
	EndDate   string `form:"end_date" binding:"required,date"`
}

type reservationsQuery struct {
	Status string `form:"status"`
	From   string `form:"from" binding:"omitempty,date"`
	To     string `form:"to" binding:"omitempty,date"`
}

type slotResponse struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Available       bool   `json:"available"`
}

type weeklyResponse struct {
	ID        uuid.UUID `json:"id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

type exceptionResponse struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	Type      string    `json:"type"`
	StartTime *string   `json:"start_time,omitempty"`
	EndTime   *string   `json:"end_time,omitempty"`
	Reason    *string   `json:"reason,omitempty"`
}

type reservationResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ProviderID         string     `json:"provider_id"`
	ClientID           string     `json:"client_id"`
	Date               string     `json:"date"`
	Time               string     `json:"time"`
	DurationMinutes    int        `json:"duration_minutes"`
	ServiceType        string     `json:"service_type"`
	Status             string     `json:"status"`
	PriceAmount        int64      `json:"price_amount"`
	PaymentStatus      string     `json:"payment_status"`
	MeetingLink        string     `json:"meeting_link"`
	ClientNotes        *string    `json:"client_notes,omitempty"`
	ProviderNotes      *string    `json:"provider_notes,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

func toSlotResponses(slots []domain.Slot) []slotResponse {
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse{
			Date:            domain.FormatDate(s.Date),
			Time:            s.Time.String(),
			DurationMinutes: s.DurationMinutes,
			Available:       s.Available,
		})
	}
	return out
}

func toWeeklyResponse(w domain.WeeklyAvailability) weeklyResponse {
	return weeklyResponse{ID: w.ID, DayOfWeek: w.DayOfWeek, StartTime: w.StartTime.String(), EndTime: w.EndTime.String()}
}

func toExceptionResponse(e domain.AvailabilityException) exceptionResponse {
	out := exceptionResponse{ID: e.ID, Date: domain.FormatDate(e.ExceptionDate), Type: string(e.ExceptionType), Reason: e.Reason}
	if e.StartTime != nil {
		s := e.StartTime.String()
		out.StartTime = &s
	}
	if e.EndTime != nil {
		s := e.EndTime.String()
		out.EndTime = &s
	}
	return out
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:                 r.ID,
		ProviderID:         r.ProviderID,
		ClientID:           r.ClientID,
		Date:               domain.FormatDate(r.SessionDate),
		Time:               r.SessionTime.String(),
		DurationMinutes:    r.DurationMinutes,
		ServiceType:        string(r.ServiceType),
		Status:             string(r.Status),
		PriceAmount:        r.PriceAmount,
		PaymentStatus:      string(r.PaymentStatus),
		MeetingLink:        r.MeetingLink,
		ClientNotes:        r.ClientNotes,
		ProviderNotes:      r.ProviderNotes,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt,
		ConfirmedAt:        r.ConfirmedAt,
		CancelledAt:        r.CancelledAt,
		CompletedAt:        r.CompletedAt,
	}
}

func toReservationResponses(rs []domain.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationResponse(r))
	}
	return out
}
