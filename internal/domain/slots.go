package domain

import (
	"time"
)

const (
	SlotStep        = 30 * time.Minute
	MinimumLeadTime = 2 * time.Hour
)

type Slot struct {
	Date            time.Time
	Time            ClockTime
	DurationMinutes int
	Available       bool
}

// DayKind tags how a single calendar date resolves against the template and exceptions.
type DayKind int

const (
	NoAvailability DayKind = iota
	Blocked
	CustomWindow
	TemplateWindow
)

func (k DayKind) String() string {
	switch k {
	case Blocked:
		return "blocked"
	case CustomWindow:
		return "custom_window"
	case TemplateWindow:
		return "template_window"
	default:
		return "no_availability"
	}
}

// DaySchedule is the resolved window for one date. Start and End are only meaningful
// for CustomWindow and TemplateWindow.
type DaySchedule struct {
	Kind  DayKind
	Start ClockTime
	End   ClockTime
}

func (d DaySchedule) Open() bool {
	return d.Kind == CustomWindow || d.Kind == TemplateWindow
}

// ScheduleSnapshot is everything the projection needs for one provider, read at a
// single point in time.
type ScheduleSnapshot struct {
	Weekly       []WeeklyAvailability
	Exceptions   []AvailabilityException
	Reservations []Reservation
}

// ResolveDay applies exception precedence: BLOCKED wins, CUSTOM_HOURS replaces the
// weekly window entirely, otherwise the active template row for the weekday is used.
func ResolveDay(date time.Time, weekly []WeeklyAvailability, exceptions []AvailabilityException) DaySchedule {
	date = DateOf(date)
	for _, ex := range exceptions {
		if !DateOf(ex.ExceptionDate).Equal(date) {
			continue
		}
		switch ex.ExceptionType {
		case ExceptionTypeBlocked:
			return DaySchedule{Kind: Blocked}
		case ExceptionTypeCustomHours:
			if ex.StartTime == nil || ex.EndTime == nil || *ex.StartTime >= *ex.EndTime {
				return DaySchedule{Kind: NoAvailability}
			}
			return DaySchedule{Kind: CustomWindow, Start: *ex.StartTime, End: *ex.EndTime}
		}
	}

	weekday := int(date.Weekday())
	for _, w := range weekly {
		if !w.IsActive || w.DayOfWeek != weekday {
			continue
		}
		if w.StartTime >= w.EndTime {
			return DaySchedule{Kind: NoAvailability}
		}
		return DaySchedule{Kind: TemplateWindow, Start: w.StartTime, End: w.EndTime}
	}
	return DaySchedule{Kind: NoAvailability}
}

type SlotQuery struct {
	StartDate       time.Time
	EndDate         time.Time
	DurationMinutes int
	Now             time.Time
	// Location is the wall-clock zone of dates and times. Nil means UTC.
	Location *time.Location
	// LeadTime and Step fall back to MinimumLeadTime and SlotStep when zero.
	LeadTime time.Duration
	Step     time.Duration
}

// ProjectSlots turns a snapshot into bookable slots over [StartDate, EndDate].
//
// Candidates walk a fixed grid from the window start while the candidate start is
// before the window end. A candidate may therefore run past the window end when the
// duration is longer than the step.
func ProjectSlots(snap ScheduleSnapshot, q SlotQuery) []Slot {
	if !hasActiveTemplate(snap.Weekly) || q.DurationMinutes <= 0 {
		return []Slot{}
	}

	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}
	lead := q.LeadTime
	if lead <= 0 {
		lead = MinimumLeadTime
	}
	step := ClockTime(SlotStep / time.Minute)
	if q.Step >= time.Minute {
		step = ClockTime(q.Step / time.Minute)
	}
	cutoff := q.Now.Add(lead)

	live := liveByDate(snap.Reservations)

	slots := []Slot{}
	start, end := DateOf(q.StartDate), DateOf(q.EndDate)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := ResolveDay(d, snap.Weekly, snap.Exceptions)
		if !day.Open() {
			continue
		}
		booked := live[FormatDate(d)]
		for c := day.Start; c < day.End; c += step {
			if !DateAt(d, c, loc).After(cutoff) {
				continue
			}
			if overlapsAny(booked, c, q.DurationMinutes) {
				continue
			}
			slots = append(slots, Slot{
				Date:            d,
				Time:            c,
				DurationMinutes: q.DurationMinutes,
				Available:       true,
			})
		}
	}
	return slots
}

// ContainsSlot reports whether slots offers exactly date and time.
func ContainsSlot(slots []Slot, date time.Time, at ClockTime) bool {
	date = DateOf(date)
	for _, s := range slots {
		if s.Available && s.Time == at && s.Date.Equal(date) {
			return true
		}
	}
	return false
}

func hasActiveTemplate(weekly []WeeklyAvailability) bool {
	for _, w := range weekly {
		if w.IsActive {
			return true
		}
	}
	return false
}

func liveByDate(reservations []Reservation) map[string][]Reservation {
	out := make(map[string][]Reservation)
	for _, r := range reservations {
		if !r.Status.IsLive() {
			continue
		}
		key := FormatDate(r.SessionDate)
		out[key] = append(out[key], r)
	}
	return out
}

func overlapsAny(booked []Reservation, start ClockTime, durationMinutes int) bool {
	for _, r := range booked {
		if r.Overlaps(start, durationMinutes) {
			return true
		}
	}
	return false
}
