package scheduling

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store"
)

// memStore is an in-memory database. mu is held for every call and for the whole of
// each transaction; writes made inside a transaction are applied only when fn succeeds.
type memStore struct {
	mu           sync.Mutex
	weekly       []domain.WeeklyAvailability
	exceptions   []domain.AvailabilityException
	reservations map[uuid.UUID]domain.Reservation
	events       []domain.OutboxEvent

	// insertErr, when set, fails InsertReservation after the slot checks pass.
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{reservations: map[uuid.UUID]domain.Reservation{}}
}

var (
	_ store.AvailabilityRepository = (*memStore)(nil)
	_ store.ExceptionRepository    = (*memStore)(nil)
	_ store.ReservationRepository  = (*memStore)(nil)
)

func (m *memStore) UpsertWeekly(ctx context.Context, w domain.WeeklyAvailability) (domain.WeeklyAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.weekly {
		if existing.IsActive && existing.ProviderID == w.ProviderID && existing.DayOfWeek == w.DayOfWeek {
			m.weekly[i].StartTime = w.StartTime
			m.weekly[i].EndTime = w.EndTime
			return m.weekly[i], nil
		}
	}
	w.ID = uuid.New()
	w.IsActive = true
	m.weekly = append(m.weekly, w)
	return w, nil
}

func (m *memStore) ListWeekly(ctx context.Context, providerID string) ([]domain.WeeklyAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listWeekly(providerID), nil
}

func (m *memStore) listWeekly(providerID string) []domain.WeeklyAvailability {
	out := []domain.WeeklyAvailability{}
	for _, w := range m.weekly {
		if w.IsActive && w.ProviderID == providerID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out
}

func (m *memStore) DeactivateWeekly(ctx context.Context, providerID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.weekly {
		if w.ID == id && w.ProviderID == providerID && w.IsActive {
			m.weekly[i].IsActive = false
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) CreateException(ctx context.Context, ex domain.AvailabilityException) (domain.AvailabilityException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.exceptions {
		if e.ProviderID == ex.ProviderID && e.ExceptionDate.Equal(ex.ExceptionDate) {
			return domain.AvailabilityException{}, store.ErrConflict
		}
	}
	ex.ID = uuid.New()
	m.exceptions = append(m.exceptions, ex)
	return ex, nil
}

func (m *memStore) ListExceptions(ctx context.Context, providerID string, startDate, endDate time.Time) ([]domain.AvailabilityException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listExceptions(providerID, startDate, endDate), nil
}

func (m *memStore) listExceptions(providerID string, startDate, endDate time.Time) []domain.AvailabilityException {
	out := []domain.AvailabilityException{}
	for _, e := range m.exceptions {
		if e.ProviderID != providerID || e.ExceptionDate.Before(startDate) || e.ExceptionDate.After(endDate) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (m *memStore) DeleteException(ctx context.Context, providerID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.exceptions {
		if e.ID == id && e.ProviderID == providerID {
			m.exceptions = append(m.exceptions[:i], m.exceptions[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) ReadSchedule(ctx context.Context, providerID string, startDate, endDate time.Time) (domain.ScheduleSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readSchedule(providerID, startDate, endDate), nil
}

func (m *memStore) readSchedule(providerID string, startDate, endDate time.Time) domain.ScheduleSnapshot {
	snap := domain.ScheduleSnapshot{
		Weekly:     m.listWeekly(providerID),
		Exceptions: m.listExceptions(providerID, startDate, endDate),
	}
	for _, r := range m.reservations {
		if r.ProviderID != providerID || !r.Status.IsLive() {
			continue
		}
		if r.SessionDate.Before(startDate) || r.SessionDate.After(endDate) {
			continue
		}
		snap.Reservations = append(snap.Reservations, r)
	}
	return snap
}

func (m *memStore) HasPendingReservation(ctx context.Context, clientID, providerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return hasPending(m.reservations, nil, clientID, providerID), nil
}

func hasPending(committed map[uuid.UUID]domain.Reservation, inserted []domain.Reservation, clientID, providerID string) bool {
	for _, r := range committed {
		if r.ClientID == clientID && r.ProviderID == providerID && r.Status == domain.StatusPending {
			return true
		}
	}
	for _, r := range inserted {
		if r.ClientID == clientID && r.ProviderID == providerID && r.Status == domain.StatusPending {
			return true
		}
	}
	return false
}

func (m *memStore) GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return domain.Reservation{}, store.ErrNotFound
	}
	return r, nil
}

func (m *memStore) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *memStore) ListReservations(ctx context.Context, filter store.ReservationFilter) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Reservation{}
	for _, r := range m.reservations {
		if filter.ClientID != "" && r.ClientID != filter.ClientID {
			continue
		}
		if filter.ProviderID != "" && r.ProviderID != filter.ProviderID {
			continue
		}
		if filter.From != nil && r.SessionDate.Before(domain.DateOf(*filter.From)) {
			continue
		}
		if filter.To != nil && r.SessionDate.After(domain.DateOf(*filter.To)) {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SessionDate.Equal(out[j].SessionDate) {
			return out[i].SessionDate.Before(out[j].SessionDate)
		}
		return out[i].SessionTime < out[j].SessionTime
	})
	return out, nil
}

func (m *memStore) InBookingTransaction(ctx context.Context, scope store.BookingScope, fn func(ctx context.Context, tx store.BookingTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memBookingTx{m: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, r := range tx.inserted {
		m.reservations[r.ID] = r
	}
	m.events = append(m.events, tx.events...)
	return nil
}

func (m *memStore) InReservationTransaction(ctx context.Context, fn func(ctx context.Context, tx store.ReservationTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memReservationTx{m: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, r := range tx.updated {
		m.reservations[r.ID] = r
	}
	m.events = append(m.events, tx.events...)
	return nil
}

func (m *memStore) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

func (m *memStore) put(r domain.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = r
}

type memBookingTx struct {
	m        *memStore
	inserted []domain.Reservation
	events   []domain.OutboxEvent
}

func (tx *memBookingTx) ReadSchedule(ctx context.Context, providerID string, startDate, endDate time.Time) (domain.ScheduleSnapshot, error) {
	return tx.m.readSchedule(providerID, startDate, endDate), nil
}

func (tx *memBookingTx) GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	if r, ok := tx.m.reservations[id]; ok {
		return r, nil
	}
	for _, r := range tx.inserted {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reservation{}, store.ErrNotFound
}

func (tx *memBookingTx) HasPendingReservation(ctx context.Context, clientID, providerID string) (bool, error) {
	return hasPending(tx.m.reservations, tx.inserted, clientID, providerID), nil
}

func (tx *memBookingTx) LiveReservationExists(ctx context.Context, providerID string, date time.Time, at domain.ClockTime) (bool, error) {
	for _, r := range tx.m.reservations {
		if r.ProviderID == providerID && r.SessionDate.Equal(date) && r.SessionTime == at && r.Status.IsLive() {
			return true, nil
		}
	}
	return false, nil
}

func (tx *memBookingTx) InsertReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	if tx.m.insertErr != nil {
		return domain.Reservation{}, tx.m.insertErr
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, ok := tx.m.reservations[r.ID]; ok {
		return domain.Reservation{}, store.ErrIdempotencyConflict
	}
	tx.inserted = append(tx.inserted, r)
	return r, nil
}

func (tx *memBookingTx) AppendEvent(ctx context.Context, evt domain.OutboxEvent) error {
	tx.events = append(tx.events, evt)
	return nil
}

type memReservationTx struct {
	m       *memStore
	updated []domain.Reservation
	events  []domain.OutboxEvent
}

func (tx *memReservationTx) LockReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	r, ok := tx.m.reservations[id]
	if !ok {
		return domain.Reservation{}, store.ErrNotFound
	}
	return r, nil
}

func (tx *memReservationTx) UpdateReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	tx.updated = append(tx.updated, r)
	return r, nil
}

func (tx *memReservationTx) AppendEvent(ctx context.Context, evt domain.OutboxEvent) error {
	tx.events = append(tx.events, evt)
	return nil
}

type fixedPrices struct{}

func (fixedPrices) PriceFor(serviceType domain.ServiceType, durationMinutes int) int64 {
	return int64(durationMinutes) * 100
}

type seqMeetings struct {
	mu sync.Mutex
	n  int
}

func (g *seqMeetings) NewMeetingReference() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "https://meet.example.com/room-" + strconv.Itoa(g.n)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
