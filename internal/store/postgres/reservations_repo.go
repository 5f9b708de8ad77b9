package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/domain"
	"github.com/ArielDRighi/TarotFlavia-sub004/internal/store"
)

type ReservationRepo struct {
	db *bun.DB
}

func NewReservationRepo(db *bun.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

var _ store.ReservationRepository = (*ReservationRepo)(nil)

type bookingTx struct {
	tx bun.Tx
}

type reservationTx struct {
	tx bun.Tx
}

var snapshotTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func (r *ReservationRepo) ReadSchedule(ctx context.Context, providerID string, startDate, endDate time.Time) (domain.ScheduleSnapshot, error) {
	var snap domain.ScheduleSnapshot
	err := r.db.RunInTx(ctx, snapshotTxOptions, func(ctx context.Context, tx bun.Tx) error {
		s, err := readSchedule(ctx, tx, providerID, startDate, endDate)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	if err != nil {
		return domain.ScheduleSnapshot{}, err
	}
	return snap, nil
}

func (r *ReservationRepo) HasPendingReservation(ctx context.Context, clientID, providerID string) (bool, error) {
	return hasPendingReservation(ctx, r.db, clientID, providerID)
}

func (r *ReservationRepo) GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return getReservation(ctx, r.db, id)
}

func (r *ReservationRepo) ListReservations(ctx context.Context, filter store.ReservationFilter) ([]domain.Reservation, error) {
	rows := []domain.Reservation{}
	q := r.db.NewSelect().Model(&rows)
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.ProviderID != "" {
		q = q.Where("provider_id = ?", filter.ProviderID)
	}
	if filter.From != nil {
		q = q.Where("session_date >= ?", domain.DateOf(*filter.From))
	}
	if filter.To != nil {
		q = q.Where("session_date <= ?", domain.DateOf(*filter.To))
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	err := q.OrderExpr("session_date ASC, session_time ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) InBookingTransaction(ctx context.Context, scope store.BookingScope, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockBookingScope(ctx, tx, scope); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

func (r *ReservationRepo) InReservationTransaction(ctx context.Context, fn func(ctx context.Context, tx store.ReservationTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, reservationTx{tx: tx})
	})
}

// Advisory lock namespaces (first key of the two-key form).
const (
	lockSpaceClientProvider int32 = 1
	lockSpaceProviderDate   int32 = 2
)

// lockBookingScope serialises, across every instance sharing the database, bookings of one
// client with one provider and bookings of one provider on one calendar date. The client
// lock is always taken first.
func lockBookingScope(ctx context.Context, tx bun.Tx, scope store.BookingScope) error {
	if scope.ClientID != "" {
		key := scope.ClientID + ":" + scope.ProviderID
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(?, hashtext(?))", lockSpaceClientProvider, key).Exec(ctx); err != nil {
			return err
		}
	}
	key := scope.ProviderID + ":" + domain.FormatDate(scope.Date)
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(?, hashtext(?))", lockSpaceProviderDate, key).Exec(ctx)
	return err
}

func (b bookingTx) GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return getReservation(ctx, b.tx, id)
}

func (b bookingTx) HasPendingReservation(ctx context.Context, clientID, providerID string) (bool, error) {
	return hasPendingReservation(ctx, b.tx, clientID, providerID)
}

func (b bookingTx) ReadSchedule(ctx context.Context, providerID string, startDate, endDate time.Time) (domain.ScheduleSnapshot, error) {
	return readSchedule(ctx, b.tx, providerID, startDate, endDate)
}

func (b bookingTx) LiveReservationExists(ctx context.Context, providerID string, date time.Time, at domain.ClockTime) (bool, error) {
	var ids []uuid.UUID
	err := b.tx.NewSelect().
		Model((*domain.Reservation)(nil)).
		Column("id").
		Where("provider_id = ?", providerID).
		Where("session_date = ?", domain.DateOf(date)).
		Where("session_time = ?", at).
		Where("status IN (?)", bun.In(domain.LiveStatuses)).
		For("UPDATE").
		Scan(ctx, &ids)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (b bookingTx) InsertReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	m := r
	m.SessionDate = domain.DateOf(r.SessionDate)

	if _, err := b.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		if pgErr, ok := uniqueViolation(err); ok {
			switch pgErr.ConstraintName {
			case constraintReservationsLiveSlot:
				return domain.Reservation{}, store.ErrConflict
			case constraintReservationsPkey:
				return domain.Reservation{}, store.ErrIdempotencyConflict
			}
		}
		return domain.Reservation{}, err
	}
	return m, nil
}

func (b bookingTx) AppendEvent(ctx context.Context, evt domain.OutboxEvent) error {
	return appendEvent(ctx, b.tx, evt)
}

func (t reservationTx) LockReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	var m domain.Reservation
	err := t.tx.NewSelect().
		Model(&m).
		Where("id = ?", id).
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, store.ErrNotFound
		}
		return domain.Reservation{}, err
	}
	return m, nil
}

func (t reservationTx) UpdateReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	m := r
	res, err := t.tx.NewUpdate().
		Model(&m).
		Column("status", "payment_status", "provider_notes", "cancellation_reason",
			"updated_at", "confirmed_at", "cancelled_at", "completed_at").
		WherePK().
		Exec(ctx)
	if err := affectedOrNotFound(res, err); err != nil {
		return domain.Reservation{}, err
	}
	return m, nil
}

func (t reservationTx) AppendEvent(ctx context.Context, evt domain.OutboxEvent) error {
	return appendEvent(ctx, t.tx, evt)
}

func readSchedule(ctx context.Context, db bun.IDB, providerID string, startDate, endDate time.Time) (domain.ScheduleSnapshot, error) {
	weekly, err := listWeekly(ctx, db, providerID)
	if err != nil {
		return domain.ScheduleSnapshot{}, err
	}
	exceptions, err := listExceptions(ctx, db, providerID, startDate, endDate)
	if err != nil {
		return domain.ScheduleSnapshot{}, err
	}

	reservations := []domain.Reservation{}
	err = db.NewSelect().
		Model(&reservations).
		Where("provider_id = ?", providerID).
		Where("session_date >= ?", domain.DateOf(startDate)).
		Where("session_date <= ?", domain.DateOf(endDate)).
		Where("status IN (?)", bun.In(domain.LiveStatuses)).
		OrderExpr("session_date ASC, session_time ASC").
		Scan(ctx)
	if err != nil {
		return domain.ScheduleSnapshot{}, err
	}

	return domain.ScheduleSnapshot{
		Weekly:       weekly,
		Exceptions:   exceptions,
		Reservations: reservations,
	}, nil
}

func getReservation(ctx context.Context, db bun.IDB, id uuid.UUID) (domain.Reservation, error) {
	var m domain.Reservation
	err := db.NewSelect().
		Model(&m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, store.ErrNotFound
		}
		return domain.Reservation{}, err
	}
	return m, nil
}

func hasPendingReservation(ctx context.Context, db bun.IDB, clientID, providerID string) (bool, error) {
	return db.NewSelect().
		Model((*domain.Reservation)(nil)).
		Where("client_id = ?", clientID).
		Where("provider_id = ?", providerID).
		Where("status = ?", domain.StatusPending).
		Exists(ctx)
}
