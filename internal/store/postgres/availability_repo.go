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

// AvailabilityRepo stores the weekly template and its date exceptions.
type AvailabilityRepo struct {
	db *bun.DB
}

func NewAvailabilityRepo(db *bun.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

var (
	_ store.AvailabilityRepository = (*AvailabilityRepo)(nil)
	_ store.ExceptionRepository    = (*AvailabilityRepo)(nil)
)

func (r *AvailabilityRepo) UpsertWeekly(ctx context.Context, w domain.WeeklyAvailability) (domain.WeeklyAvailability, error) {
	m := domain.WeeklyAvailability{
		ProviderID: w.ProviderID,
		DayOfWeek:  w.DayOfWeek,
		StartTime:  w.StartTime,
		EndTime:    w.EndTime,
		IsActive:   true,
	}

	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (provider_id, day_of_week) WHERE is_active DO UPDATE").
		Set("start_time = EXCLUDED.start_time").
		Set("end_time = EXCLUDED.end_time").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.WeeklyAvailability{}, err
	}
	return m, nil
}

func (r *AvailabilityRepo) ListWeekly(ctx context.Context, providerID string) ([]domain.WeeklyAvailability, error) {
	return listWeekly(ctx, r.db, providerID)
}

func (r *AvailabilityRepo) DeactivateWeekly(ctx context.Context, providerID string, id uuid.UUID) error {
	res, err := r.db.NewUpdate().
		Model((*domain.WeeklyAvailability)(nil)).
		Set("is_active = false").
		Set("updated_at = ?", time.Now().UTC()).
		Where("provider_id = ?", providerID).
		Where("id = ?", id).
		Where("is_active").
		Exec(ctx)
	return affectedOrNotFound(res, err)
}

func (r *AvailabilityRepo) CreateException(ctx context.Context, ex domain.AvailabilityException) (domain.AvailabilityException, error) {
	m := domain.AvailabilityException{
		ID:            ex.ID,
		ProviderID:    ex.ProviderID,
		ExceptionDate: domain.DateOf(ex.ExceptionDate),
		ExceptionType: ex.ExceptionType,
		StartTime:     ex.StartTime,
		EndTime:       ex.EndTime,
		Reason:        ex.Reason,
		CreatedAt:     ex.CreatedAt,
	}

	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		if pgErr, ok := uniqueViolation(err); ok && pgErr.ConstraintName == constraintExceptionProviderDate {
			return domain.AvailabilityException{}, store.ErrConflict
		}
		return domain.AvailabilityException{}, err
	}
	return m, nil
}

func (r *AvailabilityRepo) ListExceptions(ctx context.Context, providerID string, startDate, endDate time.Time) ([]domain.AvailabilityException, error) {
	return listExceptions(ctx, r.db, providerID, startDate, endDate)
}

func (r *AvailabilityRepo) DeleteException(ctx context.Context, providerID string, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.AvailabilityException)(nil)).
		Where("provider_id = ?", providerID).
		Where("id = ?", id).
		Exec(ctx)
	return affectedOrNotFound(res, err)
}

func listWeekly(ctx context.Context, db bun.IDB, providerID string) ([]domain.WeeklyAvailability, error) {
	rows := []domain.WeeklyAvailability{}
	err := db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		Where("is_active").
		OrderExpr("day_of_week ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func listExceptions(ctx context.Context, db bun.IDB, providerID string, startDate, endDate time.Time) ([]domain.AvailabilityException, error) {
	rows := []domain.AvailabilityException{}
	err := db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		Where("exception_date >= ?", domain.DateOf(startDate)).
		Where("exception_date <= ?", domain.DateOf(endDate)).
		OrderExpr("exception_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
