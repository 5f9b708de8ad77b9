package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"

	constraintReservationsPkey      = "reservations_pkey"
	constraintReservationsLiveSlot  = "reservations_live_slot"
	constraintExceptionProviderDate = "availability_exceptions_provider_date"
)

func uniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return pgErr, true
	}
	return nil, false
}
