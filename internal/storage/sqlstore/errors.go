package sqlstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"lightbnb/internal/adapters/observability"
	"lightbnb/internal/domain"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return false
}

// finish records the statement outcome and maps driver errors onto the domain
// sentinels. Failures are logged here so callers only decide what to return.
func finish(op string, start time.Time, err error) error {
	outcome := "ok"
	switch {
	case err == nil:
	case isUniqueViolation(err):
		outcome = "conflict"
		log.Warn().Err(err).Str("op", op).Msg("unique constraint violated")
		err = fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
	default:
		outcome = "error"
		log.Error().Err(err).Str("op", op).Msg("query failed")
		err = fmt.Errorf("%s: %w: %w", op, domain.ErrQuery, err)
	}
	observability.ObserveQuery(op, outcome, time.Since(start))
	return err
}
