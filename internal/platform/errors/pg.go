package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrUniqueViolation = "23505"

// pgCodes maps the SQLSTATEs the sinks and the ledger can hit.
// Unlisted states are plain DB errors
var pgCodes = map[string]ErrorCode{
	pgErrUniqueViolation: ErrorCodeDuplicateKey,
	"23503":              ErrorCodeInvalidArgument, // foreign key
	"22001":              ErrorCodeInvalidArgument, // activity name too long
	"22P02":              ErrorCodeInvalidArgument, // bad uuid or number text
	"22008":              ErrorCodeInvalidArgument, // timestamp out of range
	"23502":              ErrorCodeValidation,      // not null
	"23514":              ErrorCodeValidation,      // check
	"25006":              ErrorCodeUnavailable,     // read only transaction, e.g. a replica after failover
	"57P03":              ErrorCodeUnavailable,     // server starting up
	"53300":              ErrorCodeUnavailable,     // too many connections
}

// pgRetryable are contention states where the same batch can simply run again
var pgRetryable = map[string]bool{
	"40001": true, // serialization failure
	"40P01": true, // deadlock
	"55P03": true, // lock_timeout
	"57014": true, // statement_timeout
}

// pgRetryText covers aborts pgx reports without a PgError
var pgRetryText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"terminating connection due to administrator command",
}

// ExtractPgError returns the first PgError in err's chain
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateKey reports whether the error is a unique constraint violation.
// Entry inserts use ON CONFLICT so this only surfaces from the run ledger
func IsDuplicateKey(err error) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == pgErrUniqueViolation
}

// DBErrorCode maps a Postgres error to an ErrorCode.
// ok is false when err carries no PgError
func DBErrorCode(err error) (code ErrorCode, ok bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if c, found := pgCodes[pgErr.Code]; found {
		return c, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with msg and the mapped code.
// An error the store already classified keeps its code; nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	if e, ok := As(err); ok {
		return Wrap(err, e.Code(), msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// IsRetryable reports whether a database error is transient contention.
// Local cancellation never is; the caller owns that decision
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgErr, ok := ExtractPgError(err); ok {
		return pgRetryable[pgErr.Code]
	}
	s := strings.ToLower(root(err).Error())
	for _, frag := range pgRetryText {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
