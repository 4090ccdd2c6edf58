package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func pg(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCode(t *testing.T) {
	cases := map[string]ErrorCode{
		"23505": ErrorCodeDuplicateKey,
		"23503": ErrorCodeInvalidArgument,
		"22001": ErrorCodeInvalidArgument,
		"22P02": ErrorCodeInvalidArgument,
		"22008": ErrorCodeInvalidArgument,
		"23502": ErrorCodeValidation,
		"23514": ErrorCodeValidation,
		"25006": ErrorCodeUnavailable,
		"57P03": ErrorCodeUnavailable,
		"53300": ErrorCodeUnavailable,
		"40001": ErrorCodeDB,
		"XXXXX": ErrorCodeDB,
	}
	for state, want := range cases {
		got, ok := DBErrorCode(fmt.Errorf("exec: %w", pg(state)))
		require.True(t, ok, state)
		require.Equal(t, want, got, state)
	}

	_, ok := DBErrorCode(stderrs.New("nope"))
	require.False(t, ok)
}

func TestFromPostgres(t *testing.T) {
	require.NoError(t, FromPostgres(nil, "x"))

	err := FromPostgres(pg("23505"), "start run")
	require.Equal(t, ErrorCodeDuplicateKey, CodeOf(err))
	require.True(t, IsDuplicateKey(err))
	require.False(t, IsDuplicateKey(FromPostgres(pg("23503"), "x")))

	require.Equal(t, ErrorCodeDB, CodeOf(FromPostgres(stderrs.New("conn reset"), "insert")))

	// a code set by the store survives so retries still see it
	classified := Wrap(stderrs.New("conn reset"), ErrorCodeUnavailable, "pg: exec")
	got := FromPostgres(classified, "insert")
	require.Equal(t, ErrorCodeUnavailable, CodeOf(got))
	require.True(t, Retryable(got))
}

func TestIsRetryable(t *testing.T) {
	for _, state := range []string{"40001", "40P01", "55P03", "57014"} {
		require.True(t, IsRetryable(Wrap(pg(state), ErrorCodeDB, "x")), state)
	}
	require.False(t, IsRetryable(pg("23505")))
	require.False(t, IsRetryable(nil))
	require.False(t, IsRetryable(stderrs.New("nope")))
	require.False(t, IsRetryable(fmt.Errorf("insert: %w", context.Canceled)))
	require.True(t, IsRetryable(fmt.Errorf("commit: %w", stderrs.New("ERROR: Commit unexpectedly resulted in rollback"))))
}

func TestRetryable(t *testing.T) {
	require.True(t, Retryable(Unavailablef("upstream 503")))
	require.True(t, Retryable(FromPostgres(pg("40P01"), "insert")))
	require.False(t, Retryable(nil))
	require.False(t, Retryable(Validationf("bad")))
}
