package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GlebRadaev/codeshop/internal/domain"
)

const (
	CodeUniqueViolation      = "23505"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
	CodeQueryCanceled        = "57014"
)

// Classify tags PostgreSQL failures with the domain error the caller acts upon.
func Classify(err error) error {
	if err == nil || errors.Is(err, domain.ErrRetryable) || errors.Is(err, domain.ErrIntegrity) {
		return err
	}
	// An expired transaction deadline counts as contention.
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", domain.ErrRetryable, err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == CodeSerializationFailure,
		pgErr.Code == CodeDeadlockDetected,
		pgErr.Code == CodeLockNotAvailable,
		pgErr.Code == CodeQueryCanceled:
		return fmt.Errorf("%w: %w", domain.ErrRetryable, err)
	case strings.HasPrefix(pgErr.Code, "23"):
		return fmt.Errorf("%w: %w", domain.ErrIntegrity, err)
	}
	return err
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation
}
