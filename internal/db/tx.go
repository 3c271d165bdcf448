package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/hospital-scheduling/internal/apperr"
)

// Postgres error codes the repositories care about.
const (
	CodeUniqueViolation      = "23505"
	CodeExclusionViolation   = "23P01"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
)

// Runner opens read-committed transactions with a bounded lock wait.
type Runner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func NewRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *Runner {
	return &Runner{pool: pool, lockTimeout: lockTimeout}
}

func (r *Runner) Pool() *pgxpool.Pool { return r.pool }

// InTx runs fn inside a transaction. fn's error rolls the transaction back and
// is returned after transient storage failures are converted to retryable
// errors.
func (r *Runner) InTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return Classify(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if r.lockTimeout > 0 {
		ms := r.lockTimeout.Milliseconds()
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)); err != nil {
			return Classify(fmt.Errorf("set lock_timeout: %w", err))
		}
	}

	if err := fn(ctx, tx); err != nil {
		return Classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Classify(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// Classify turns transient Postgres failures into apperr retryable errors.
// Errors that already carry a kind pass through untouched.
func Classify(err error) error {
	if err == nil || apperr.KindOf(err) != "" {
		return err
	}
	switch PgCode(err) {
	case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable:
		return apperr.Retryable(err, "storage is busy, retry the request")
	}
	return err
}

// PgCode returns the SQLSTATE of a Postgres error in err's chain.
func PgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	code := PgCode(err)
	return code == CodeUniqueViolation || code == CodeExclusionViolation
}

// Querier is the part of pgx shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
