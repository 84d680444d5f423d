// Package store is the Postgres gateway. Every method borrows a pooled
// connection for the duration of a single statement or transaction.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"clinic-booking/internal/model"
)

const (
	slotConstraint     = "appointments_slot_key"
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

type Store struct {
	pool *pgxpool.Pool
}

// New builds the pool. It does not dial; use Ping to check reachability.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	const op = "store.New"
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{pool: pool}, nil
}

func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return classify("store.Ping", err)
	}
	return nil
}

func (s *Store) Close() { s.pool.Close() }

// classify maps driver errors onto the model sentinels. A PgError means the
// server answered, so only non-server failures count as unavailability.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case slotConstraint:
				return fmt.Errorf("%s: %w", op, model.ErrSlotTaken)
			case usernameConstraint, emailConstraint:
				return fmt.Errorf("%s: %w", op, model.ErrDuplicateUser)
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrUnavailable, err)
}
