package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"go-case-records/internal/model"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classify maps a pgx error onto the store error taxonomy. Errors that fit
// no category are wrapped unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var already *model.StoreError
	if errors.As(err, &already) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &model.StoreError{Op: op, Kind: model.ErrNotFound}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return &model.StoreError{Op: op, Kind: model.ErrConstraintViolation, Message: pgErr.Message, Err: err}
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgErr.Code == pgerrcode.AdminShutdown,
			pgErr.Code == pgerrcode.CannotConnectNow,
			pgErr.Code == pgerrcode.QueryCanceled:
			return &model.StoreError{Op: op, Kind: model.ErrConnectionFailed, Message: pgErr.Message, Err: err}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &model.StoreError{Op: op, Kind: model.ErrConnectionFailed, Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func notFound(op string) error {
	return &model.StoreError{Op: op, Kind: model.ErrNotFound}
}
