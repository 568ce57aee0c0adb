package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/geocoder89/authcore/internal/apperr"
)

const (
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// writeErr translates a failed insert/update/delete. Constraint violations
// become caller-facing kinds; anything else is a logged storage fault.
func writeErr(ctx context.Context, log *slog.Logger, op string, err error) error {
	switch pgCode(err) {
	case codeUniqueViolation, codeForeignKeyViolation:
		return apperr.New(op, apperr.ErrConflict, err)
	case codeNotNullViolation:
		log.ErrorContext(ctx, "store constraint", "op", op, "err", err)
		return apperr.New(op, apperr.ErrConfiguration, err)
	}

	log.ErrorContext(ctx, "store write failed", "op", op, "err", err)
	return apperr.New(op, apperr.ErrStorageUnavailable, err)
}

// readErr logs a failed lookup and degrades it to NotFound.
func readErr(ctx context.Context, log *slog.Logger, op string, err error) error {
	if !errors.Is(err, context.Canceled) {
		log.ErrorContext(ctx, "store read failed", "op", op, "err", err)
	}
	return apperr.New(op, apperr.ErrNotFound, nil)
}
