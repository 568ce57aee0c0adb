package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/geocoder89/authcore/internal/apperr"
	"github.com/geocoder89/authcore/internal/dbx"
	"github.com/geocoder89/authcore/internal/domain/user"
)

type RolesRepo struct {
	db  dbx.DBTX
	log *slog.Logger
	obs DBObserver
}

func (r *RolesRepo) Add(ctx context.Context, name string) (user.Role, error) {
	const op = "roles.add"

	if err := user.ValidateRoleName(name); err != nil {
		return user.Role{}, apperr.New(op, apperr.ErrInvalidArgument, err)
	}

	role := user.Role{Name: name}
	err := observe(r.obs, op, func() error {
		return r.db.QueryRowContext(ctx,
			`INSERT INTO roles (name) VALUES ($1) RETURNING id`,
			name,
		).Scan(&role.ID)
	})
	if err != nil {
		return user.Role{}, writeErr(ctx, r.log, op, err)
	}

	return role, nil
}

// Ensure returns the id of the named role, creating it when missing.
func (r *RolesRepo) Ensure(ctx context.Context, name string) (int64, error) {
	const op = "roles.ensure"

	if err := user.ValidateRoleName(name); err != nil {
		return 0, apperr.New(op, apperr.ErrInvalidArgument, err)
	}

	var id int64
	err := observe(r.obs, op, func() error {
		return r.db.QueryRowContext(ctx, `
			WITH ins AS (
				INSERT INTO roles (name) VALUES ($1)
				ON CONFLICT (name) DO NOTHING
				RETURNING id
			)
			SELECT id FROM ins
			UNION ALL
			SELECT id FROM roles WHERE name = $1
			LIMIT 1`,
			name,
		).Scan(&id)
	})
	if err != nil {
		return 0, writeErr(ctx, r.log, op, err)
	}

	return id, nil
}

// Delete removes a role. A role still referenced by users is a Conflict.
func (r *RolesRepo) Delete(ctx context.Context, id int64) error {
	const op = "roles.delete"

	if id <= 0 {
		return apperr.New(op, apperr.ErrInvalidArgument, errors.New("id must be positive"))
	}

	var affected int64
	err := observe(r.obs, op, func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return writeErr(ctx, r.log, op, err)
	}
	if affected == 0 {
		return apperr.New(op, apperr.ErrNotFound, nil)
	}

	return nil
}

func (r *RolesRepo) FindByName(ctx context.Context, name string) (user.Role, error) {
	const op = "roles.find_by_name"

	if err := user.ValidateRoleName(name); err != nil {
		return user.Role{}, apperr.New(op, apperr.ErrInvalidArgument, err)
	}

	var role user.Role
	err := observe(r.obs, op, func() error {
		return r.db.QueryRowContext(ctx,
			`SELECT id, name FROM roles WHERE name = $1`,
			name,
		).Scan(&role.ID, &role.Name)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.Role{}, apperr.New(op, apperr.ErrNotFound, nil)
		}
		return user.Role{}, readErr(ctx, r.log, op, err)
	}

	return role, nil
}
