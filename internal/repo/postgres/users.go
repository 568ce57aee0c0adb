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

type UsersRepo struct {
	db          dbx.DBTX
	log         *slog.Logger
	obs         DBObserver
	defaultRole string
}

// InsertUser stores a new user and returns its id. roleID <= 0 selects the
// default role by name.
func (r *UsersRepo) InsertUser(ctx context.Context, name, email string, passwordHash []byte, roleID int64) (int64, error) {
	const op = "users.insert"

	if err := user.ValidateName(name); err != nil {
		return 0, apperr.New(op, apperr.ErrInvalidArgument, err)
	}
	if err := user.ValidateEmail(email); err != nil {
		return 0, apperr.New(op, apperr.ErrInvalidArgument, err)
	}
	if len(passwordHash) == 0 {
		return 0, apperr.New(op, apperr.ErrInvalidArgument, errors.New("empty password hash"))
	}

	role := sql.NullInt64{Int64: roleID, Valid: roleID > 0}

	var id int64
	err := observe(r.obs, op, func() error {
		return r.db.QueryRowContext(ctx, `
			INSERT INTO users (name, email, password_hash, role_id)
			VALUES ($1, $2, $3, COALESCE($4, (SELECT id FROM roles WHERE name = $5)))
			RETURNING id`,
			name, email, passwordHash, role, r.defaultRole,
		).Scan(&id)
	})
	if err != nil {
		return 0, writeErr(ctx, r.log, op, err)
	}

	return id, nil
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	const op = "users.find_by_email"

	if err := user.ValidateEmail(email); err != nil {
		return user.User{}, apperr.New(op, apperr.ErrInvalidArgument, err)
	}

	var u user.User
	err := observe(r.obs, op, func() error {
		return r.db.QueryRowContext(ctx, `
			SELECT id, name, email, password_hash, role_id
			FROM users
			WHERE email = $1`,
			email,
		).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, apperr.New(op, apperr.ErrNotFound, nil)
		}
		return user.User{}, readErr(ctx, r.log, op, err)
	}

	return u, nil
}

func (r *UsersRepo) FindByID(ctx context.Context, id int64) (user.User, error) {
	const op = "users.find_by_id"

	if id <= 0 {
		return user.User{}, apperr.New(op, apperr.ErrInvalidArgument, errors.New("id must be positive"))
	}

	var u user.User
	err := observe(r.obs, op, func() error {
		return r.db.QueryRowContext(ctx, `
			SELECT id, name, email, password_hash, role_id
			FROM users
			WHERE id = $1`,
			id,
		).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, apperr.New(op, apperr.ErrNotFound, nil)
		}
		return user.User{}, readErr(ctx, r.log, op, err)
	}

	return u, nil
}

// UpdateUser applies p in a single statement. Fields left nil keep their
// stored value; concurrent patches to the same row are last-write-wins per
// field.
func (r *UsersRepo) UpdateUser(ctx context.Context, id int64, p user.Patch) error {
	const op = "users.update"

	if id <= 0 {
		return apperr.New(op, apperr.ErrInvalidArgument, errors.New("id must be positive"))
	}
	if err := p.Validate(); err != nil {
		return apperr.New(op, apperr.ErrInvalidArgument, err)
	}

	var affected int64
	err := observe(r.obs, op, func() error {
		res, err := r.db.ExecContext(ctx, `
			UPDATE users
			SET name = COALESCE($1, name),
			    email = COALESCE($2, email)
			WHERE id = $3`,
			nullString(p.Name), nullString(p.Email), id,
		)
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

func (r *UsersRepo) RoleNameForUser(ctx context.Context, id int64) (string, error) {
	const op = "users.role_name"

	if id <= 0 {
		return "", apperr.New(op, apperr.ErrInvalidArgument, errors.New("id must be positive"))
	}

	var name string
	err := observe(r.obs, op, func() error {
		return r.db.QueryRowContext(ctx, `
			SELECT r.name
			FROM users u
			JOIN roles r ON r.id = u.role_id
			WHERE u.id = $1`,
			id,
		).Scan(&name)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.New(op, apperr.ErrNotFound, nil)
		}
		return "", readErr(ctx, r.log, op, err)
	}

	return name, nil
}

// ListAll returns every user with its role name, ordered by id. A storage
// failure is logged and yields an empty listing.
func (r *UsersRepo) ListAll(ctx context.Context) ([]user.Listing, error) {
	const op = "users.list_all"

	out := make([]user.Listing, 0)
	err := observe(r.obs, op, func() error {
		rows, err := r.db.QueryContext(ctx, `
			SELECT u.id, u.name, u.email, r.name
			FROM users u
			JOIN roles r ON r.id = u.role_id
			ORDER BY u.id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var l user.Listing
			if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Role); err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})
	if err != nil {
		_ = readErr(ctx, r.log, op, err)
		return []user.Listing{}, nil
	}

	return out, nil
}

// DeleteUser is an administrative operation; login and refresh never call it.
func (r *UsersRepo) DeleteUser(ctx context.Context, id int64) error {
	const op = "users.delete"

	if id <= 0 {
		return apperr.New(op, apperr.ErrInvalidArgument, errors.New("id must be positive"))
	}

	var affected int64
	err := observe(r.obs, op, func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
