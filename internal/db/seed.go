package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/authcore/internal/apperr"
	"github.com/geocoder89/authcore/internal/config"
	"github.com/geocoder89/authcore/internal/dbx"
	"github.com/geocoder89/authcore/internal/domain/user"
	"github.com/geocoder89/authcore/internal/repo/postgres"
	"github.com/geocoder89/authcore/internal/security"
)

// EnsureRoles creates the default and admin roles if they are missing.
func EnsureRoles(ctx context.Context, p *dbx.Provider, store *postgres.Store, cfg config.Config) error {
	return p.Tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		roles := store.Roles(tx)
		for _, name := range []string{cfg.Auth.DefaultRole, cfg.Auth.AdminRole} {
			if _, err := roles.Ensure(ctx, name); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureAdminUser seeds the bootstrap administrator from config. It is a
// no-op when no admin credentials are configured or the email already exists.
func EnsureAdminUser(ctx context.Context, p *dbx.Provider, store *postgres.Store, hasher *security.Hasher, cfg config.Config, log *slog.Logger) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return nil
	}

	email := user.NormalizeEmail(cfg.Admin.Email)

	hash, err := hasher.Hash(cfg.Admin.Password)
	if err != nil {
		return err
	}

	err = p.Tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := store.Users(tx).FindByEmail(ctx, email)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		roleID, err := store.Roles(tx).Ensure(ctx, cfg.Auth.AdminRole)
		if err != nil {
			return err
		}

		id, err := store.Users(tx).InsertUser(ctx, cfg.Admin.Name, email, hash, roleID)
		if err != nil {
			return err
		}

		log.InfoContext(ctx, "bootstrap admin created", "user_id", id, "role", cfg.Auth.AdminRole)
		return nil
	})
	// another instance seeded it first
	if errors.Is(err, apperr.ErrConflict) {
		return nil
	}
	return err
}
