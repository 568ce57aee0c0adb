package identity

import (
	"context"

	"github.com/geocoder89/authcore/internal/dbx"
	"github.com/geocoder89/authcore/internal/domain/user"
	"github.com/geocoder89/authcore/internal/repo/postgres"
)

// UserLookup is what the Resolver needs from the user store.
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	RoleNameForUser(ctx context.Context, id int64) (string, error)
}

type UserStore interface {
	UserLookup
	InsertUser(ctx context.Context, name, email string, passwordHash []byte, roleID int64) (int64, error)
	UpdateUser(ctx context.Context, id int64, p user.Patch) error
	ListAll(ctx context.Context) ([]user.Listing, error)
	DeleteUser(ctx context.Context, id int64) error
}

type RoleStore interface {
	Add(ctx context.Context, name string) (user.Role, error)
	Delete(ctx context.Context, id int64) error
}

// Stores binds repositories to the handle of the current unit of work.
type Stores struct {
	Users func(db dbx.DBTX) UserStore
	Roles func(db dbx.DBTX) RoleStore
}

func PostgresStores(s *postgres.Store) Stores {
	return Stores{
		Users: func(db dbx.DBTX) UserStore { return s.Users(db) },
		Roles: func(db dbx.DBTX) RoleStore { return s.Roles(db) },
	}
}

// Sessions scopes a database handle to one operation. *dbx.Provider
// implements it.
type Sessions interface {
	Session(ctx context.Context, fn func(ctx context.Context, db dbx.DBTX) error) error
	Tx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
}
