package postgres

import (
	"log/slog"

	"github.com/geocoder89/authcore/internal/dbx"
)

// DBObserver times a logical DB operation. *observability.Prom implements it.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

// Store builds repositories bound to a caller-supplied handle. Repositories
// never outlive the handle they are given; the caller owns acquisition and
// release.
type Store struct {
	log         *slog.Logger
	obs         DBObserver
	defaultRole string
}

func NewStore(log *slog.Logger, obs DBObserver, defaultRole string) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{log: log, obs: obs, defaultRole: defaultRole}
}

func (s *Store) Users(db dbx.DBTX) *UsersRepo {
	return &UsersRepo{db: db, log: s.log, obs: s.obs, defaultRole: s.defaultRole}
}

func (s *Store) Roles(db dbx.DBTX) *RolesRepo {
	return &RolesRepo{db: db, log: s.log, obs: s.obs}
}

func observe(obs DBObserver, op string, fn func() error) error {
	if obs != nil {
		return obs.ObserveDB(op, fn)
	}
	return fn()
}
