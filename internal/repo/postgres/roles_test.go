package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/authcore/internal/apperr"
)

func TestRolesRepo_Add(t *testing.T) {
	store, db, mock, _ := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO roles \(name\) VALUES \(\$1\) RETURNING id`).
		WithArgs("auditor").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery(`INSERT INTO roles`).
		WithArgs("auditor").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	repo := store.Roles(db)
	role, err := repo.Add(context.Background(), "auditor")
	require.NoError(t, err)
	assert.Equal(t, int64(3), role.ID)
	assert.Equal(t, "auditor", role.Name)

	_, err = repo.Add(context.Background(), "auditor")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = repo.Add(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRolesRepo_Ensure(t *testing.T) {
	store, db, mock, _ := newMockStore(t)

	mock.ExpectQuery(`ON CONFLICT \(name\) DO NOTHING`).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	id, err := store.Roles(db).Ensure(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestRolesRepo_DeleteReferencedRoleIsConflict(t *testing.T) {
	store, db, mock, _ := newMockStore(t)

	mock.ExpectExec(`DELETE FROM roles WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectExec(`DELETE FROM roles`).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := store.Roles(db)
	assert.ErrorIs(t, repo.Delete(context.Background(), 1), apperr.ErrConflict)
	assert.ErrorIs(t, repo.Delete(context.Background(), 8), apperr.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 0), apperr.ErrInvalidArgument)
}

func TestRolesRepo_FindByName(t *testing.T) {
	store, db, mock, _ := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name FROM roles WHERE name = \$1`).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(2), "admin"))
	mock.ExpectQuery(`SELECT id, name FROM roles`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	repo := store.Roles(db)
	role, err := repo.FindByName(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(2), role.ID)

	_, err = repo.FindByName(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
