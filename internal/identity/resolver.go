package identity

import (
	"context"
	"errors"

	"github.com/geocoder89/authcore/internal/apperr"
	"github.com/geocoder89/authcore/internal/auth"
	"github.com/geocoder89/authcore/internal/domain/user"
	"github.com/geocoder89/authcore/internal/security"
)

var (
	ErrBadCredentials = errors.New("incorrect email or password")
	ErrNotAdmin       = errors.New("admin role required")
)

// Resolver turns verified tokens into identities and makes the admin
// decision. It keeps no state between calls; every check re-reads the store.
type Resolver struct {
	gate      *auth.Gate
	hasher    *security.Hasher
	adminRole string
}

func NewResolver(gate *auth.Gate, hasher *security.Hasher, adminRole string) *Resolver {
	return &Resolver{gate: gate, hasher: hasher, adminRole: adminRole}
}

// ResolveIdentity loads the user named by claims.Subject.
func (r *Resolver) ResolveIdentity(ctx context.Context, users UserLookup, claims auth.Claims) (user.Identity, error) {
	const op = "identity.resolve"

	id, err := claims.UserID()
	if err != nil {
		return user.Identity{}, apperr.New(op, apperr.ErrUnauthorized, err)
	}

	u, err := users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidArgument) {
			return user.Identity{}, apperr.New(op, apperr.ErrUnauthorized, err)
		}
		return user.Identity{}, apperr.New(op, apperr.ErrNotFound, err)
	}

	return u.Identity(), nil
}

// AuthenticateToken verifies token, enforces its type, then resolves the
// subject. Both typed entry points go through here.
func (r *Resolver) AuthenticateToken(ctx context.Context, users UserLookup, token string, expected auth.TokenType) (user.Identity, auth.Claims, error) {
	claims, err := r.gate.Authenticate(token)
	if err != nil {
		return user.Identity{}, auth.Claims{}, err
	}

	if err := auth.RequireType(claims, expected); err != nil {
		return user.Identity{}, auth.Claims{}, err
	}

	id, err := r.ResolveIdentity(ctx, users, claims)
	if err != nil {
		return user.Identity{}, auth.Claims{}, err
	}

	return id, claims, nil
}

func (r *Resolver) AuthenticateForAccess(ctx context.Context, users UserLookup, token string) (user.Identity, error) {
	id, _, err := r.AuthenticateToken(ctx, users, token, auth.TokenTypeAccess)
	return id, err
}

func (r *Resolver) AuthenticateForRefresh(ctx context.Context, users UserLookup, token string) (user.Identity, error) {
	id, _, err := r.AuthenticateToken(ctx, users, token, auth.TokenTypeRefresh)
	return id, err
}

// AuthorizeAdmin succeeds only when the subject's stored role name equals the
// configured admin role exactly. Role names are compared case-sensitively.
func (r *Resolver) AuthorizeAdmin(ctx context.Context, users UserLookup, claims auth.Claims) error {
	const op = "identity.authorize_admin"

	if err := auth.RequireType(claims, auth.TokenTypeAccess); err != nil {
		return err
	}

	id, err := claims.UserID()
	if err != nil {
		return apperr.New(op, apperr.ErrUnauthorized, err)
	}

	role, err := users.RoleNameForUser(ctx, id)
	if err != nil || role != r.adminRole {
		return apperr.New(op, apperr.ErrForbidden, ErrNotAdmin)
	}

	return nil
}

// Login checks credentials. An unknown email and a wrong password produce
// the same error, and both cost one bcrypt comparison.
func (r *Resolver) Login(ctx context.Context, users UserLookup, email, password string) (user.Identity, error) {
	const op = "identity.login"

	u, err := users.FindByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		r.hasher.Verify(password, r.hasher.DummyHash())
		return user.Identity{}, apperr.New(op, apperr.ErrUnauthorized, ErrBadCredentials)
	}

	if !r.hasher.Verify(password, u.PasswordHash) {
		return user.Identity{}, apperr.New(op, apperr.ErrUnauthorized, ErrBadCredentials)
	}

	return u.Identity(), nil
}
