package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/authcore/internal/apperr"
	"github.com/geocoder89/authcore/internal/auth"
)

func accessClaims(sub string) auth.Claims {
	now := time.Now()
	return auth.Claims{
		Subject:   sub,
		Type:      auth.TokenTypeAccess,
		Email:     "x@example.com",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
}

func TestResolver_Login_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "testuser", "test@example.com", "testpass")

	_, errUnknown := h.resolver.Login(ctx, h.db, "ghost@example.com", "testpass")
	_, errWrong := h.resolver.Login(ctx, h.db, "test@example.com", "nope!")
	_, errMalformed := h.resolver.Login(ctx, h.db, "not an email", "testpass")

	for _, err := range []error{errUnknown, errWrong, errMalformed} {
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		assert.ErrorIs(t, err, ErrBadCredentials)
	}
	assert.Equal(t, errUnknown.Error(), errWrong.Error())

	id, err := h.resolver.Login(ctx, h.db, "test@example.com", "testpass")
	require.NoError(t, err)
	assert.Equal(t, "testuser", id.Name)
}

func TestResolver_ResolveIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.register(t, "testuser", "test@example.com", "testpass")

	id, err := h.resolver.ResolveIdentity(ctx, h.db, accessClaims(reg.Subject()))
	require.NoError(t, err)
	assert.Equal(t, reg, id)

	_, err = h.resolver.ResolveIdentity(ctx, h.db, accessClaims("999"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = h.resolver.ResolveIdentity(ctx, h.db, accessClaims("abc"))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestResolver_AuthenticateEntryPointsEnforceType(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.register(t, "testuser", "test@example.com", "testpass")

	pair, err := h.issuer.IssuePair(reg)
	require.NoError(t, err)

	id, err := h.resolver.AuthenticateForAccess(ctx, h.db, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, id.ID)

	id, err = h.resolver.AuthenticateForRefresh(ctx, h.db, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, id.ID)

	_, err = h.resolver.AuthenticateForAccess(ctx, h.db, pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = h.resolver.AuthenticateForRefresh(ctx, h.db, pair.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestResolver_AuthorizeAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := []struct {
		role    string
		allowed bool
	}{
		{"admin", true},
		{"Admin", false},
		{"ADMIN", false},
		{"admin ", false},
		{"user", false},
		{"superadmin", false},
	}

	for i, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			reg := h.register(t, "user-"+string(rune('a'+i)), string(rune('a'+i))+"@example.com", "testpass")
			h.db.setRole(t, reg.ID, tc.role)

			err := h.resolver.AuthorizeAdmin(ctx, h.db, accessClaims(reg.Subject()))
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrForbidden)
		})
	}
}

func TestResolver_AuthorizeAdmin_RejectsRefreshClaims(t *testing.T) {
	h := newHarness(t)
	reg := h.register(t, "root", "root@example.com", "rootpass")
	h.db.setRole(t, reg.ID, "admin")

	c := accessClaims(reg.Subject())
	c.Type = auth.TokenTypeRefresh
	c.Email = ""

	err := h.resolver.AuthorizeAdmin(context.Background(), h.db, c)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}
