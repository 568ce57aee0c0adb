package auth

import (
	"fmt"

	"github.com/geocoder89/authcore/internal/apperr"
)

// Gate is the single point where presented bearer tokens are checked.
type Gate struct {
	codec *Codec
}

func NewGate(codec *Codec) *Gate {
	return &Gate{codec: codec}
}

// Authenticate verifies the token and returns its claims. Any decode failure
// is reported as Unauthorized.
func (g *Gate) Authenticate(token string) (Claims, error) {
	if token == "" {
		return Claims{}, apperr.New("auth.authenticate", apperr.ErrUnauthorized, ErrInvalidToken)
	}

	claims, err := g.codec.Decode(token)
	if err != nil {
		return Claims{}, apperr.New("auth.authenticate", apperr.ErrUnauthorized, err)
	}

	return claims, nil
}

// RequireType rejects claims whose type differs from expected.
func RequireType(claims Claims, expected TokenType) error {
	if claims.Type != expected {
		return apperr.New("auth.require_type", apperr.ErrUnauthorized,
			fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, expected, claims.Type))
	}
	return nil
}

func (g *Gate) VerifyAccess(token string) (Claims, error) {
	return g.verify(token, TokenTypeAccess)
}

func (g *Gate) VerifyRefresh(token string) (Claims, error) {
	return g.verify(token, TokenTypeRefresh)
}

func (g *Gate) verify(token string, expected TokenType) (Claims, error) {
	claims, err := g.Authenticate(token)
	if err != nil {
		return Claims{}, err
	}
	if err := RequireType(claims, expected); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
