package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

func (t TokenType) Valid() bool {
	switch t {
	case TokenTypeAccess, TokenTypeRefresh:
		return true
	default:
		return false
	}
}

func (t TokenType) String() string {
	return string(t)
}

var (
	ErrUnknownTokenType = errors.New("unknown token type")
	ErrInvalidClaims    = errors.New("invalid claims")
)

// Claims is the only claim set this service signs or accepts. Access tokens
// carry Email; refresh tokens carry nothing beyond the registered fields.
type Claims struct {
	Subject   string           `json:"sub"`
	Type      TokenType        `json:"type"`
	Email     string           `json:"email,omitempty"`
	IssuedAt  *jwt.NumericDate `json:"iat"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

var _ jwt.Claims = Claims{}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return "", nil }
func (c Claims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// Validate checks the claim shape. The jwt parser calls it after the
// registered-claim checks, so a decoded token always satisfies it.
func (c Claims) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %w %q", ErrInvalidClaims, ErrUnknownTokenType, c.Type)
	}
	if c.Subject == "" {
		return fmt.Errorf("%w: missing sub", ErrInvalidClaims)
	}
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return fmt.Errorf("%w: missing iat or exp", ErrInvalidClaims)
	}
	if !c.ExpiresAt.After(c.IssuedAt.Time) {
		return fmt.Errorf("%w: exp must be after iat", ErrInvalidClaims)
	}

	switch c.Type {
	case TokenTypeAccess:
		if c.Email == "" {
			return fmt.Errorf("%w: access token without email", ErrInvalidClaims)
		}
	case TokenTypeRefresh:
		if c.Email != "" {
			return fmt.Errorf("%w: refresh token carries email", ErrInvalidClaims)
		}
	}
	return nil
}

// UserID decodes the subject as a store identifier.
func (c Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed sub %q", ErrInvalidClaims, c.Subject)
	}
	return id, nil
}
