package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/geocoder89/authcore/internal/apperr"
	"github.com/geocoder89/authcore/internal/domain/user"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Issue mints a token of the given type for id. An unknown type is a
// programming error and yields no token.
func (i *Issuer) Issue(id user.Identity, typ TokenType) (string, error) {
	const op = "auth.issue"

	var ttl time.Duration
	claims := Claims{
		Subject: id.Subject(),
		Type:    typ,
	}

	switch typ {
	case TokenTypeAccess:
		ttl = i.accessTTL
		claims.Email = id.Email
	case TokenTypeRefresh:
		ttl = i.refreshTTL
	default:
		return "", apperr.New(op, apperr.ErrConfiguration, fmt.Errorf("%w %q", ErrUnknownTokenType, typ))
	}

	if ttl <= 0 {
		return "", apperr.New(op, apperr.ErrConfiguration, fmt.Errorf("non-positive ttl for %s token", typ))
	}

	now := i.now().UTC().Truncate(time.Second)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token, err := i.codec.Encode(claims)
	if err != nil {
		return "", apperr.New(op, apperr.ErrConfiguration, err)
	}

	return token, nil
}

func (i *Issuer) IssuePair(id user.Identity) (TokenPair, error) {
	access, err := i.Issue(id, TokenTypeAccess)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := i.Issue(id, TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}, nil
}
