package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrKeyMismatch          = errors.New("key does not match algorithm")
)

// Codec signs and verifies compact JWS tokens with one asymmetric key pair
// and one pinned algorithm. It is immutable after construction and safe for
// concurrent use.
type Codec struct {
	method     jwt.SigningMethod
	privateKey crypto.PrivateKey
	publicKey  crypto.PublicKey
	parser     *jwt.Parser
}

// NewCodec builds a Codec for alg. Symmetric and "none" algorithms are
// rejected.
func NewCodec(alg string, privateKey crypto.PrivateKey, publicKey crypto.PublicKey) (*Codec, error) {
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}

	if err := checkKeys(method, privateKey, publicKey); err != nil {
		return nil, err
	}

	return &Codec{
		method:     method,
		privateKey: privateKey,
		publicKey:  publicKey,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}, nil
}

// LoadCodec reads PEM-encoded keys from disk. Called once at process start.
func LoadCodec(alg, privateKeyPath, publicKeyPath string) (*Codec, error) {
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}

	privPEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	pubPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}

	priv, pub, err := parseKeys(method, privPEM, pubPEM)
	if err != nil {
		return nil, err
	}

	return NewCodec(alg, priv, pub)
}

func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Encode signs claims. Callers set IssuedAt and ExpiresAt; claims that fail
// Validate are never signed.
func (c *Codec) Encode(claims Claims) (string, error) {
	if err := claims.Validate(); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(c.method, claims)

	signed, err := token.SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Decode verifies signature, algorithm, expiry and claim shape. Every
// failure wraps ErrInvalidToken; the unverified payload is never returned.
func (c *Codec) Decode(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := c.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		// WithValidMethods already pins alg; this guards the key family too.
		if t.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.publicKey, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func checkKeys(method jwt.SigningMethod, priv crypto.PrivateKey, pub crypto.PublicKey) error {
	var privOK, pubOK bool

	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		_, privOK = priv.(*rsa.PrivateKey)
		_, pubOK = pub.(*rsa.PublicKey)
	case *jwt.SigningMethodECDSA:
		_, privOK = priv.(*ecdsa.PrivateKey)
		_, pubOK = pub.(*ecdsa.PublicKey)
	case *jwt.SigningMethodEd25519:
		_, privOK = priv.(ed25519.PrivateKey)
		_, pubOK = pub.(ed25519.PublicKey)
	default:
		return fmt.Errorf("%w: %q is not asymmetric", ErrUnsupportedAlgorithm, method.Alg())
	}

	if !privOK || !pubOK {
		return fmt.Errorf("%w: %s", ErrKeyMismatch, method.Alg())
	}
	return nil
}

func parseKeys(method jwt.SigningMethod, privPEM, pubPEM []byte) (crypto.PrivateKey, crypto.PublicKey, error) {
	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("parse rsa private key: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("parse rsa public key: %w", err)
		}
		return priv, pub, nil
	case *jwt.SigningMethodECDSA:
		priv, err := jwt.ParseECPrivateKeyFromPEM(privPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("parse ec private key: %w", err)
		}
		pub, err := jwt.ParseECPublicKeyFromPEM(pubPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("parse ec public key: %w", err)
		}
		return priv, pub, nil
	case *jwt.SigningMethodEd25519:
		priv, err := jwt.ParseEdPrivateKeyFromPEM(privPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("parse ed25519 private key: %w", err)
		}
		pub, err := jwt.ParseEdPublicKeyFromPEM(pubPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("parse ed25519 public key: %w", err)
		}
		return priv, pub, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q is not asymmetric", ErrUnsupportedAlgorithm, method.Alg())
	}
}
