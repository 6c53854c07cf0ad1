package jwtsigner

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Signer issues and verifies HS256 JWTs for a single issuer.
type Signer struct {
	key    []byte
	Issuer string
}

func NewHS256(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &Signer{key: []byte(secret), Issuer: issuer}, nil
}

// Registered returns the standard claims for subject sub, valid for ttl from now,
// with a fresh jti.
func (s *Signer) Registered(sub string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (s *Signer) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse verifies raw into claims. Signature, algorithm, issuer and expiry are
// all enforced; any failure wraps ErrInvalidToken.
func (s *Signer) Parse(raw string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	opts = append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithExpirationRequired(),
	}, opts...)

	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}
