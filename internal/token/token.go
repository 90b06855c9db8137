// Package token issues and verifies the signed credentials that identify the acting user.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docvault/internal/apperr"
	"docvault/internal/model"
	"docvault/internal/validate"
)

var (
	ErrInvalidOrExpired = apperr.New(apperr.KindAuthentication, "INVALID_OR_EXPIRED_TOKEN", "invalid or expired token")
	ErrSigningFailed    = apperr.New(apperr.KindInternal, "TOKEN_SIGNING_FAILED", "could not issue token")
)

// Payload is what a token binds.
type Payload struct {
	UserID string
	Role   model.UserRole
}

// Service signs and verifies tokens.
type Service interface {
	Sign(p Payload) (string, error)
	Verify(raw string) (Payload, error)
}

// Claims are the JWT claims carried by a token.
type Claims struct {
	UserID string         `json:"user_id"`
	Role   model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type jwtService struct {
	secret []byte
	method jwt.SigningMethod
	expiry time.Duration
	now    func() time.Time
}

// NewJWTService returns an HMAC token service. alg is one of HS256, HS384, HS512.
func NewJWTService(secret, alg string, expiry time.Duration) (Service, error) {
	if secret == "" {
		return nil, errors.New("token: empty secret")
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token: unsupported signing algorithm %q", alg)
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("token: expiry must be positive, got %s", expiry)
	}
	return &jwtService{secret: []byte(secret), method: method, expiry: expiry, now: time.Now}, nil
}

func (s *jwtService) Sign(p Payload) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", ErrSigningFailed.Wrap(err)
	}
	return signed, nil
}

func (s *jwtService) Verify(raw string) (Payload, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Payload{}, ErrInvalidOrExpired.Wrap(err)
	}
	if !tok.Valid {
		return Payload{}, ErrInvalidOrExpired
	}
	if _, err := validate.UUID(claims.UserID); err != nil {
		return Payload{}, ErrInvalidOrExpired.Wrap(err)
	}
	return Payload{UserID: claims.UserID, Role: claims.Role}, nil
}
