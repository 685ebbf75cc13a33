package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/quizdeck/internal/common"
)

// Claims is the access token payload: sub, iat, exp and jti. The role is
// deliberately absent; it is looked up on every request.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService signs and verifies HMAC access tokens. It holds only
// immutable configuration and is safe for concurrent use.
type TokenService struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService fails with common.ErrConfiguration when secret is empty
// or algorithm is not one of HS256, HS384, HS512.
func NewTokenService(secret, algorithm string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret is not set", common.ErrConfiguration)
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", common.ErrConfiguration, algorithm)
	}

	s := &TokenService{method: method, secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for subject valid for ttl from now. iat and exp are
// whole seconds, so the token may expire up to a second before now+ttl; a
// ttl under one second is rejected.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, *Claims, error) {
	if subject == "" {
		return "", nil, fmt.Errorf("%w: empty token subject", common.ErrorValidation)
	}
	if ttl < time.Second {
		return "", nil, fmt.Errorf("%w: token ttl must be at least one second", common.ErrorValidation)
	}

	now := s.now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks the signature over the raw header and payload before any
// claim is decoded, then the expiry.
//
// Errors: common.ErrInvalidSignature, common.ErrTokenExpired,
// common.ErrInvalidToken (malformed, wrong alg, missing claims).
func (s *TokenService) Verify(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, common.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)

	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, common.ErrInvalidSignature
	}
	if err := s.method.Verify(parts[0]+"."+parts[1], sig, s.secret); err != nil {
		return nil, common.ErrInvalidSignature
	}

	claims := &Claims{}
	_, err = parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, common.ErrInvalidSignature
	default:
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
