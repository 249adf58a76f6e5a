package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ponto-de-fuga/restaurant-api/models"
)

// SessionClaims are the claims carried by locally issued staff tokens.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 session tokens for staff who log in with a password.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	Now      func() time.Time
}

// NewTokenIssuer creates an issuer. Tokens are accepted by the HS256
// validator configured with the same secret, issuer and audience.
func NewTokenIssuer(secret, issuer, audience string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		Now:      systemClock,
	}
}

// Issue returns a signed token whose subject is the profile's AuthID.
func (t *TokenIssuer) Issue(profile *models.Profile) (string, time.Time, error) {
	now := t.Now()
	expiresAt := now.Add(t.ttl)
	claims := &SessionClaims{
		Role: string(profile.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.AuthID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
