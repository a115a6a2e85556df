// Package jwt_token resolves caller principals from signed bearer tokens.
// The execution environment authenticates callers; this is the HTTP shape of
// that guarantee: the token subject is the principal.
package jwt_token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tradelane/pkg/domain"
)

// Validator verifies HS256-signed tokens and extracts the caller principal
// from the subject claim.
type Validator struct {
	signingKey []byte
}

// NewValidator constructs a Validator with the shared signing key.
func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token, returning the subject principal.
func (v *Validator) ValidateToken(tokenString string) (domain.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject claim: %w", err)
	}
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	return domain.Principal(subject), nil
}

// Sign issues a short-lived token for the given principal. Used by tests and
// local tooling; production tokens come from the upstream identity provider.
func (v *Validator) Sign(principal domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   principal.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(v.signingKey)
}
