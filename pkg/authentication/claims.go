// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload, exp and iat are serialized as Unix seconds.
type Claims struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`

	jwt.RegisteredClaims
}

func (c *Claims) identity() (*Identity, error) {
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrMalformedToken)
	}

	identity := &Identity{
		SubjectID:   c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
	}

	if c.IssuedAt != nil {
		identity.IssuedAt = c.IssuedAt.Time
	}

	if c.ExpiresAt != nil {
		identity.ExpiresAt = c.ExpiresAt.Time
	}

	return identity, nil
}

// parseUnverified decodes the three token segments without checking the signature,
// it only tells apart garbage from tokens worth verifying.
func parseUnverified(rawToken string) (*Claims, error) {
	claims := new(Claims)

	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	return claims, nil
}

func numericDate(t time.Time) *jwt.NumericDate {
	return jwt.NewNumericDate(t.Truncate(time.Second))
}
