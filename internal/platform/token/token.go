// Package token validates the actor bearer tokens issued by the upstream
// identity service. The engine never issues tokens; it only verifies the
// shared-key signature and extracts the actor identity for audit threading.
package token

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"custos/internal/platform/middleware"
	dErrors "custos/pkg/domain-errors"
)

// Claims are the JWT claims the upstream identity service places in actor
// tokens.
type Claims struct {
	Actor string `json:"actor"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Validator verifies HS256 actor tokens against the shared signing key.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken implements middleware.TokenValidator.
func (v *Validator) ValidateToken(tokenString string) (*middleware.ActorClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Actor == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no actor claim")
	}

	return &middleware.ActorClaims{Actor: claims.Actor, Role: claims.Role}, nil
}
