package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/identity"
)

// Token uses.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

const issuer = "medmais"

// Claims are the JWT claims of access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Use              string `json:"use"`
	Email            string `json:"email,omitempty"`
	Role             string `json:"role,omitempty"`
	BaseID           string `json:"base_id,omitempty"`
	TeamID           string `json:"team_id,omitempty"`
	SCIManagerAccess bool   `json:"acesso_gerente_sci,omitempty"`
}

var errWrongTokenUse = errors.New("token not valid for this use")

// JWTValidator validates tokens and extracts claims.
type JWTValidator struct {
	// KeySet provides the keys for validation.
	KeySet identity.KeySet
}

// NewJWTValidator creates a validator with the given KeySet.
func NewJWTValidator(ks identity.KeySet) *JWTValidator {
	if ks == nil {
		return nil
	}
	return &JWTValidator{KeySet: ks}
}

// Validate parses tokenStr and checks that it was issued for use.
func (v *JWTValidator) Validate(tokenStr, use string) (*Claims, error) {
	if v == nil || v.KeySet == nil {
		return nil, fmt.Errorf("validator uninitialized")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, v.KeySet.KeyFunc(),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Use != use {
		return nil, errWrongTokenUse
	}
	return claims, nil
}
