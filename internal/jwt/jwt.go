// Package jwt verifies bearer tokens issued by an external auth
// service. This package only verifies; issuing and refreshing tokens is
// that service's responsibility, so no token-issuing Register/Login
// flow is carried here (see DESIGN.md).
package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the access token payload this service reads.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier checks access tokens against security.accessSecret.
type Verifier struct {
	secret []byte
}

func NewVerifier(accessSecret string) *Verifier {
	return &Verifier{secret: []byte(accessSecret)}
}

// Verify parses and validates tokenString, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
