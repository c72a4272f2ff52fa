// Package auth resolves the caller's identity from bearer tokens minted by
// the external identity provider. This service never issues credentials of
// its own; it only verifies the HS256 signature it shares with the provider.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Identity struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func VerifyToken(tokenString, secret string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Identity{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if identity, ok := token.Claims.(*Identity); ok && token.Valid && identity.UserID != "" {
		return identity, nil
	}

	return nil, jwt.ErrInvalidKey
}

// SignToken mints a token the way the identity provider does. Used by tests
// and local tooling; production tokens come from the provider.
func SignToken(userID, secret string, ttl time.Duration) (string, error) {
	claims := &Identity{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "droply",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secret))
}
