package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyToken(t *testing.T) {
	secret := "test_secret_key"

	tokenString, err := SignToken("user_2abc123", secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	identity, err := VerifyToken(tokenString, secret)
	require.NoError(t, err)
	require.Equal(t, "user_2abc123", identity.UserID)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	tokenString, err := SignToken("user_2abc123", "correct_secret", time.Hour)
	require.NoError(t, err)

	identity, err := VerifyToken(tokenString, "wrong_secret")
	require.Error(t, err)
	require.Nil(t, identity)
}

func TestVerifyToken_Expired(t *testing.T) {
	secret := "test_secret_key"

	tokenString, err := SignToken("user_2abc123", secret, -time.Minute)
	require.NoError(t, err)

	identity, err := VerifyToken(tokenString, secret)
	require.Error(t, err)
	require.Nil(t, identity)
}

func TestVerifyToken_MissingUserID(t *testing.T) {
	secret := "test_secret_key"

	claims := &Identity{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	identity, err := VerifyToken(tokenString, secret)
	require.Error(t, err)
	require.Nil(t, identity)
}

func TestVerifyToken_RejectsUnexpectedSigningMethod(t *testing.T) {
	// "none" tokens must never pass, whatever the secret.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Identity{UserID: "user_2abc123"})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	identity, err := VerifyToken(tokenString, "any_secret")
	require.Error(t, err)
	require.Nil(t, identity)
}
