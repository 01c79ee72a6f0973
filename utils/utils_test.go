package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	tokenStr, err := GenerateJWT("worker@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	token, err := ValidateJWT(tokenStr)
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "worker@example.com", claims["email"])
	assert.Equal(t, "access", claims["type"])
}

func TestGenerateRefreshTokenCarriesSession(t *testing.T) {
	tokenStr, err := GenerateRefreshToken("worker@example.com", "session-abc")
	require.NoError(t, err)

	token, err := ValidateJWT(tokenStr)
	require.NoError(t, err)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "refresh", claims["type"])
	assert.Equal(t, "session-abc", claims["sessionId"])
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token")
	assert.Error(t, err)

	// Token signed with a different key must fail validation.
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "x@example.com"})
	signed, err := other.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = ValidateJWT(signed)
	assert.Error(t, err)
}

func TestHashAndValidatePassword(t *testing.T) {
	hash, err := HashPassword("s3cret-passphrase")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-passphrase", hash)

	assert.True(t, ValidatePassword(hash, "s3cret-passphrase"))
	assert.False(t, ValidatePassword(hash, "wrong-passphrase"))
}
