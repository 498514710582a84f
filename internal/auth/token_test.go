package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifySuccess(t *testing.T) {
	v := NewVerifier(testSecret)
	raw := signToken(t, testSecret, Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	identity, err := v.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.UserID)
	require.Equal(t, "alice", identity.Username)
}

func TestVerifyEmptyToken(t *testing.T) {
	v := NewVerifier(testSecret)
	_, err := v.Verify("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewVerifier(testSecret)
	raw := signToken(t, "other-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})

	_, err := v.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewVerifier(testSecret)
	raw := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := v.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMissingSubject(t *testing.T) {
	v := NewVerifier(testSecret)
	raw := signToken(t, testSecret, Claims{Username: "alice"})

	_, err := v.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	v := NewVerifier(testSecret)
	_, err := v.Verify("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromAuthorizationHeader(t *testing.T) {
	require.Equal(t, "abc", FromAuthorizationHeader("Bearer abc"))
	require.Equal(t, "abc", FromAuthorizationHeader("bearer abc"))
	require.Equal(t, "", FromAuthorizationHeader("Basic abc"))
	require.Equal(t, "", FromAuthorizationHeader("abc"))
	require.Equal(t, "", FromAuthorizationHeader(""))
}
