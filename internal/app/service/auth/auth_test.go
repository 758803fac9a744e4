package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/billing/pkg/config"
)

func newVerifier(secret string) TokenVerifier {
	return NewJWTVerifier(&config.Config{Auth: config.AuthConfig{JWTSecret: secret}})
}

func signToken(t *testing.T, secret, subject string, expiry time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify_ValidToken(t *testing.T) {
	v := newVerifier("jwt-secret")
	token := signToken(t, "jwt-secret", "user-42", time.Hour)

	userID, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-42", userID)
}

func TestVerify_WrongSecret(t *testing.T) {
	v := newVerifier("jwt-secret")
	token := signToken(t, "other-secret", "user-42", time.Hour)

	_, err := v.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_ExpiredToken(t *testing.T) {
	v := newVerifier("jwt-secret")
	token := signToken(t, "jwt-secret", "user-42", -time.Minute)

	_, err := v.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingSubject(t *testing.T) {
	v := newVerifier("jwt-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("jwt-secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_EmptyToken(t *testing.T) {
	v := newVerifier("jwt-secret")
	_, err := v.Verify(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_UnsignedAlgRejected(t *testing.T) {
	v := newVerifier("jwt-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-42"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}
