package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tradelab/billing/pkg/config"
)

// ErrInvalidToken covers every bearer-token failure: missing, malformed,
// expired, or signed with the wrong key. Handlers map it to 401.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier resolves a bearer token to the caller's user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWTVerifier validates HS256 session tokens issued by the auth service and
// reads the user id from the subject claim.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(cfg *config.Config) TokenVerifier {
	return &JWTVerifier{secret: []byte(cfg.Auth.JWTSecret)}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "" || len(v.secret) == 0 {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
