package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tradelab/billing/internal/app/service/auth"
	"github.com/tradelab/billing/pkg/logctx"
	"github.com/tradelab/billing/pkg/response"
)

// UserIDKey is the gin context key the authenticated user id is stored under.
const UserIDKey = "user_id"

// AuthMiddleware rejects requests without a valid bearer token with 401
// before any handler runs. On success the resolved user id is attached to
// both gin.Context and the request context.
func AuthMiddleware(verifier auth.TokenVerifier, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := Authenticate(c, verifier)
		if err != nil {
			logctx.FromGin(c, log).Warnw("unauthorized request", "path", c.FullPath(), "error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("unauthorized"))
			return
		}
		c.Set(UserIDKey, userID)
		ctx := context.WithValue(c.Request.Context(), UserIDKey, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authenticate extracts and verifies the bearer token of a request. Missing
// header, malformed scheme, empty token and verifier rejection all collapse
// into auth.ErrInvalidToken.
func Authenticate(c *gin.Context, verifier auth.TokenVerifier) (string, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", auth.ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", auth.ErrInvalidToken
	}
	return verifier.Verify(c.Request.Context(), token)
}
