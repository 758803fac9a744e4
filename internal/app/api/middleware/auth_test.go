package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradelab/billing/internal/app/service/auth"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "good-token" {
		return "user-1", nil
	}
	return "", auth.ErrInvalidToken
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(stubVerifier{}, zap.NewNop().Sugar()))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(UserIDKey)})
	})
	return r
}

func get(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	w := get(newAuthRouter(), "Bearer good-token")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "user-1")
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	w := get(newAuthRouter(), "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongScheme(t *testing.T) {
	w := get(newAuthRouter(), "Basic Zm9vOmJhcg==")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectedToken(t *testing.T) {
	w := get(newAuthRouter(), "Bearer forged")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_EmptyBearerToken(t *testing.T) {
	w := get(newAuthRouter(), "Bearer ")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
