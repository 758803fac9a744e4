package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradelab/billing/pkg/config"
)

func TestRegisterRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api/v1")
	RegisterBillingRoutes(api, &BillingDeps{
		Manager:  &stubManager{},
		Verifier: &stubVerifier{},
		Hooks:    &stubHooks{},
		Cfg:      &config.Config{},
		Log:      zap.NewNop().Sugar(),
	})
	RegisterAdminRoutes(api.Group("/admin"), nil, nil, zap.NewNop().Sugar())
	RegisterHealthRoutes(r.Group("/"))

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("POST /api/v1/billing"))
	require.True(t, contains("POST /api/v1/admin/subscription/list"))
	require.True(t, contains("GET /api/v1/admin/subscription/overview"))
	require.True(t, contains("POST /api/v1/admin/subscription/daily"))
	require.True(t, contains("GET /healthz"))
}
