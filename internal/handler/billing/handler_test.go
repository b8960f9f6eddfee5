package billing

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/medicore/hospital-api/internal/middleware"
	pkgauth "github.com/medicore/hospital-api/pkg/auth"
)

func registeredRoutes(t *testing.T) map[string]bool {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authMW := middleware.NewAuthMiddleware(pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
	}))
	h := NewHandler(nil, authMW)

	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	return routes
}

func TestRoutesLiveUnderBilling(t *testing.T) {
	routes := registeredRoutes(t)

	for _, want := range []string{
		"POST /api/v1/billing",
		"GET /api/v1/billing",
		"GET /api/v1/billing/stats",
		"GET /api/v1/billing/:id",
		"PUT /api/v1/billing/:id",
		"DELETE /api/v1/billing/:id",
		"PATCH /api/v1/billing/:id/status",
		"POST /api/v1/billing/:id/items",
		"DELETE /api/v1/billing/:id/items/:itemId",
		"GET /api/v1/billing/:id/invoice",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}

	for path := range routes {
		assert.NotContains(t, path, "/bills", "stale resource name in %s", path)
	}
}
