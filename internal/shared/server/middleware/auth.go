package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/server/respond"
)

const tenantIDKey = "tenantId"

// TenantResolver turns an opaque session token into a tenant identity.
// Session issuance and verification live outside this service; the resolver
// is the seam where that collaborator plugs in.
type TenantResolver interface {
	Resolve(token string) (tenantID string, err error)
}

// TenantResolverFunc adapts a function to the TenantResolver interface.
type TenantResolverFunc func(token string) (string, error)

// Resolve implements TenantResolver.
func (f TenantResolverFunc) Resolve(token string) (string, error) {
	return f(token)
}

// Auth extracts the tenant identity from the request and stores it in context.
// Identity comes from a Bearer token resolved by the external session service.
// The X-Tenant-Id header is honored only in dev-like environments with no
// resolver installed; once sessions are configured, unauthenticated requests
// must not be able to claim another tenant's identity.
func Auth(env string, resolver TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" || resolver == nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			tenantID, err := resolver.Resolve(token)
			if err != nil || tenantID == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(tenantIDKey, tenantID)
			c.Next()
			return
		}

		tenantID := strings.TrimSpace(c.GetHeader("X-Tenant-Id"))
		if tenantID == "" || resolver != nil || !isDevLike(env) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(tenantIDKey, tenantID)
		c.Next()
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// TenantIDFromContext fetches the tenant ID set by the auth middleware.
func TenantIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(tenantIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
