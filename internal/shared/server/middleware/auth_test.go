package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func authRouter(env string, resolver TenantResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(env, resolver))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, TenantIDFromContext(c))
	})
	return r
}

func TestAuthHeaderIdentityDevOnly(t *testing.T) {
	r := authRouter("dev", nil)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Tenant-Id", "tenant-a")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("dev header identity status = %d, want 200", w.Code)
	}
	if w.Body.String() != "tenant-a" {
		t.Fatalf("tenant = %q, want tenant-a", w.Body.String())
	}
}

func TestAuthHeaderIdentityRejectedWithResolverInstalled(t *testing.T) {
	resolver := TenantResolverFunc(func(token string) (string, error) {
		if token == "good-token" {
			return "tenant-a", nil
		}
		return "", errors.New("unknown token")
	})
	r := authRouter("dev", resolver)

	// A session resolver is configured: a bare X-Tenant-Id header must not
	// let an unauthenticated caller claim a tenant's identity.
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Tenant-Id", "tenant-a")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("header identity with resolver status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "tenant-a" {
		t.Fatalf("bearer identity = %d %q, want 200 tenant-a", w.Code, w.Body.String())
	}
}

func TestAuthHeaderIdentityRejectedInProduction(t *testing.T) {
	r := authRouter("production", nil)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Tenant-Id", "tenant-a")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("production header identity status = %d, want 401", w.Code)
	}
}

func TestAuthRejectsBadBearerTokens(t *testing.T) {
	resolver := TenantResolverFunc(func(token string) (string, error) {
		return "", errors.New("unknown token")
	})
	r := authRouter("production", resolver)

	for _, header := range []string{"Bearer bad-token", "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Authorization %q status = %d, want 401", header, w.Code)
		}
	}
}

func TestAuthMissingIdentity(t *testing.T) {
	r := authRouter("dev", nil)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no identity status = %d, want 401", w.Code)
	}
}
