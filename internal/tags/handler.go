package tags

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
)

// Handler serves the tag cloud endpoint.
type Handler struct {
	svc *Service
}

// NewHandler creates a tags HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts tag routes on the authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/tags", h.usage)
}

func (h *Handler) usage(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)
	if tenantID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	counts, err := h.svc.Usage(c.Request.Context(), tenantID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "could not load tags", nil)
		return
	}
	respond.OK(c, gin.H{"tags": counts})
}
