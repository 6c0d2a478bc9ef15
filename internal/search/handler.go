package search

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
)

// Handler wires the search endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a search handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches search routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/search", h.search)
	rg.POST("/search/smart", h.smart)
	rg.GET("/search/suggestions", h.suggestions)
}

func (h *Handler) search(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	filters := Filters{
		Provider:  req.Provider,
		MinAmount: req.MinAmount,
		MaxAmount: req.MaxAmount,
		Currency:  req.Currency,
	}
	if req.DateFrom != nil {
		from, err := time.Parse("2006-01-02", *req.DateFrom)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "dateFrom must be YYYY-MM-DD", nil)
			return
		}
		filters.DateFrom = &from
	}
	if req.DateTo != nil {
		to, err := time.Parse("2006-01-02", *req.DateTo)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "dateTo must be YYYY-MM-DD", nil)
			return
		}
		filters.DateTo = &to
	}

	res, err := h.Svc.Search(c.Request.Context(), tenantID, Query{
		Text:    req.Query,
		Filters: filters,
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "search failed", nil)
		return
	}
	respond.OK(c, toResponse(res))
}

func (h *Handler) smart(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	var req SmartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	res, err := h.Svc.Smart(c.Request.Context(), tenantID, req.Query, req.Limit, req.Offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "search failed", nil)
		return
	}
	respond.OK(c, toResponse(res))
}

func (h *Handler) suggestions(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	suggestions, err := h.Svc.Suggest(c.Request.Context(), tenantID, c.Query("q"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "suggestions failed", nil)
		return
	}
	respond.OK(c, gin.H{"suggestions": suggestions})
}
