package documents

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/quota"
	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
	"docvault-backend/internal/vault"
)

const maxUploadSize = 26 << 20 // multipart envelope around the 25MB file cap

// Handler wires HTTP handlers to the document service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/upload", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.PATCH("/documents/:id", h.update)
	rg.DELETE("/documents/:id", h.remove)
	rg.GET("/documents/:id/preview", h.preview)
	rg.GET("/documents/:id/download", h.download)
}

func (h *Handler) upload(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	in := IngestInput{
		FileName:     fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		DeclaredSize: fileHeader.Size,
		Content:      file,
	}
	if v := strings.TrimSpace(c.PostForm("provider")); v != "" {
		in.Provider = &v
	}
	if v := strings.TrimSpace(c.PostForm("invoiceNumber")); v != "" {
		in.InvoiceNumber = &v
	}
	if v := strings.TrimSpace(c.PostForm("currency")); v != "" {
		in.Currency = &v
	}
	if v := strings.TrimSpace(c.PostForm("amount")); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil || amount < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "amount must be a non-negative number", nil)
			return
		}
		in.Amount = &amount
	}
	if v := strings.TrimSpace(c.PostForm("issueDate")); v != "" {
		issueDate, err := time.Parse("2006-01-02", v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "issueDate must be YYYY-MM-DD", nil)
			return
		}
		in.IssueDate = &issueDate
	}

	doc, docTags, err := h.Svc.Ingest(c.Request.Context(), tenantID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, quota.ErrQuotaExceeded):
			respond.Error(c, http.StatusRequestEntityTooLarge, "quota_exceeded", "storage quota exceeded", h.quotaDetails(c, tenantID))
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to ingest document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(doc, docTags))
}

func (h *Handler) list(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	limit := parseIntQuery(c, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}

	result, err := h.Svc.List(c.Request.Context(), ListParams{
		TenantID: tenantID,
		Search:   strings.TrimSpace(c.Query("search")),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	docs := make([]DocumentResponse, 0, len(result.Documents))
	for _, doc := range result.Documents {
		docs = append(docs, toResponse(doc, result.Tags[doc.ID]))
	}
	respond.OK(c, ListResponse{
		Documents: docs,
		Total:     result.Total,
		Page:      page,
		Pages:     result.Pages,
		Limit:     limit,
	})
}

func (h *Handler) get(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	doc, docTags, err := h.Svc.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.respondGetError(c, err)
		return
	}
	respond.OK(c, toResponse(doc, docTags))
}

type updateRequest struct {
	FileName  *string `json:"fileName"`
	IssueDate *string `json:"issueDate"`
}

func (h *Handler) update(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.FileName == nil && req.IssueDate == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "nothing to update", nil)
		return
	}

	in := UpdateInput{FileName: req.FileName}
	if req.IssueDate != nil {
		issueDate, err := time.Parse("2006-01-02", *req.IssueDate)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "issueDate must be YYYY-MM-DD", nil)
			return
		}
		in.IssueDate = &issueDate
	}

	doc, err := h.Svc.Update(c.Request.Context(), tenantID, c.Param("id"), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update document", nil)
		}
		return
	}

	docTags, _ := h.Svc.Tags.For(c.Request.Context(), doc.ID)
	respond.OK(c, toResponse(doc, docTags))
}

func (h *Handler) remove(c *gin.Context) {
	tenantID := middleware.TenantIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

func (h *Handler) preview(c *gin.Context) {
	h.serveContent(c, "inline")
}

func (h *Handler) download(c *gin.Context) {
	h.serveContent(c, "attachment")
}

func (h *Handler) serveContent(c *gin.Context, disposition string) {
	tenantID := middleware.TenantIDFromContext(c)

	doc, plaintext, err := h.Svc.Open(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.respondGetError(c, err)
		return
	}

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", disposition+`; filename="`+doc.FileName+`"`)
	c.Data(http.StatusOK, contentType, plaintext)
}

func (h *Handler) respondGetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrNotReady):
		respond.Error(c, http.StatusNotFound, "not_found", "document content not available", nil)
	case errors.Is(err, vault.ErrIntegrity):
		// Tampering or key mismatch; never serve altered plaintext.
		respond.Error(c, http.StatusInternalServerError, "integrity_error", "document failed integrity verification", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read document", nil)
	}
}

func (h *Handler) quotaDetails(c *gin.Context, tenantID string) any {
	usage, err := h.Svc.Quota.Usage(c.Request.Context(), tenantID)
	if err != nil {
		return nil
	}
	return usage
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}
