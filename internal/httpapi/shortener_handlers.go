// Package httpapi is the Gin HTTP layer, wiring the redirect and
// shortener services to routes and mapping taxonomy errors to
// responses.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"urlshort/internal/cache"
	"urlshort/internal/middleware"
	"urlshort/internal/models"
	"urlshort/internal/service"
	"urlshort/internal/store"
)

// ShortenerHandlers implements the shorten/resolve/delete endpoints.
type ShortenerHandlers struct {
	shortener *service.ShortenerService
	redirect  *service.RedirectService
	store     *store.URLStore
	cache     *cache.MultiLayerCache
	baseURL   string
}

func NewShortenerHandlers(shortener *service.ShortenerService, redirect *service.RedirectService, urlStore *store.URLStore, c *cache.MultiLayerCache, baseURL string) *ShortenerHandlers {
	return &ShortenerHandlers{shortener: shortener, redirect: redirect, store: urlStore, cache: c, baseURL: baseURL}
}

func callerUserID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(middleware.ContextKeyUserID)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// CreateShortURL handles POST /api/v1/url/shorten.
func (h *ShortenerHandlers) CreateShortURL(c *gin.Context) {
	var req models.CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "VALIDATION_ERROR", Message: err.Error()})
		return
	}

	result, err := h.shortener.CreateShortURL(c.Request.Context(), service.CreateRequest{
		LongURL:     req.URL,
		CustomAlias: req.CustomAlias,
		UserID:      callerUserID(c),
		ExpiryDays:  req.ExpiryDays,
		BaseURL:     h.baseURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toCreateResponse(result))
}

// CreateBulk handles a bulk-creation request
func (h *ShortenerHandlers) CreateBulk(c *gin.Context) {
	var req models.BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "VALIDATION_ERROR", Message: err.Error()})
		return
	}

	userID := callerUserID(c)
	reqs := make([]service.CreateRequest, len(req.URLs))
	for i, u := range req.URLs {
		reqs[i] = service.CreateRequest{
			LongURL:     u.URL,
			CustomAlias: u.CustomAlias,
			UserID:      userID,
			ExpiryDays:  u.ExpiryDays,
			BaseURL:     h.baseURL,
		}
	}

	items, _ := h.shortener.CreateBulk(c.Request.Context(), reqs)
	resp := models.BulkCreateResponse{Results: make([]models.BulkResultItem, len(items))}
	for i, item := range items {
		entry := models.BulkResultItem{URL: item.Request.LongURL}
		if item.Err != nil {
			entry.Error = item.Err.Error()
		} else {
			entry.Result = toCreateResponse(item.Result)
		}
		resp.Results[i] = entry
	}
	c.JSON(http.StatusOK, resp)
}

func toCreateResponse(r *service.CreateResult) *models.CreateURLResponse {
	if r == nil {
		return nil
	}
	var userID *string
	if r.UserID != nil {
		s := r.UserID.String()
		userID = &s
	}
	return &models.CreateURLResponse{
		ShortCode:     r.ShortCode,
		LongURL:       r.LongURL,
		ShortURL:      r.ShortURL,
		IsCustomAlias: r.IsCustomAlias,
		ExpiresAt:     r.ExpiresAt,
		WasReused:     r.WasReused,
		UserID:        userID,
	}
}

// RedirectToURL handles GET /{shortCode}.
func (h *ShortenerHandlers) RedirectToURL(c *gin.Context) {
	shortCode := c.Param("shortCode")
	meta := service.ClickMetadata{
		IPAddress: middleware.GetIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Referrer:  c.GetHeader("Referer"),
	}

	outcome, err := h.redirect.HandleRedirect(c.Request.Context(), shortCode, meta)
	if err != nil {
		respondError(c, err)
		return
	}

	switch outcome.Status {
	case service.StatusNotFound:
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "URL_NOT_FOUND", Message: "short URL not found"})
		return
	case service.StatusExpired:
		c.JSON(http.StatusGone, models.ErrorResponse{Error: "URL_EXPIRED", Message: "short URL has expired"})
		return
	}

	c.Redirect(http.StatusMovedPermanently, outcome.LongURL)
	h.redirect.AfterResponse(shortCode, meta)
}

// GetResolve handles GET /api/v1/url/resolve/{shortCode}, mirroring
// the redirect decision without issuing the 301.
func (h *ShortenerHandlers) GetResolve(c *gin.Context) {
	shortCode := c.Param("shortCode")
	outcome, err := h.redirect.HandleRedirect(c.Request.Context(), shortCode, service.ClickMetadata{})
	if err != nil {
		respondError(c, err)
		return
	}
	switch outcome.Status {
	case service.StatusNotFound:
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "URL_NOT_FOUND", Message: "short URL not found"})
		return
	case service.StatusExpired:
		c.JSON(http.StatusGone, models.ErrorResponse{Error: "URL_EXPIRED", Message: "short URL has expired"})
		return
	}
	m := outcome.Mapping
	c.JSON(http.StatusOK, models.ResolveResponse{
		ShortCode:      shortCode,
		LongURL:        outcome.LongURL,
		CreatedAt:      m.CreatedAt,
		LastAccessedAt: m.LastAccessedAt,
		ExpiresAt:      m.ExpiresAt,
		AccessCount:    m.AccessCount,
		IsCustomAlias:  m.IsCustomAlias,
	})
}

// DeleteURL handles DELETE /api/v1/url/{shortCode}: 401 unauthenticated,
// 403 non-owner, 404 missing, 200 on soft-delete
func (h *ShortenerHandlers) DeleteURL(c *gin.Context) {
	shortCode := c.Param("shortCode")
	owner := callerUserID(c)
	if owner == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "UNAUTHORIZED", Message: "authentication required"})
		return
	}

	existing, err := h.store.FindByShortCode(c.Request.Context(), shortCode)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "URL_NOT_FOUND", Message: "short URL not found"})
		return
	}
	if existing.UserID == nil || *existing.UserID != *owner {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "FORBIDDEN", Message: "you do not own this short URL"})
		return
	}

	ok, err := h.store.SoftDelete(c.Request.Context(), shortCode, owner)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "URL_NOT_FOUND", Message: "short URL not found"})
		return
	}

	h.cache.MarkDeleted(c.Request.Context(), shortCode, 7*24*time.Hour)
	h.cache.Invalidate(c.Request.Context(), shortCode)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
