package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"urlshort/internal/store"
)

// QRCodeHandlers serves a scannable PNG for any active short URL.
type QRCodeHandlers struct {
	store   *store.URLStore
	baseURL string
}

func NewQRCodeHandlers(s *store.URLStore, baseURL string) *QRCodeHandlers {
	return &QRCodeHandlers{store: s, baseURL: baseURL}
}

// GenerateQRCode handles GET /api/v1/url/:shortCode/qrcode, returning a
// 256x256 PNG encoding the short URL. 404s if the code doesn't resolve
// to an active mapping, so it never advertises a dead code.
func (h *QRCodeHandlers) GenerateQRCode(c *gin.Context) {
	shortCode := c.Param("shortCode")
	m, err := h.store.FindByShortCode(c.Request.Context(), shortCode)
	if err != nil {
		respondError(c, err)
		return
	}
	if m == nil || m.Expired(time.Now()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "URL_NOT_FOUND", "message": "short URL not found"})
		return
	}

	png, err := qrcode.Encode(h.baseURL+"/"+shortCode, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "QR_GENERATION_FAILED", "message": "failed to generate QR code"})
		return
	}

	c.Header("Content-Disposition", "inline; filename=qrcode.png")
	c.Data(http.StatusOK, "image/png", png)
}
