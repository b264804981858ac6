package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ObservabilityHandlers implements the ambient /health, /ready, /live
// endpoints alongside the core redirect/shorten surface.
type ObservabilityHandlers struct {
	db *sql.DB
}

func NewObservabilityHandlers(db *sql.DB) *ObservabilityHandlers {
	return &ObservabilityHandlers{db: db}
}

// Health is an unconditional liveness-adjacent OK.
func (h *ObservabilityHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Live reports the process is scheduled and running, independent of
// any dependency's health.
func (h *ObservabilityHandlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "live"})
}

// Ready reports whether the primary store is reachable, since a
// redirect cannot serve its L3 fall-through without it.
func (h *ObservabilityHandlers) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
