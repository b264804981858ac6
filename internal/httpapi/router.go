package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"urlshort/internal/jwt"
	"urlshort/internal/metrics"
	"urlshort/internal/middleware"
)

// RouterConfig bundles every dependency the router needs to wire the
// HTTP surface.
type RouterConfig struct {
	Shortener     *ShortenerHandlers
	QRCode        *QRCodeHandlers
	Observability *ObservabilityHandlers
	Verifier      *jwt.Verifier
	RateLimit     *middleware.RateLimitMiddleware
}

// NewRouter builds the Gin engine and wires the route table and
// middleware chain.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(metrics.Middleware())

	router.GET("/health", cfg.Observability.Health)
	router.GET("/live", cfg.Observability.Live)
	router.GET("/ready", cfg.Observability.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.OptionalAuth(cfg.Verifier)
	rateLimit := cfg.RateLimit.Handler()

	router.GET("/:shortCode", auth, rateLimit, cfg.Shortener.RedirectToURL)

	api := router.Group("/api/v1")
	api.Use(auth, rateLimit)
	{
		api.POST("/url/shorten", cfg.Shortener.CreateShortURL)
		api.POST("/url/shorten/bulk", cfg.Shortener.CreateBulk)
		api.GET("/url/resolve/:shortCode", cfg.Shortener.GetResolve)
		api.DELETE("/url/:shortCode", cfg.Shortener.DeleteURL)
		api.GET("/url/:shortCode/qrcode", cfg.QRCode.GenerateQRCode)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "ROUTE_NOT_FOUND", "message": "route not found"})
	})

	return router
}
