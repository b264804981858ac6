package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"urlshort/internal/analytics"
	"urlshort/internal/cache"
	"urlshort/internal/config"
	"urlshort/internal/database"
	"urlshort/internal/expiry"
	"urlshort/internal/httpapi"
	"urlshort/internal/idgen"
	"urlshort/internal/jwt"
	"urlshort/internal/middleware"
	"urlshort/internal/ratelimit"
	"urlshort/internal/service"
	"urlshort/internal/store"
	"urlshort/internal/ws"
)

func main() {
	cfg := config.Load()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Redis is optional: the multi-layer cache degrades to L1+L3 when
	// it is unreachable
	var l2 cache.DistributedCache
	l2, err = cache.NewRedisCache(cache.RedisConfig{
		Addr:       cfg.Cache.RedisAddr,
		Password:   cfg.Cache.RedisPassword,
		DB:         cfg.Cache.RedisDB,
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
	})
	if err != nil {
		log.Printf("warning: redis unavailable (%v), continuing with L1+L3 only", err)
		l2 = nil
	}

	l1, err := cache.NewLRU(cfg.Cache.LocalLRUSize)
	if err != nil {
		log.Fatalf("failed to build local cache: %v", err)
	}

	urlStore := store.NewURLStore(db, store.DefaultRetryConfig())
	analyticsStore := store.NewAnalyticsStore(db, store.DefaultRetryConfig())
	multiCache := cache.NewMultiLayerCache(l1, l2, urlStore)

	counterAllocator := idgen.NewCounterAllocator(idgen.NewSQLCounterStore(db), idgen.AllocatorConfig{
		CounterName: "short_code",
		BatchSize:   cfg.IDGen.CounterBatchSize,
		MaxRetries:  3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	})
	hashGenerator := idgen.NewHashGenerator(urlStore, idgen.HashGeneratorConfig{MaxRetries: 5})
	facade := idgen.NewFacade(counterAllocator, hashGenerator, urlStore)

	hub := ws.NewHub()

	// Bus-vs-direct decision: probe for 3s
	var publisher analytics.Publisher
	var busConsumer *analytics.BusConsumer
	var busProducer *analytics.BusProducer
	var directWriter *analytics.DirectWriter

	if busReachable(cfg.Bus.Brokers, cfg.Bus.ProbeTimeout) {
		log.Println("message bus reachable, using bus producer/consumer pipeline")
		busProducer = analytics.NewBusProducer(cfg.Bus.Brokers, cfg.Bus.Topic, hub)
		busConsumer = analytics.NewBusConsumer(cfg.Bus.Brokers, analyticsStore, l2)
		publisher = busProducer
	} else {
		log.Println("message bus unreachable, falling back to direct analytics writer")
		directWriter = analytics.NewDirectWriter(analyticsStore, hub)
		publisher = directWriter
	}

	redirectService := service.NewRedirectService(multiCache, urlStore, publisher)
	shortenerService := service.NewShortenerService(urlStore, multiCache, facade, nil)

	verifier := jwt.NewVerifier(cfg.Security.AccessSecret)
	rateLimiter := ratelimit.NewLimiter(l2, ratelimit.DefaultTiers())
	rateLimitMW := middleware.NewRateLimitMiddleware(rateLimiter, func(c *gin.Context) ratelimit.Tier {
		if _, ok := c.Get(middleware.ContextKeyUserID); ok {
			return ratelimit.TierStandard
		}
		return ratelimit.TierAnonymous
	})

	shortenerHandlers := httpapi.NewShortenerHandlers(shortenerService, redirectService, urlStore, multiCache, cfg.BaseURL)
	qrCodeHandlers := httpapi.NewQRCodeHandlers(urlStore, cfg.BaseURL)
	observabilityHandlers := httpapi.NewObservabilityHandlers(db)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Shortener:     shortenerHandlers,
		QRCode:        qrCodeHandlers,
		Observability: observabilityHandlers,
		Verifier:      verifier,
		RateLimit:     rateLimitMW,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := expiry.NewSweeper(urlStore, multiCache, cfg.Expiry.SweepInterval, cfg.Expiry.SweepBatch, cfg.Expiry.TombstoneTTL)
	go sweeper.Run(ctx)

	summarizer := analytics.NewSummarizer(analyticsStore)
	go summarizer.Run(ctx)

	if busConsumer != nil {
		go busConsumer.Run(ctx)
	}

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler: router,
	}

	go func() {
		log.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down, draining in-flight requests")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if busProducer != nil {
		busProducer.Stop()
	}
	if busConsumer != nil {
		busConsumer.Stop()
	}
	if directWriter != nil {
		directWriter.Stop()
	}

	log.Println("shutdown complete")
}

// busReachable implements the startup bus connection probe: if no
// broker accepts a TCP connection within timeout, the service falls
// back to direct analytics writes instead of the bus.
func busReachable(brokers []string, timeout time.Duration) bool {
	for _, addr := range brokers {
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err == nil {
			conn.Close()
			return true
		}
	}
	return false
}
