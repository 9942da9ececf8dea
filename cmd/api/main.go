package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/config"
	"github.com/dafibh/domo/domo-client/internal/connectivity"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/dafibh/domo/domo-client/internal/handler"
	"github.com/dafibh/domo/domo-client/internal/middleware"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/dafibh/domo/domo-client/internal/repository/storage"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/dafibh/domo/domo-client/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	logger := log.Logger

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Remote API
	gwCfg := gateway.DefaultConfig(cfg.APIBaseURL)
	gwCfg.Token = cfg.APIToken
	gwCfg.Timeout = cfg.Gateway.Timeout
	gwCfg.RPS = cfg.Gateway.RPS
	gwCfg.Burst = cfg.Gateway.Burst
	gw := gateway.New(gwCfg, logger)

	store := cache.New(logger)
	service.RegisterFetchers(store, gw)

	hub := websocket.NewHub()
	stopPublishing := websocket.PublishCacheChanges(store, hub)
	defer stopPublishing()

	// Connectivity
	monitor := connectivity.NewMonitor(logger)
	monitor.OnChange(websocket.ConnectivityListener(hub))
	prober := connectivity.NewProber(gw, monitor, logger, connectivity.ProberConfig{
		Interval:        cfg.Probe.Interval,
		OfflineInterval: cfg.Probe.OfflineInterval,
	})
	prober.Start(ctx)

	engine := mutation.NewEngine(store, gw, logger, mutation.Options{
		Retry: mutation.RetryPolicy{
			MaxAttempts: cfg.Mutation.MaxAttempts,
			Delay:       cfg.Mutation.RetryDelay,
			Backoff:     cfg.Mutation.Backoff,
			MaxDelay:    cfg.Mutation.MaxDelay,
		},
		Connectivity: monitor,
		Notifier:     websocket.Notifier(hub),
	})

	var listener *websocket.Listener
	if cfg.EventsURL != "" {
		listener = websocket.NewListener(store, logger, websocket.ListenerConfig{
			URL:   cfg.EventsURL,
			Token: cfg.APIToken,
		})
		listener.Start(ctx)
		log.Info().Str("url", cfg.EventsURL).Msg("Listening for remote events")
	}

	// Product image storage is optional
	var imageRepo storage.ImageRepository
	if cfg.S3.Enabled() {
		s3Repo, err := storage.NewS3ImageRepository(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 image repository")
		}
		imageRepo = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Product image storage enabled")
	} else {
		log.Warn().Msg("S3_BUCKET not set, product image uploads are disabled")
	}

	// Initialize services
	deps := service.Deps{Store: store, Engine: engine, Clock: time.Now}
	imageService := service.NewImageService(imageRepo)
	productService := service.NewProductService(deps, imageService, logger)
	dashboardService := service.NewDashboardService(deps)

	// Auth is optional for a single-user local install
	var authMiddleware *middleware.AuthMiddleware
	var wsValidator websocket.TokenValidator
	if cfg.AuthEnabled() {
		authMiddleware, err = middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth middleware")
		}
		wsValidator = authMiddleware
	} else {
		log.Warn().Msg("AUTH0_DOMAIN not set, local API is unauthenticated")
	}

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handler.Handlers{
		Status:      handler.NewStatusHandler(monitor, engine, hub),
		Cache:       handler.NewCacheHandler(store),
		Mutation:    handler.NewMutationHandler(engine),
		Account:     handler.NewAccountHandler(service.NewAccountService(deps)),
		CreditCard:  handler.NewCCHandler(service.NewCreditCardService(deps), dashboardService),
		Transaction: handler.NewTransactionHandler(service.NewTransactionService(deps)),
		Recurring:   handler.NewRecurringHandler(service.NewRecurringService(deps)),
		Category:    handler.NewCategoryHandler(service.NewCategoryService(deps)),
		Product:     handler.NewProductHandler(productService),
		Image:       handler.NewImageHandler(productService, imageService),
		Inventory:   handler.NewInventoryHandler(service.NewInventoryService(deps)),
		Shopping:    handler.NewShoppingHandler(service.NewShoppingService(deps, cfg.SplitTolerance)),
		Household:   handler.NewHouseholdHandler(service.NewHouseholdService(deps)),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		WebSocket:   handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
	})

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("api", cfg.APIBaseURL).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	hub.CloseAll()
	if listener != nil {
		listener.Stop()
	}
	prober.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if n := engine.Pending(); n > 0 {
		log.Warn().Int("pending", n).Msg("Dropping unsettled mutations")
	}
	engine.Close()

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
