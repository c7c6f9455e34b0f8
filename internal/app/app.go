package app

import (
	"time"

	"brix-backend/internal/auth"
	"brix-backend/internal/config"
	"brix-backend/internal/database"
	"brix-backend/internal/health"
	"brix-backend/internal/ledger"
	"brix-backend/internal/middleware"
	"brix-backend/internal/payout"
	"brix-backend/internal/registry"
	"brix-backend/internal/sale"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration. Returns DB and Redis handles for startup pings.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
		if err := database.EnsurePlatform(db, cfg.PlatformAdmin); err != nil {
			return nil, nil, nil, err
		}
	}

	saleService := &sale.Service{
		DB:             db,
		ReservationTTL: time.Duration(cfg.ReservationTTLMin) * time.Minute,
	}

	// Stripe webhook — mounted before the session middleware; handler reads
	// raw body + Stripe-Signature header.
	stripeWebhook := &sale.WebhookHandler{Service: saleService, WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/stripe/webhook", stripeWebhook.HandleWebhook)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	// Health (no auth)
	healthHandlers := &health.Handlers{Rdb: rdb}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			healthHandlers.DB = sqlDB
		}
	}
	app.Get("/health/json", healthHandlers.JSON)

	// Auth (no auth middleware)
	var finder auth.PrincipalFinder
	if db != nil {
		finder = &auth.GormPrincipalFinder{DB: db}
	}
	authHandlers := &auth.Handlers{Finder: finder, Rdb: rdb, Config: sessionCfg}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Get("/me", authHandlers.Me)
	authGroup.Delete("/logout", authHandlers.Logout)

	if db != nil {
		// Registry module
		registryService := &registry.Service{DB: db}
		registryHandlers := &registry.Handlers{Service: registryService}
		registryGroup := app.Group("/api/v1/registry")
		registryGroup.Post("/register-property", middleware.RequireAuth(), registryHandlers.RegisterProperty)
		registryGroup.Patch("/properties/:id/status", middleware.RequireAuth(), registryHandlers.UpdateStatus)
		registryGroup.Patch("/properties/:id/stats", middleware.RequireAuth(), registryHandlers.UpdateStats)
		registryGroup.Post("/properties/:id/oracle", middleware.RequireAuth(), registryHandlers.SetOracle)
		registryGroup.Post("/set-paused", middleware.RequireAuth(), registryHandlers.SetPaused)
		registryGroup.Post("/set-treasury", middleware.RequireAuth(), registryHandlers.SetTreasury)
		registryGroup.Get("/properties/:id/stats", registryHandlers.GetPropertyStats)
		registryGroup.Get("/properties/:id/metadata", registryHandlers.GetPropertyMetadata)
		registryGroup.Get("/properties/:id", registryHandlers.GetProperty)
		registryGroup.Get("/by-contract/:ref", registryHandlers.GetPropertyByContract)
		registryGroup.Get("/owner-properties", middleware.RequireAuth(), registryHandlers.GetOwnerProperties)
		registryGroup.Get("/property-count", registryHandlers.GetPropertyCount)
		registryGroup.Get("/platform-fee", registryHandlers.GetPlatformFee)

		// Share ledger module
		ledgerService := &ledger.Service{DB: db}
		ledgerHandlers := &ledger.Handlers{Service: ledgerService}
		ledgerGroup := app.Group("/api/v1/ledger")
		ledgerGroup.Post("/transfer", middleware.RequireAuth(), ledgerHandlers.Transfer)
		ledgerGroup.Get("/:id/balance/:holder", ledgerHandlers.GetBalance)
		ledgerGroup.Get("/:id/total-supply", ledgerHandlers.GetTotalSupply)
		ledgerGroup.Get("/:id/token", ledgerHandlers.GetTokenInfo)

		// Sale module
		saleHandlers := &sale.Handlers{
			Service:       saleService,
			StripeCreator: &sale.RealStripeCreator{SecretKey: cfg.StripeSecretKey},
		}
		saleGroup := app.Group("/api/v1/sale", middleware.RequireAuth())
		saleGroup.Post("/purchase", saleHandlers.Purchase)
		saleGroup.Post("/reserve", saleHandlers.Reserve)
		saleGroup.Post("/properties/:id/sale-active", saleHandlers.SetSaleActive)
		saleGroup.Get("/reservations/:reservation_id", saleHandlers.GetReservation)

		// Payout module
		payoutService := &payout.Service{DB: db}
		payoutHandlers := &payout.Handlers{Service: payoutService}
		payoutGroup := app.Group("/api/v1/payouts")
		payoutGroup.Post("/distribute", middleware.RequireAuth(), payoutHandlers.Distribute)
		payoutGroup.Post("/claim", middleware.RequireAuth(), payoutHandlers.Claim)
		payoutGroup.Get("/account-balance", middleware.RequireAuth(), payoutHandlers.GetAccountBalance)
		payoutGroup.Get("/:id/current-round", payoutHandlers.GetCurrentRound)
		payoutGroup.Get("/:id/rounds/:round/claimable", payoutHandlers.GetClaimable)
		payoutGroup.Get("/:id/rounds/:round/has-claimed/:holder", payoutHandlers.HasClaimed)
		payoutGroup.Get("/:id/rounds/:round", payoutHandlers.GetPayoutRound)
	}

	return app, db, rdb, nil
}
