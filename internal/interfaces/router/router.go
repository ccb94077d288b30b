package router

import (
	"context"

	healthsvc "stock-tracker-backend/internal/application/health"
	portfoliosvc "stock-tracker-backend/internal/application/portfolio"
	"stock-tracker-backend/internal/config"
	"stock-tracker-backend/internal/infrastructure/cache"
	"stock-tracker-backend/internal/infrastructure/database"
	healthhandler "stock-tracker-backend/internal/interfaces/handlers/health"
	portfoliohandler "stock-tracker-backend/internal/interfaces/handlers/portfolio"
	"stock-tracker-backend/internal/middleware"
	"stock-tracker-backend/internal/pkg/currency"
	"stock-tracker-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CreateApp opens the database (and Redis when configured), migrates the
// schema and mounts every route. The returned clients are owned by the caller.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	logger.SetGlobalLogger(logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty}))

	if !currency.Known(cfg.Currency) {
		log.Warn().Str("currency", cfg.Currency).Str("fallback", currency.DefaultCode).Msg("Unknown currency code")
		cfg.Currency = currency.DefaultCode
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}

	rdb, err := cache.Open(context.Background(), cfg.RedisURL)
	if err != nil {
		// stats are optional; the API keeps serving without them
		log.Warn().Err(err).Msg("Redis unavailable, request stats disabled")
		rdb = nil
	}

	app := New(cfg, db, rdb)
	return app, db, rdb, nil
}

// New mounts middleware and routes on a fresh Fiber app using already opened clients.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())

	var pinger healthsvc.DBPinger
	if db != nil {
		pinger = &database.Pinger{DB: db}
	}
	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             pinger,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	ps := &portfoliosvc.Service{Store: portfoliosvc.NewGormStore(db), Currency: cfg.Currency}
	ph := &portfoliohandler.Handlers{Service: ps}
	pg := app.Group("/api/v1/portfolio")
	pg.Get("/", ph.GetPortfolio)
	pg.Get("/overview", ph.GetOverview)
	pg.Get("/events", ph.GetEvents)
	pg.Post("/purchases", ph.AddPurchase)
	pg.Post("/sales", ph.SellHolding)
	pg.Delete("/reset", ph.ResetPortfolio)

	return app
}
