package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/anderle/table-reservation/internal/booking"
	"github.com/anderle/table-reservation/internal/config"
	"github.com/anderle/table-reservation/internal/database"
	"github.com/anderle/table-reservation/internal/handler"
	"github.com/anderle/table-reservation/internal/metrics"
	"github.com/anderle/table-reservation/internal/middleware"
	"github.com/anderle/table-reservation/internal/model"
	"github.com/anderle/table-reservation/internal/notify"
	"github.com/anderle/table-reservation/internal/queue"
	"github.com/anderle/table-reservation/internal/repository"
	"github.com/anderle/table-reservation/internal/router"
	"github.com/anderle/table-reservation/internal/session"
	queue_publisher "github.com/anderle/table-reservation/internal/service"
)

func main() {
	// .env is optional; in containers the variables come from the
	// environment directly.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "table-reservation").Logger()
	cfg := config.Load()
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable; rate limiting and availability caching disabled")
	}

	reservations := repository.NewReservationRepo(db)
	slots := repository.NewSlotRepo(db)
	overrides := repository.NewOverrideRepo(db)
	sessions := repository.NewSessionRepo(db)
	settings := repository.NewSettingsRepo(db)
	operators := repository.NewOperatorRepo(db)

	if cfg.OperatorEmail != "" && cfg.OperatorPass != "" {
		if err := operators.Ensure(context.Background(), cfg.OperatorEmail, cfg.OperatorPass, cfg.BcryptCost); err != nil {
			log.Fatal().Err(err).Msg("seed operator account failed")
		}
	}

	sessionMgr := session.New(sessions, time.Duration(cfg.SessionDays)*24*time.Hour)
	gateway := notify.NewGateway(cfg.WebhookURL, cfg.WebhookSecret, cfg.RestaurantName, cfg.WebhookTimeout, log)
	links := notify.LinkBuilder{BaseURL: cfg.BaseURL}

	invalidate := func(ctx context.Context, dateKey string) {
		if rdb == nil {
			return
		}
		if err := rdb.Del(ctx, "availability:"+dateKey).Err(); err != nil {
			log.Warn().Err(err).Str("date", dateKey).Msg("availability cache invalidation failed")
		}
	}

	engine := &booking.Engine{
		Reservations: reservations,
		Slots:        slots,
		Overrides:    overrides,
		Sessions:     sessions,
		Settings:     settings,
		SessionMgr:   sessionMgr,
		Notifier:     gateway,
		Links:        links,
		Restaurant:   cfg.RestaurantName,
		Publish: func(ctx context.Context, res model.Reservation, slot model.TimeSlot) error {
			return queue_publisher.PublishReservationConfirmed(ctx, res, slot)
		},
		Invalidate: invalidate,
		Log:        log,
	}

	metrics.Register()
	go func() {
		if err := queue.StartReservationConsumer(log); err != nil {
			log.Warn().Err(err).Msg("reservation consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	reservationHandler := &handler.ReservationHandler{
		Engine:       engine,
		Reservations: reservations,
		Slots:        slots,
		Settings:     settings,
	}
	availabilityHandler := &handler.AvailabilityHandler{
		Slots:        slots,
		Overrides:    overrides,
		Reservations: reservations,
		RDB:          rdb,
		CacheTTL:     30 * time.Second,
		Log:          log,
	}
	authHandler := &handler.AuthHandler{
		Cfg:      cfg,
		Sessions: sessionMgr,
		Notifier: gateway,
		Links:    links,
		Log:      log,
	}

	router.RegisterRoutes(e)
	router.RegisterPublic(e, reservationHandler, availabilityHandler, authHandler, limiter)
	router.RegisterCustomer(e, reservationHandler, sessionMgr, cfg.SessionCookieName)
	router.RegisterAdmin(e,
		&handler.AdminAuthHandler{Cfg: cfg, Operators: operators},
		&handler.AdminSlotHandler{Slots: slots, Reservations: reservations},
		&handler.AdminOverrideHandler{Overrides: overrides, Slots: slots, Reservations: reservations},
		&handler.AdminSettingsHandler{Settings: settings},
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
