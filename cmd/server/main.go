package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/digivite/digivite/internal/config"
	"github.com/digivite/digivite/internal/database"
	"github.com/digivite/digivite/internal/handler"
	"github.com/digivite/digivite/internal/logging"
	"github.com/digivite/digivite/internal/mail"
	"github.com/digivite/digivite/internal/middleware"
	"github.com/digivite/digivite/internal/queue"
	"github.com/digivite/digivite/internal/repository/memory"
	"github.com/digivite/digivite/internal/repository/mysql"
	"github.com/digivite/digivite/internal/router"
	"github.com/digivite/digivite/internal/service"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	notifier := newNotifier(ctx, cfg, log)

	e := router.New(log)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(service.NewAuthService(repo, service.AuthConfig{
		JWTSecret:    cfg.JWTSecret,
		AccessTTLMin: cfg.AccessTTLMin,
		BcryptCost:   cfg.BcryptCost,
	}), cfg.CookieSecure), cfg.JWTSecret)
	rsvp := service.NewRSVPService(repo, notifier, log)
	// go-mail applies SMTP_TIMEOUT to the dial and again to the send
	rsvp.SetNotifyTimeout(2 * cfg.Mail.Timeout)
	router.RegisterGuest(e,
		handler.NewGuestHandler(rsvp, service.NewVerifier(repo)),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	)
	router.RegisterAdmin(e,
		handler.NewAdminHandler(
			service.NewTableService(repo),
			service.NewAdminQuery(repo, log),
			service.NewGuestService(repo),
			service.NewEventService(repo),
		),
		cfg.JWTSecret,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}

// openStore returns the repository selected by STORE_DRIVER and a func
// that releases it.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (service.Repository, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using the in-memory store; data is lost on exit")
		return memory.New(), func() {}, nil
	}
	db, err := database.Open(database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := database.EnsureSchema(mctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info().Msg("schema ensured")
	}
	return mysql.New(db), func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}, nil
}

// newNotifier picks the invitation delivery path.  With the queue driver
// the RSVP request only publishes; a consumer goroutine in this process
// does the SMTP work.
func newNotifier(ctx context.Context, cfg config.Config, log zerolog.Logger) service.Notifier {
	if cfg.Notify.Driver == config.NotifyNone {
		log.Info().Msg("invitation emails disabled")
		return service.NopNotifier{}
	}
	mailer, err := mail.NewMailer(cfg.Mail, log)
	if err != nil {
		log.Warn().Err(err).Msg("mailer unavailable; invitation emails disabled")
		return service.NopNotifier{}
	}
	if cfg.Notify.Driver != config.NotifyQueue {
		return mailer
	}
	go func() {
		err := queue.StartInvitationConsumer(ctx, cfg.Notify.AMQPURL, cfg.Notify.Queue, mailer, log)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("invitation consumer stopped")
		}
	}()
	return queue.NewPublisher(cfg.Notify.AMQPURL, cfg.Notify.Queue, log)
}
