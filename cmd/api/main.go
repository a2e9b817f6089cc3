// Command api serves the delivery operations dashboard API.
//
// @title                      Ops Dashboard API
// @version                    1.0
// @description                Sessions, role checks, delivery records and the audit trail of the delivery operations dashboard.
// @BasePath                   /
// @securityDefinitions.apikey SessionCookie
// @in                         cookie
// @name                       opsdesk_session
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/courierdesk/ops-dashboard/docs"
	"github.com/courierdesk/ops-dashboard/internal/api"
	"github.com/courierdesk/ops-dashboard/internal/api/handler"
	"github.com/courierdesk/ops-dashboard/internal/api/metrics"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
	"github.com/courierdesk/ops-dashboard/internal/core/service"
	"github.com/courierdesk/ops-dashboard/internal/infrastructure/config"
	mongostore "github.com/courierdesk/ops-dashboard/internal/infrastructure/db/mongo"
	pgstore "github.com/courierdesk/ops-dashboard/internal/infrastructure/db/postgres"
	redisstore "github.com/courierdesk/ops-dashboard/internal/infrastructure/db/redis"
	"github.com/courierdesk/ops-dashboard/internal/infrastructure/queue"
	"github.com/courierdesk/ops-dashboard/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// recordStore is everything the services need from the database.
type recordStore interface {
	ports.AccountRepository
	ports.AccountLister
	ports.DeliveryRepository
	ports.AuditRepository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := bootLogger(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "ops-dashboard",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server stopped")
}

// bootLogger writes the errors raised before the configured logger exists.
func bootLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("component", "boot").Logger()
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	clock := service.SystemClock{Location: cfg.Location()}

	store, storeProbe, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info().Str("driver", cfg.StoreDriver).Msg("record store ready")

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB, PoolSize: cfg.Redis.PoolSize})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Audit trail ---
	dispatcher := queue.NewAuditDispatcher(store, cfg.Audit.Workers, cfg.Audit.QueueSize, cfg.Audit.WriteTimeout, logger.For("audit-queue"))
	dispatcher.Start()
	auditLogger := service.NewAuditLogger(dispatcher, clock, logger.For("audit"),
		service.WithClientAgentMaxLen(cfg.Audit.AgentMaxLen),
		service.WithWriteTimeout(cfg.Audit.WriteTimeout),
	)

	// --- Services ---
	throttle := service.NewLoginThrottle(cfg.Throttle.Window, cfg.Throttle.MaxAttempts, clock)
	sessions := redisstore.NewSessionStore(rdb, []byte(cfg.Session.Secret), cfg.Session.TTL, clock)
	authService := service.NewAuthService(store, sessions, throttle, auditLogger, logger.For("auth"))
	allocator := service.NewDisplayIDAllocator(store, clock, cfg.DisplayIDMaxAttempts, logger.For("display-id"))
	deliveryService := service.NewDeliveryService(store, allocator, auditLogger, clock, logger.For("deliveries"))
	auditQuery := service.NewAuditQueryService(store)
	userDirectory := service.NewUserDirectory(store, auditLogger)

	if _, err := service.EnsureDefaultAdmin(ctx, store, clock, cfg.Admin.Username, cfg.Admin.Password, logger.For("bootstrap")); err != nil {
		return err
	}

	ipExtractor, err := api.NewIPExtractor(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	go runThrottleSweeper(ctx, throttle, cfg.Throttle.SweepInterval, logger.For("throttle"))

	e := api.NewRouter(api.Dependencies{
		Auth:       authService,
		Deliveries: deliveryService,
		AuditQuery: auditQuery,
		Users:      userDirectory,
		Recorder:   auditLogger,
		Probes: map[string]handler.PingFunc{
			cfg.StoreDriver: storeProbe,
			"redis":         func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Cookie: handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: !cfg.Development(),
		},
		Location:    cfg.Location(),
		Log:         logger.For("http"),
		IPExtractor: ipExtractor,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Int64("pending", dispatcher.Pending()).Msg("audit queue not drained")
	}
	return nil
}

// openStore connects the configured record store and returns it with a
// readiness probe and a close function.
func openStore(ctx context.Context, cfg *config.Config) (recordStore, handler.PingFunc, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := pgstore.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pgstore.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return pgstore.NewStore(db), db.PingContext, func() { _ = db.Close() }, nil

	default:
		store, err := mongostore.Open(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store.Ping, func() { _ = store.Close(context.Background()) }, nil
	}
}

// runThrottleSweeper drops idle login throttle entries until ctx ends.
func runThrottleSweeper(ctx context.Context, throttle *service.LoginThrottle, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := throttle.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("throttle sweep")
			}
			metrics.ThrottledSources.Set(float64(throttle.Tracked()))
		}
	}
}
