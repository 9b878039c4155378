// Package main is the entry point of the ledgerpay API server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerpay/internal/config"
	"ledgerpay/internal/handlers"
	"ledgerpay/internal/logger"
	"ledgerpay/internal/queue"
	"ledgerpay/internal/repositories/cache"
	"ledgerpay/internal/routes"
	"ledgerpay/internal/services/account"
	"ledgerpay/internal/services/notification"
	"ledgerpay/internal/services/transfer"
	"ledgerpay/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnv()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:       "ledgerpay",
		Environment:       cfg.Env,
		CollectorEndpoint: cfg.OTLPEndpoint,
	}, zlog)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			zlog.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	st, err := openStore(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			zlog.Warn("failed to close ledger store", zap.Error(err))
		}
	}()

	tr, err := openTransport(cfg.Queue, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := tr.close(); err != nil {
			zlog.Warn("failed to close queue transport", zap.Error(err))
		}
	}()

	dispatcher := notification.NewDispatcher(tr.primary, tr.fallback,
		notification.NewFormatter(time.UTC),
		notification.WithLogger(zlog.Named("notification")),
		notification.WithTracer(tel.Tracer("ledgerpay/notification")))
	// in-flight notifications finish before the transport closes
	defer dispatcher.Wait()

	var accountOpts []account.Option
	if cfg.AccountCacheTTL > 0 {
		client := queue.NewRedisClient(cfg.Queue)
		defer client.Close()
		accountOpts = append(accountOpts, account.WithCache(cache.NewCacheService(client, cfg.AccountCacheTTL)))
	}
	accounts := account.NewService(st.accounts, st.ledger, cfg.DefaultDailyLimit, zlog.Named("account"), accountOpts...)

	notifiers := transfer.Notifiers{account.NewCacheInvalidator(accounts, zlog.Named("account")), dispatcher}
	transfers := transfer.NewService(st.accounts, notifiers,
		transfer.WithLogger(zlog.Named("transfer")),
		transfer.WithTracer(tel.Tracer("ledgerpay/transfer")))

	processor := notification.NewProcessor(tr.consumer, nil, zlog.Named("processor"))
	if err := processor.Start(ctx); err != nil {
		return err
	}
	defer processor.Stop()

	if cfg.DailyReset {
		go runDailyReset(ctx, accounts, zlog.Named("reset"))
	}

	app := newApp(cfg, zlog)
	routes.SetupRoutes(app, routes.Dependencies{
		Transfers: transfers,
		Accounts:  accounts,
		Health: map[string]handlers.Pinger{
			"database": st.accounts,
			"queue":    tr.ping,
		},
		JWTSecret: cfg.JWTSecret,
		Log:       zlog,
	})
	if !cfg.AuthEnabled {
		zlog.Warn("jwt secret not set; /api is unauthenticated")
	}

	listenErr := make(chan error, 1)
	go func() {
		zlog.Info("http server listening", zap.String("port", cfg.Port))
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		zlog.Error("error during http server shutdown", zap.Error(err))
	}
	return nil
}

func newApp(cfg *config.Config, zlog *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ledgerpay",
		DisableStartupMessage: cfg.IsProduction(),
	})

	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD",
	}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use("/api/transactions", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("TRANSFER_RATE_LIMIT", 30),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	return app
}

const poolStatsInterval = time.Minute

// logPoolStats reports connection pool usage every interval until ctx is
// done.
func logPoolStats(ctx context.Context, interval time.Duration, stats func() sql.DBStats, zlog *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := stats()
			zlog.Debug("db pool stats",
				zap.Int("open", s.OpenConnections),
				zap.Int("idle", s.Idle),
				zap.Int("in_use", s.InUse),
				zap.Int64("wait_count", s.WaitCount),
				zap.Duration("wait_duration", s.WaitDuration))
		}
	}
}
