package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledgerpay/internal/config"
	"ledgerpay/internal/handlers"
	"ledgerpay/internal/queue"
	"ledgerpay/internal/repositories"
	"ledgerpay/internal/services/account"

	"go.uber.org/zap"
)

// publishBackoff is the base delay between AMQP publish attempts.
const publishBackoff = 200 * time.Millisecond

type store struct {
	accounts repositories.AccountRepository
	ledger   repositories.LedgerReader
	close    func() error
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		repo := repositories.NewMemoryAccountRepository()
		log.Warn("using in-memory ledger store; balances are lost on exit")
		return &store{accounts: repo, ledger: repo, close: func() error { return nil }}, nil
	}

	gdb, err := repositories.InitDB(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	reader, err := repositories.OpenReader(cfg.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	statsCtx, stopStats := context.WithCancel(ctx)
	go logPoolStats(statsCtx, poolStatsInterval, sqlDB.Stats, log)

	return &store{
		accounts: repositories.NewAccountRepository(gdb),
		ledger:   repositories.NewPostgresLedgerReader(reader),
		close: func() error {
			stopStats()
			return errors.Join(reader.Close(), sqlDB.Close())
		},
	}, nil
}

type transport struct {
	primary  queue.Publisher
	fallback queue.Publisher
	consumer queue.Consumer
	ping     handlers.Pinger
	close    func() error
}

// openTransport builds the notification channels. The primary channel is
// always behind a circuit breaker so a dead broker fails fast to the
// fallback.
func openTransport(cfg config.QueueConfig, log *zap.Logger) (*transport, error) {
	switch cfg.Driver {
	case config.QueueDriverRabbitMQ:
		mq, err := queue.DialRabbitMQ(cfg.AMQPURL, cfg.PrimaryName, cfg.FallbackName, log)
		if err != nil {
			return nil, err
		}
		primary := queue.NewRetrying(mq.Publisher(cfg.PrimaryName), cfg.PublishRetries, publishBackoff, cfg.PublishTimeout)
		fallback := queue.NewRetrying(mq.Publisher(cfg.FallbackName), cfg.PublishRetries, publishBackoff, cfg.PublishTimeout)
		return &transport{
			primary:  queue.NewBreaker(primary, cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout, log),
			fallback: fallback,
			consumer: mq.Consumer(cfg.PrimaryName),
			ping:     mq,
			close:    mq.Close,
		}, nil

	case config.QueueDriverRedis:
		client := queue.NewRedisClient(cfg)
		primary := queue.NewRedisQueue(client, cfg.PrimaryName,
			queue.WithDeadLetter(cfg.FallbackName),
			queue.WithRedisLogger(log))
		fallback := queue.NewRedisQueue(client, cfg.FallbackName, queue.WithRedisLogger(log))
		return &transport{
			primary:  queue.NewBreaker(primary, cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout, log),
			fallback: fallback,
			consumer: primary,
			ping:     primary,
			close:    client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}

// nextMidnight returns the first UTC midnight strictly after now.
func nextMidnight(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
}

// runDailyReset zeroes daily usage at every UTC midnight until ctx ends.
func runDailyReset(ctx context.Context, accounts account.Service, log *zap.Logger) {
	for {
		timer := time.NewTimer(time.Until(nextMidnight(time.Now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := accounts.ResetDailyUsage(ctx); err != nil {
			log.Error("daily usage reset failed", zap.Error(err))
		}
	}
}
