// Command seed opens demo accounts in the configured Postgres store and
// prints a development bearer token for each customer.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"ledgerpay/internal/config"
	ledgererrors "ledgerpay/internal/errors"
	"ledgerpay/internal/logger"
	"ledgerpay/internal/repositories"
	"ledgerpay/internal/services/account"
	"ledgerpay/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const tokenTTL = 24 * time.Hour

var demoAccounts = []account.OpenRequest{
	{CustomerID: "CUST001", CustomerName: "Amina Okafor", Balance: decimal.RequireFromString("25000.00")},
	{CustomerID: "CUST002", CustomerName: "Jonas Weber", Balance: decimal.RequireFromString("1200.50")},
	{CustomerID: "CUST003", CustomerName: "Mei Chen", Balance: decimal.RequireFromString("0.00"),
		DailyLimit: decimal.RequireFromString("1000.00")},
}

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

	db, err := repositories.InitDB(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	svc := account.NewService(repositories.NewAccountRepository(db), nil, cfg.DefaultDailyLimit, zlog)
	if err := seed(context.Background(), svc, cfg.JWTSecret, os.Stdout); err != nil {
		zlog.Fatal("seeding failed", zap.Error(err))
	}
}

// seed opens every demo account that does not exist yet and writes one
// line per customer to out.
func seed(ctx context.Context, svc account.Service, secret string, out io.StringWriter) error {
	for _, req := range demoAccounts {
		snap, err := svc.Open(ctx, req)
		switch {
		case err == nil:
		case ledgererrors.KindOf(err) == ledgererrors.KindValidationFailed:
			// already seeded
			if snap, err = svc.Get(ctx, req.CustomerID); err != nil {
				return err
			}
		default:
			return err
		}

		line := fmt.Sprintf("%s\t%s\t%s", snap.CustomerID, snap.AccountNumber, snap.Balance.StringFixed(2))
		if secret != "" {
			token, err := utils.GenerateToken(secret, snap.CustomerID, snap.CustomerName, tokenTTL)
			if err != nil {
				return err
			}
			line += "\t" + token
		}
		if _, err := out.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}
