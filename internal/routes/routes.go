// Package routes defines the API routing configuration.
package routes

import (
	"ledgerpay/internal/handlers"
	"ledgerpay/internal/middleware"
	"ledgerpay/internal/services/account"
	"ledgerpay/internal/services/transfer"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Dependencies are the services the routes are bound to.
type Dependencies struct {
	Transfers transfer.Service
	Accounts  account.Service
	Health    map[string]handlers.Pinger
	// JWTSecret enables bearer auth on /api when set.
	JWTSecret string
	Log       *zap.Logger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	transferHandler := handlers.NewTransferHandler(deps.Transfers, deps.Log)
	accountHandler := handlers.NewAccountHandler(deps.Accounts, deps.Log)
	healthHandler := handlers.NewHealthHandler(deps.Health)

	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api")
	if deps.JWTSecret != "" {
		api.Use(middleware.NewAuthMiddleware(deps.JWTSecret, deps.Log).Handler)
	}

	transactions := api.Group("/transactions")
	transactions.Post("/transfer", transferHandler.Transfer)

	accounts := api.Group("/accounts")
	accounts.Get("/:customerId", accountHandler.GetAccount)
	accounts.Get("/:customerId/transactions", accountHandler.ListTransactions)
}
