package routes

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"ledgerpay/internal/handlers"
	"ledgerpay/internal/repositories"
	"ledgerpay/internal/services/account"
	"ledgerpay/internal/services/transfer"
	"ledgerpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, secret string) *fiber.App {
	t.Helper()
	repo := repositories.NewMemoryAccountRepository()
	accounts := account.NewService(repo, repo, decimal.Zero, nil)
	for _, id := range []string{"C1", "C2"} {
		_, err := accounts.Open(context.Background(), account.OpenRequest{CustomerID: id, Balance: decimal.NewFromInt(100)})
		require.NoError(t, err)
	}

	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Transfers: transfer.NewService(repo, nil),
		Accounts:  accounts,
		Health:    map[string]handlers.Pinger{"database": repo},
		JWTSecret: secret,
	})
	return app
}

func TestSetupRoutes_Auth(t *testing.T) {
	const secret = "route-secret"
	app := newApp(t, secret)

	tokenC1, err := utils.GenerateToken(secret, "C1", "", time.Minute)
	require.NoError(t, err)
	tokenC2, err := utils.GenerateToken(secret, "C2", "", time.Minute)
	require.NoError(t, err)

	body := `{"fromUserId":"C1","toUserId":"C2","amount":"5"}`
	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "health is public", method: "GET", path: "/health", wantStatus: fiber.StatusOK},
		{name: "no token", method: "POST", path: "/api/transactions/transfer", wantStatus: fiber.StatusUnauthorized},
		{name: "foreign sender", method: "POST", path: "/api/transactions/transfer", token: tokenC2, wantStatus: fiber.StatusForbidden},
		{name: "own transfer", method: "POST", path: "/api/transactions/transfer", token: tokenC1, wantStatus: fiber.StatusOK},
		{name: "own account", method: "GET", path: "/api/accounts/C1", token: tokenC1, wantStatus: fiber.StatusOK},
		{name: "foreign account", method: "GET", path: "/api/accounts/C1/transactions", token: tokenC2, wantStatus: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestSetupRoutes_OpenWithoutSecret(t *testing.T) {
	app := newApp(t, "")

	req := httptest.NewRequest("POST", "/api/transactions/transfer",
		bytes.NewBufferString(`{"fromUserId":"C2","toUserId":"C1","amount":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
