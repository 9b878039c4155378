package main

import (
	"context"
	"strings"
	"testing"

	"ledgerpay/internal/repositories"
	"ledgerpay/internal/services/account"
	"ledgerpay/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_IsIdempotent(t *testing.T) {
	repo := repositories.NewMemoryAccountRepository()
	svc := account.NewService(repo, repo, decimal.Zero, nil)
	ctx := context.Background()

	var first, second strings.Builder
	require.NoError(t, seed(ctx, svc, "dev-secret", &first))
	require.NoError(t, seed(ctx, svc, "dev-secret", &second))

	firstLines := strings.Split(strings.TrimSpace(first.String()), "\n")
	secondLines := strings.Split(strings.TrimSpace(second.String()), "\n")
	require.Len(t, firstLines, len(demoAccounts))
	require.Len(t, secondLines, len(demoAccounts))

	for i, line := range firstLines {
		cols := strings.Split(line, "\t")
		require.Len(t, cols, 4)
		assert.Equal(t, demoAccounts[i].CustomerID, cols[0])
		// same account number on the second run
		assert.Equal(t, cols[1], strings.Split(secondLines[i], "\t")[1])

		claims, err := utils.ParseToken("dev-secret", cols[3])
		require.NoError(t, err)
		assert.Equal(t, demoAccounts[i].CustomerID, claims.CustomerID())
	}

	snap, err := svc.Get(ctx, "CUST003")
	require.NoError(t, err)
	assert.Equal(t, "1000.00", snap.DailyLimit.StringFixed(2))
}

func TestSeed_WithoutSecretPrintsNoTokens(t *testing.T) {
	repo := repositories.NewMemoryAccountRepository()
	svc := account.NewService(repo, repo, decimal.Zero, nil)

	var out strings.Builder
	require.NoError(t, seed(context.Background(), svc, "", &out))
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		assert.Len(t, strings.Split(line, "\t"), 3)
	}
}
