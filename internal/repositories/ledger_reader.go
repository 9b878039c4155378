package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ledgerpay/internal/models"
	"ledgerpay/internal/repositories/options"

	"github.com/jmoiron/sqlx"
)

// LedgerReader serves read-only ledger history queries.
type LedgerReader interface {
	ListTransactions(ctx context.Context, customerID string, opts ...*options.LedgerOptions) ([]models.Transaction, error)
}

var _ LedgerReader = (*PostgresLedgerReader)(nil)

// PostgresLedgerReader builds filtered history statements with sqlx. It reads
// the tables migrated by InitDB.
type PostgresLedgerReader struct {
	db *sqlx.DB
}

func NewPostgresLedgerReader(db *sqlx.DB) *PostgresLedgerReader {
	return &PostgresLedgerReader{db: db}
}

func (r *PostgresLedgerReader) ListTransactions(ctx context.Context, customerID string, opts ...*options.LedgerOptions) ([]models.Transaction, error) {
	var accountID uint
	err := r.db.GetContext(ctx, &accountID, "SELECT id FROM accounts WHERE customer_id = $1", customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	query, args, err := buildHistoryQuery(accountID, options.Merge(opts...))
	if err != nil {
		return nil, err
	}

	result := []models.Transaction{}
	if err := r.db.SelectContext(ctx, &result, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return result, nil
}

// buildHistoryQuery renders a named statement for opt and binds it.
func buildHistoryQuery(accountID uint, opt options.LedgerOptions) (string, []interface{}, error) {
	where := []string{"account_id = :account_id"}
	namedParams := map[string]interface{}{
		"account_id": accountID,
		"limit":      opt.Limit,
		"offset":     opt.Offset,
	}

	addRange := func(column, key string, rng options.Range) {
		if from, ok := rng.From(); ok {
			where = append(where, fmt.Sprintf("%s >= :%s_from", column, key))
			namedParams[key+"_from"] = from
		}
		if to, ok := rng.To(); ok {
			where = append(where, fmt.Sprintf("%s <= :%s_to", column, key))
			namedParams[key+"_to"] = to
		}
	}
	if opt.Timestamp != nil {
		addRange("timestamp", "timestamp", opt.Timestamp)
	}
	if opt.Amount != nil {
		addRange("abs(amount)", "amount", opt.Amount)
	}

	query := fmt.Sprintf(
		"SELECT id, transaction_id, account_id, type, amount, description, timestamp, balance_after "+
			"FROM transactions WHERE %s ORDER BY timestamp DESC, id DESC LIMIT :limit OFFSET :offset",
		strings.Join(where, " AND "),
	)
	return sqlx.Named(query, namedParams)
}
