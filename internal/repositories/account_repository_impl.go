package repositories

import (
	"context"
	"errors"
	"fmt"

	"ledgerpay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db   *gorm.DB
	inTx bool
}

// NewAccountRepository returns the Postgres-backed AccountRepository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) FindByCustomerID(ctx context.Context, customerID string) (*models.Account, error) {
	q := r.db.WithContext(ctx)
	if r.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var account models.Account
	if err := q.Where("customer_id = ?", customerID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) Save(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(account).Error; err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		for i := range account.Transactions {
			entry := &account.Transactions[i]
			if entry.ID != 0 {
				continue
			}
			entry.AccountID = account.ID
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("failed to create transaction: %w", err)
			}
		}
		return nil
	})
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Create(account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("failed to create account: %w", result.Error)
	}
	return nil
}

func (r *accountRepository) ExecuteInTransaction(ctx context.Context, fn func(AccountRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &accountRepository{db: tx, inTx: true}
		return fn(txRepo)
	})
}

func (r *accountRepository) ResetDailyUsage(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("daily_transaction_amount <> 0").
		Update("daily_transaction_amount", decimal.Zero)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reset daily usage: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *accountRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
