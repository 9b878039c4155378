package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
)

// Transaction is an immutable ledger entry. Both legs of one transfer share
// TransactionID; ID is the row key.
type Transaction struct {
	ID            uint            `gorm:"primarykey" json:"-" db:"id"`
	TransactionID string          `gorm:"index;not null" json:"transactionId" db:"transaction_id"`
	AccountID     uint            `gorm:"index;not null" json:"-" db:"account_id"`
	Type          TransactionType `gorm:"type:varchar(20);not null" json:"transactionType" db:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(19,4);not null" json:"amount" db:"amount"`
	Description   string          `json:"description" db:"description"`
	Timestamp     time.Time       `gorm:"index;not null" json:"timestamp" db:"timestamp"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(19,4);not null" json:"balanceAfter" db:"balance_after"`
}
