package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDailyTransactionLimit is applied to accounts opened without an
// explicit limit.
var DefaultDailyTransactionLimit = decimal.RequireFromString("500000.00")

// Account is a customer's ledger account.
type Account struct {
	ID                     uint            `gorm:"primarykey" json:"id"`
	AccountNumber          string          `gorm:"uniqueIndex;not null" json:"accountNumber"`
	CustomerID             string          `gorm:"uniqueIndex;not null" json:"customerId"`
	CustomerName           string          `json:"customerName"`
	Balance                decimal.Decimal `gorm:"type:numeric(19,4);not null;default:0" json:"balance"`
	DailyTransactionLimit  decimal.Decimal `gorm:"type:numeric(19,4);not null;default:500000" json:"dailyTransactionLimit"`
	DailyTransactionAmount decimal.Decimal `gorm:"type:numeric(19,4);not null;default:0" json:"dailyTransactionAmount"`
	Transactions           []Transaction   `gorm:"foreignKey:AccountID" json:"-"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// RemainingDailyLimit is the outbound amount still allowed today.
func (a *Account) RemainingDailyLimit() decimal.Decimal {
	return a.DailyTransactionLimit.Sub(a.DailyTransactionAmount)
}

// AddTransaction appends a ledger entry owned by this account.
func (a *Account) AddTransaction(tx Transaction) {
	tx.AccountID = a.ID
	a.Transactions = append(a.Transactions, tx)
}

// Clone returns a deep copy, including the ledger entries.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Transactions != nil {
		cp.Transactions = make([]Transaction, len(a.Transactions))
		copy(cp.Transactions, a.Transactions)
	}
	return &cp
}
