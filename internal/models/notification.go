package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionNotification is the wire payload published for each party of a
// transfer.
type TransactionNotification struct {
	TransactionID   string          `json:"transactionId"`
	UserID          string          `json:"userId"`
	Message         string          `json:"message"`
	Timestamp       time.Time       `json:"timestamp"`
	TransactionType TransactionType `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	RecipientName   string          `json:"recipientName"`
	SenderName      string          `json:"senderName"`
	FailureReason   string          `json:"failureReason,omitempty"`
}
