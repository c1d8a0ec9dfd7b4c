package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransferNotification is the alert sent to one party of a committed transfer.
type TransferNotification struct {
	Direction                 EntryType
	RecipientEmail            string
	RecipientName             string
	CounterpartyName          string
	CounterpartyAccountNumber string
	Amount                    decimal.Decimal
	TransactionID             string
	Timestamp                 time.Time
	Mode                      TransactionMode
	Description               string
}

// Notifier delivers transfer alerts. Callers treat every error as advisory.
type Notifier interface {
	Notify(ctx context.Context, notification TransferNotification) error
}
