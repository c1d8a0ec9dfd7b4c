package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// TransferPosting carries everything the store needs to apply one transfer.
// Sender and Receiver are the snapshots read during validation; the store
// re-checks them before writing.
type TransferPosting struct {
	SenderAccountNumber   string
	ReceiverAccountNumber string
	Sender                Account
	Receiver              Account
	Amount                decimal.Decimal
	Mode                  TransactionMode
	Description           string
}

type TransactionRepository interface {
	// ApplyTransfer debits the sender, credits the receiver and writes the
	// DEBITED/CREDITED pair as one all-or-nothing unit. It returns the DEBITED entry.
	ApplyTransfer(ctx context.Context, posting TransferPosting) (LedgerEntry, error)
	GetByID(ctx context.Context, transactionID string) (LedgerEntry, error)
	ListByAccountNumber(ctx context.Context, accountNumber string) ([]LedgerEntry, error)
	// ListAll returns up to limit entries across every account, newest first.
	ListAll(ctx context.Context, limit int) ([]LedgerEntry, error)
}
