package service_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

type TransactionService interface {
	GetTransaction(ctx context.Context, transactionID string) (domain.LedgerEntry, error)
	ListTransactions(ctx context.Context, accountNumber string) ([]domain.LedgerEntry, error)
	ListAllTransactions(ctx context.Context, limit int) ([]domain.LedgerEntry, error)
}
