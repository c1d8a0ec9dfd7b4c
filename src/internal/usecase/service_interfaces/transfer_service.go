package service_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

type TransferService interface {
	Transfer(ctx context.Context, req domain.TransferRequest) (domain.LedgerEntry, error)
}
