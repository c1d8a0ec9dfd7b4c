package domain

import "context"

type AccountRepository interface {
	GetByAccountNumber(ctx context.Context, accountNumber string) (Account, error)
	ListByCustomerID(ctx context.Context, customerID string) ([]Account, error)
}
