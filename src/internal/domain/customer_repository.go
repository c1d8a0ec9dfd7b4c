package domain

import "context"

type CustomerRepository interface {
	GetByID(ctx context.Context, customerID string) (Customer, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (Customer, error)
	// GetPinByAccountNumber returns the stored PIN of the customer owning the account.
	GetPinByAccountNumber(ctx context.Context, accountNumber string) (string, error)
}
