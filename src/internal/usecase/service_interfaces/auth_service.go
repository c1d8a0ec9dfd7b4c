package service_interfaces

import "context"

type AuthService interface {
	VerifyPin(ctx context.Context, accountNumber string, pin string) (bool, error)
}
