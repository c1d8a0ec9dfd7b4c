package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	customerRepo domain.CustomerRepository
}

func NewAuthService(customerRepo domain.CustomerRepository) *AuthService {
	return &AuthService{customerRepo: customerRepo}
}

// VerifyPin checks pin against the PIN of the customer owning accountNumber.
// An unknown account or customer is a mismatch, not an error; only store
// failures are returned as errors.
func (s *AuthService) VerifyPin(ctx context.Context, accountNumber string, pin string) (bool, error) {
	logger.Info("auth service verify pin request", logger.Fields{
		"accountNumber": accountNumber,
	})

	storedPin, err := s.customerRepo.GetPinByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Info("auth service verify pin customer not found", logger.Fields{
				"accountNumber": accountNumber,
			})
			return false, nil
		}
		logger.Error("auth service verify pin lookup failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return false, fmt.Errorf("lookup customer pin: %w", err)
	}

	if !isBcryptHash(storedPin) {
		return subtle.ConstantTimeCompare([]byte(storedPin), []byte(pin)) == 1, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedPin), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Info("auth service verify pin mismatch", logger.Fields{
				"accountNumber": accountNumber,
			})
			return false, nil
		}
		wrappedErr := fmt.Errorf("verify customer pin: %w", err)
		logger.Error("auth service verify pin compare failed", wrappedErr, logger.Fields{
			"accountNumber": accountNumber,
		})
		return false, wrappedErr
	}

	return true, nil
}

func isBcryptHash(value string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
