package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

type TransactionService struct {
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
}

func NewTransactionService(accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository) *TransactionService {
	return &TransactionService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

func (s *TransactionService) GetTransaction(ctx context.Context, transactionID string) (domain.LedgerEntry, error) {
	logger.Info("transaction service get transaction request", logger.Fields{
		"transactionId": transactionID,
	})

	entry, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.LedgerEntry{}, domain.NotFound(domain.EntityTransaction, transactionID)
		}
		logger.Error("transaction service get transaction failed", err, logger.Fields{
			"transactionId": transactionID,
		})
		return domain.LedgerEntry{}, fmt.Errorf("get transaction: %w", err)
	}

	return entry, nil
}

// ListTransactions returns the ledger history of an account, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, accountNumber string) ([]domain.LedgerEntry, error) {
	logger.Info("transaction service list transactions request", logger.Fields{
		"accountNumber": accountNumber,
	})

	if _, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NotFound(domain.EntityAccount, accountNumber)
		}
		logger.Error("transaction service account lookup failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return nil, fmt.Errorf("get account: %w", err)
	}

	entries, err := s.transactionRepo.ListByAccountNumber(ctx, accountNumber)
	if err != nil {
		logger.Error("transaction service list transactions failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return entries, nil
}

// ListAllTransactions returns the most recent entries across all accounts.
// A non-positive limit means DefaultListLimit; larger limits are capped at MaxListLimit.
func (s *TransactionService) ListAllTransactions(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	logger.Info("transaction service list all transactions request", logger.Fields{
		"limit": limit,
	})

	entries, err := s.transactionRepo.ListAll(ctx, limit)
	if err != nil {
		logger.Error("transaction service list all transactions failed", err, logger.Fields{
			"limit": limit,
		})
		return nil, fmt.Errorf("list all transactions: %w", err)
	}

	return entries, nil
}
