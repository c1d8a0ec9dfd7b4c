package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/metrics"
)

type customerRepoStub struct {
	getByIDFn               func(ctx context.Context, customerID string) (domain.Customer, error)
	getByAccountNumberFn    func(ctx context.Context, accountNumber string) (domain.Customer, error)
	getPinByAccountNumberFn func(ctx context.Context, accountNumber string) (string, error)
}

func (s customerRepoStub) GetByID(ctx context.Context, customerID string) (domain.Customer, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, customerID)
	}
	return domain.Customer{}, domain.ErrRecordNotFound
}

func (s customerRepoStub) GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Customer, error) {
	if s.getByAccountNumberFn != nil {
		return s.getByAccountNumberFn(ctx, accountNumber)
	}
	return domain.Customer{}, domain.ErrRecordNotFound
}

func (s customerRepoStub) GetPinByAccountNumber(ctx context.Context, accountNumber string) (string, error) {
	if s.getPinByAccountNumberFn != nil {
		return s.getPinByAccountNumberFn(ctx, accountNumber)
	}
	return "", domain.ErrRecordNotFound
}

type accountRepoStub struct {
	mu                   sync.Mutex
	getCalls             int
	getByAccountNumberFn func(ctx context.Context, accountNumber string) (domain.Account, error)
	listByCustomerIDFn   func(ctx context.Context, customerID string) ([]domain.Account, error)
}

func (s *accountRepoStub) GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	s.mu.Lock()
	s.getCalls++
	s.mu.Unlock()
	if s.getByAccountNumberFn != nil {
		return s.getByAccountNumberFn(ctx, accountNumber)
	}
	return domain.Account{}, domain.ErrRecordNotFound
}

func (s *accountRepoStub) ListByCustomerID(ctx context.Context, customerID string) ([]domain.Account, error) {
	if s.listByCustomerIDFn != nil {
		return s.listByCustomerIDFn(ctx, customerID)
	}
	return nil, nil
}

type transactionRepoStub struct {
	mu              sync.Mutex
	applyCalls      int
	applyTransferFn func(ctx context.Context, posting domain.TransferPosting) (domain.LedgerEntry, error)
	listAllFn       func(ctx context.Context, limit int) ([]domain.LedgerEntry, error)
}

func (s *transactionRepoStub) ApplyTransfer(ctx context.Context, posting domain.TransferPosting) (domain.LedgerEntry, error) {
	s.mu.Lock()
	s.applyCalls++
	s.mu.Unlock()
	if s.applyTransferFn != nil {
		return s.applyTransferFn(ctx, posting)
	}
	return domain.LedgerEntry{}, nil
}

func (s *transactionRepoStub) GetByID(context.Context, string) (domain.LedgerEntry, error) {
	return domain.LedgerEntry{}, domain.ErrRecordNotFound
}

func (s *transactionRepoStub) ListByAccountNumber(context.Context, string) ([]domain.LedgerEntry, error) {
	return nil, nil
}

func (s *transactionRepoStub) ListAll(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx, limit)
	}
	return nil, nil
}

type authServiceStub struct {
	verifyPinFn func(ctx context.Context, accountNumber string, pin string) (bool, error)
}

func (s authServiceStub) VerifyPin(ctx context.Context, accountNumber string, pin string) (bool, error) {
	if s.verifyPinFn != nil {
		return s.verifyPinFn(ctx, accountNumber, pin)
	}
	return true, nil
}

type notifierSpy struct {
	mu    sync.Mutex
	sent  []domain.TransferNotification
	errFn func(domain.TransferNotification) error
}

func (s *notifierSpy) Notify(_ context.Context, n domain.TransferNotification) error {
	s.mu.Lock()
	s.sent = append(s.sent, n)
	s.mu.Unlock()
	if s.errFn != nil {
		return s.errFn(n)
	}
	return nil
}

func (s *notifierSpy) notifications() []domain.TransferNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TransferNotification, len(s.sent))
	copy(out, s.sent)
	return out
}

type collectorSpy struct {
	mu       sync.Mutex
	outcomes []string
}

func (c *collectorSpy) RecordTransfer(outcome string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func (c *collectorSpy) RecordNotification(bool, time.Duration) {}
func (c *collectorSpy) RecordNotificationDropped() {}
func (c *collectorSpy) RecordNotificationQueueDepth(int) {}
func (c *collectorSpy) RecordCircuitState(metrics.CircuitState) {}
