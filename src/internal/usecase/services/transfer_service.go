package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/metrics"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

type TransferService struct {
	authService     service_interfaces.AuthService
	customerRepo    domain.CustomerRepository
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	notifier        domain.Notifier
	metrics         metrics.Collector
}

func NewTransferService(
	authService service_interfaces.AuthService,
	customerRepo domain.CustomerRepository,
	accountRepo domain.AccountRepository,
	transactionRepo domain.TransactionRepository,
	notifier domain.Notifier,
	collector metrics.Collector,
) *TransferService {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &TransferService{
		authService:     authService,
		customerRepo:    customerRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		notifier:        notifier,
		metrics:         collector,
	}
}

// Transfer validates req, applies it as one atomic unit and returns the
// DEBITED entry. Every failure is a *domain.TransferError. Notifications are
// sent after commit and never change the result.
func (s *TransferService) Transfer(ctx context.Context, req domain.TransferRequest) (domain.LedgerEntry, error) {
	logger.Info("transfer service transfer request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	start := time.Now()
	entry, err := s.transfer(ctx, req)
	s.metrics.RecordTransfer(transferOutcome(err), time.Since(start))

	if err != nil {
		logger.Error("transfer service transfer failed", err, logger.Fields{
			"senderAccountNumber":   req.SenderAccountNumber,
			"receiverAccountNumber": req.ReceiverAccountNumber,
			"kind":                  string(domain.KindOf(err)),
		})
		return domain.LedgerEntry{}, err
	}

	logger.Info("transfer service transfer success", logger.Fields{
		"transactionId": entry.TransactionID,
		"amount":        entry.Amount.StringFixed(2),
	})
	return entry, nil
}

func (s *TransferService) transfer(ctx context.Context, req domain.TransferRequest) (domain.LedgerEntry, error) {
	ok, err := s.authService.VerifyPin(ctx, req.SenderAccountNumber, req.SenderPin)
	if err != nil {
		return domain.LedgerEntry{}, domain.TransferFailed(err)
	}
	if !ok {
		return domain.LedgerEntry{}, domain.AuthenticationFailed()
	}

	senderCustomer, err := s.customerRepo.GetByAccountNumber(ctx, req.SenderAccountNumber)
	if err != nil {
		return domain.LedgerEntry{}, lookupError(err, domain.EntitySenderCustomer, req.SenderAccountNumber)
	}

	accounts, err := s.accountRepo.ListByCustomerID(ctx, senderCustomer.ID)
	if err != nil {
		return domain.LedgerEntry{}, domain.TransferFailed(err)
	}
	if len(accounts) == 0 {
		return domain.LedgerEntry{}, domain.NoAccounts()
	}
	// Any active account of the authenticated customer funds the transfer,
	// not necessarily the one used for the PIN check.
	funding, ok := domain.FirstActive(accounts)
	if !ok {
		return domain.LedgerEntry{}, domain.NoActiveAccount()
	}

	if req.SenderAccountNumber == req.ReceiverAccountNumber {
		return domain.LedgerEntry{}, domain.SameAccount()
	}

	receiver, err := s.accountRepo.GetByAccountNumber(ctx, req.ReceiverAccountNumber)
	if err != nil {
		return domain.LedgerEntry{}, lookupError(err, domain.EntityReceiverAccount, req.ReceiverAccountNumber)
	}
	if receiver.ID == funding.ID {
		return domain.LedgerEntry{}, domain.SameAccount()
	}

	receiverCustomer, err := s.customerRepo.GetByID(ctx, receiver.CustomerID)
	if err != nil {
		return domain.LedgerEntry{}, lookupError(err, domain.EntityReceiverCustomer, receiver.CustomerID)
	}

	if !funding.Status.IsActive() {
		return domain.LedgerEntry{}, domain.InactiveAccount(domain.SideSender)
	}
	if !receiver.Status.IsActive() {
		return domain.LedgerEntry{}, domain.InactiveAccount(domain.SideReceiver)
	}

	if funding.Balance.LessThan(req.Amount) {
		return domain.LedgerEntry{}, domain.InsufficientFunds(funding.Balance)
	}
	if !req.Amount.IsPositive() {
		return domain.LedgerEntry{}, domain.InvalidAmount()
	}
	if !domain.HasCentPrecision(req.Amount) {
		return domain.LedgerEntry{}, domain.AmountPrecision()
	}

	// Last point at which the caller may abandon the request.
	if err := ctx.Err(); err != nil {
		return domain.LedgerEntry{}, domain.TransferFailed(err)
	}

	entry, err := s.transactionRepo.ApplyTransfer(context.WithoutCancel(ctx), domain.TransferPosting{
		SenderAccountNumber:   req.SenderAccountNumber,
		ReceiverAccountNumber: req.ReceiverAccountNumber,
		Sender:                funding,
		Receiver:              receiver,
		Amount:                req.Amount,
		Mode:                  req.Mode,
		Description:           req.Description,
	})
	if err != nil {
		return domain.LedgerEntry{}, domain.TransferFailed(err)
	}

	s.notify(ctx, entry, senderCustomer, receiverCustomer)

	return entry, nil
}

// notify hands both alerts to the notifier. Failures are logged only.
func (s *TransferService) notify(ctx context.Context, entry domain.LedgerEntry, sender domain.Customer, receiver domain.Customer) {
	if s.notifier == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	notifications := []domain.TransferNotification{
		{
			Direction:                 domain.EntryDebited,
			RecipientEmail:            sender.Email,
			RecipientName:             sender.Name,
			CounterpartyName:          receiver.Name,
			CounterpartyAccountNumber: entry.ReceiverAccountNumber,
			Amount:                    entry.Amount,
			TransactionID:             entry.TransactionID,
			Timestamp:                 entry.TransactionTime,
			Mode:                      entry.Mode,
			Description:               entry.Description,
		},
		{
			Direction:                 domain.EntryCredited,
			RecipientEmail:            receiver.Email,
			RecipientName:             receiver.Name,
			CounterpartyName:          sender.Name,
			CounterpartyAccountNumber: entry.SenderAccountNumber,
			Amount:                    entry.Amount,
			TransactionID:             entry.TransactionID,
			Timestamp:                 entry.TransactionTime,
			Mode:                      entry.Mode,
			Description:               entry.Description,
		},
	}

	for _, n := range notifications {
		if err := s.notifier.Notify(ctx, n); err != nil {
			logger.Error("transfer service notification failed", err, logger.Fields{
				"transactionId": entry.TransactionID,
				"direction":     string(n.Direction),
			})
		}
	}
}

func lookupError(err error, entity domain.Entity, key string) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.NotFound(entity, key)
	}
	return domain.TransferFailed(fmt.Errorf("lookup %s: %w", entity, err))
}

func transferOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind := domain.KindOf(err); kind != "" {
		return strings.ToLower(string(kind))
	}
	return "error"
}
