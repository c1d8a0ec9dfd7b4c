package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	senderNumber   = "1000000001"
	receiverNumber = "2000000002"
	senderPin      = "1234"
)

type ledgerFixture struct {
	store    *memory.Store
	notifier *notifierSpy
	metrics  *collectorSpy
	service  *services.TransferService
}

func newLedgerFixture(t *testing.T, senderBalance, receiverBalance string) *ledgerFixture {
	t.Helper()

	store := memory.NewStore()
	store.SetClock(func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) })

	alice := store.AddCustomer(domain.Customer{Name: "Alice", Email: "alice@example.com", Pin: senderPin})
	bob := store.AddCustomer(domain.Customer{Name: "Bob", Email: "bob@example.com", Pin: "9876"})
	store.AddAccount(domain.Account{CustomerID: alice.ID, AccountNumber: senderNumber, Balance: decimal.RequireFromString(senderBalance)})
	store.AddAccount(domain.Account{CustomerID: bob.ID, AccountNumber: receiverNumber, Balance: decimal.RequireFromString(receiverBalance)})

	return newFixtureFromStore(store)
}

func newFixtureFromStore(store *memory.Store) *ledgerFixture {
	notifier := &notifierSpy{}
	collector := &collectorSpy{}
	service := services.NewTransferService(
		services.NewAuthService(store.Customers()),
		store.Customers(),
		store.Accounts(),
		store.Transactions(),
		notifier,
		collector,
	)
	return &ledgerFixture{store: store, notifier: notifier, metrics: collector, service: service}
}

func (f *ledgerFixture) balance(t *testing.T, accountNumber string) decimal.Decimal {
	t.Helper()
	account, ok := f.store.Account(accountNumber)
	require.True(t, ok)
	return account.Balance
}

func transferRequest(amount string) domain.TransferRequest {
	return domain.TransferRequest{
		SenderAccountNumber:   senderNumber,
		SenderPin:             senderPin,
		ReceiverAccountNumber: receiverNumber,
		Amount:                decimal.RequireFromString(amount),
		Mode:                  domain.ModeUPI,
		Description:           "dinner split",
	}
}

func TestTransferServiceUPIScenario(t *testing.T) {
	f := newLedgerFixture(t, "1000.00", "500.00")

	entry, err := f.service.Transfer(context.Background(), transferRequest("100.00"))
	require.NoError(t, err)

	assert.Equal(t, "900.00", f.balance(t, senderNumber).StringFixed(2))
	assert.Equal(t, "600.00", f.balance(t, receiverNumber).StringFixed(2))

	assert.Equal(t, domain.EntryDebited, entry.Type)
	assert.Equal(t, senderNumber, entry.SenderAccountNumber)
	assert.Equal(t, receiverNumber, entry.ReceiverAccountNumber)

	entries := f.store.Entries()
	require.Len(t, entries, 2)
	debit, credit := entries[0], entries[1]

	n, err := domain.ParseIDSuffix("TXN_", debit.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatID("TXN_", n+1), credit.TransactionID)
	assert.Equal(t, entry.TransactionID, debit.TransactionID)

	assert.Equal(t, domain.EntryDebited, debit.Type)
	assert.Equal(t, domain.EntryCredited, credit.Type)
	assert.True(t, debit.Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, credit.Amount.Equal(debit.Amount))
	assert.Equal(t, domain.ModeUPI, credit.Mode)
	assert.Equal(t, debit.Description, credit.Description)
	assert.Equal(t, debit.TransactionTime, credit.TransactionTime)
	assert.Equal(t, []string{"success"}, f.metrics.outcomes)
}

func TestTransferServiceConservesBalance(t *testing.T) {
	f := newLedgerFixture(t, "750.25", "10.10")
	ctx := context.Background()

	before := f.balance(t, senderNumber).Add(f.balance(t, receiverNumber))
	for _, amount := range []string{"0.01", "100.00", "250.24", "400.00"} {
		_, err := f.service.Transfer(ctx, transferRequest(amount))
		require.NoError(t, err)
	}
	after := f.balance(t, senderNumber).Add(f.balance(t, receiverNumber))

	assert.True(t, before.Equal(after), "before %s after %s", before, after)
	assert.True(t, f.balance(t, senderNumber).IsZero())
}

func TestTransferServiceDoesNotDeduplicate(t *testing.T) {
	f := newLedgerFixture(t, "1000.00", "500.00")
	ctx := context.Background()

	first, err := f.service.Transfer(ctx, transferRequest("100.00"))
	require.NoError(t, err)
	second, err := f.service.Transfer(ctx, transferRequest("100.00"))
	require.NoError(t, err)

	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.Len(t, f.store.Entries(), 4)
	assert.Equal(t, "800.00", f.balance(t, senderNumber).StringFixed(2))
	assert.Equal(t, "700.00", f.balance(t, receiverNumber).StringFixed(2))
}

func TestTransferServiceRejectsWrongPin(t *testing.T) {
	f := newLedgerFixture(t, "1000.00", "500.00")

	req := transferRequest("100.00")
	req.SenderPin = "0000"
	_, err := f.service.Transfer(context.Background(), req)

	require.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	assert.Equal(t, "Invalid PIN. Transaction denied.", err.Error())
	assert.Equal(t, 0, f.store.ApplyCalls())
	assert.Empty(t, f.store.Entries())
	assert.Equal(t, "1000.00", f.balance(t, senderNumber).StringFixed(2))
	assert.Empty(t, f.notifier.notifications())
	assert.Equal(t, []string{"authentication_failed"}, f.metrics.outcomes)
}

func TestTransferServiceBoundaryAmount(t *testing.T) {
	f := newLedgerFixture(t, "1000.00", "500.00")

	_, err := f.service.Transfer(context.Background(), transferRequest("1000.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, "Insufficient balance. Available balance: 1000.00", err.Error())
	assert.Equal(t, 0, f.store.ApplyCalls())

	_, err = f.service.Transfer(context.Background(), transferRequest("1000.00"))
	require.NoError(t, err)
	assert.True(t, f.balance(t, senderNumber).IsZero())
	assert.Equal(t, "1500.00", f.balance(t, receiverNumber).StringFixed(2))
}

func TestTransferServiceRejectsNonPositiveAmount(t *testing.T) {
	f := newLedgerFixture(t, "1000.00", "500.00")

	for _, amount := range []string{"0", "-5.00"} {
		_, err := f.service.Transfer(context.Background(), transferRequest(amount))
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		assert.Equal(t, "Transaction amount must be greater than zero", err.Error())
	}
	assert.Equal(t, 0, f.store.ApplyCalls())
}

func TestTransferServiceRejectsSubCentAmount(t *testing.T) {
	f := newLedgerFixture(t, "10.00", "500.00")

	for _, amount := range []string{"0.005", "1.999"} {
		_, err := f.service.Transfer(context.Background(), transferRequest(amount))
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		assert.Equal(t, "Transaction amount must have at most 2 decimal places", err.Error())
	}
	assert.Equal(t, 0, f.store.ApplyCalls())
	assert.Equal(t, "10.00", f.balance(t, senderNumber).StringFixed(2))
	assert.Equal(t, "500.00", f.balance(t, receiverNumber).StringFixed(2))

	entry, err := f.service.Transfer(context.Background(), transferRequest("0.010"))
	require.NoError(t, err)
	assert.Equal(t, "0.01", entry.Amount.StringFixed(2))
	assert.True(t, f.balance(t, senderNumber).Equal(decimal.RequireFromString("9.99")))
	assert.True(t, f.balance(t, receiverNumber).Equal(decimal.RequireFromString("500.01")))
}

func TestTransferServiceRollsBackOnStoreFault(t *testing.T) {
	f := newLedgerFixture(t, "1000.00", "500.00")
	f.store.FailAt(memory.StageAfterSenderUpdate, errors.New("disk full"))

	_, err := f.service.Transfer(context.Background(), transferRequest("100.00"))
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.Contains(t, err.Error(), "Transaction failed: disk full")

	assert.Equal(t, "1000.00", f.balance(t, senderNumber).StringFixed(2))
	assert.Equal(t, "500.00", f.balance(t, receiverNumber).StringFixed(2))
	assert.Empty(t, f.store.Entries())
	assert.Empty(t, f.notifier.notifications())
}

func TestTransferServiceSameAccountMakesNoWrites(t *testing.T) {
	accounts := &accountRepoStub{
		listByCustomerIDFn: func(context.Context, string) ([]domain.Account, error) {
			return []domain.Account{{ID: "ACC_000001", AccountNumber: senderNumber, Status: domain.AccountStatusActive, Balance: decimal.NewFromInt(100)}}, nil
		},
	}
	transactions := &transactionRepoStub{}
	svc := services.NewTransferService(
		authServiceStub{},
		customerRepoStub{
			getByAccountNumberFn: func(context.Context, string) (domain.Customer, error) {
				return domain.Customer{ID: "CUST_000001"}, nil
			},
		},
		accounts,
		transactions,
		nil,
		nil,
	)

	req := transferRequest("10.00")
	req.ReceiverAccountNumber = req.SenderAccountNumber
	_, err := svc.Transfer(context.Background(), req)

	require.ErrorIs(t, err, domain.ErrSameAccount)
	assert.Equal(t, "Sender and receiver account numbers must be different", err.Error())
	assert.Equal(t, 0, transactions.applyCalls)
	assert.Equal(t, 0, accounts.getCalls)
}

func TestTransferServiceFundsFromAnyActiveAccount(t *testing.T) {
	f := newLedgerFixture(t, "5.00", "0.00")
	alice, err := f.store.Customers().GetByAccountNumber(context.Background(), senderNumber)
	require.NoError(t, err)

	sender, _ := f.store.Account(senderNumber)
	savings := f.store.AddAccount(domain.Account{
		CustomerID:    alice.ID,
		AccountNumber: "1000000077",
		Balance:       decimal.NewFromInt(300),
		CreatedAt:     sender.CreatedAt.Add(time.Hour),
	})

	entry, err := f.service.Transfer(context.Background(), transferRequest("200.00"))
	require.NoError(t, err)

	assert.Equal(t, savings.ID, entry.AccountID)
	assert.Equal(t, senderNumber, entry.SenderAccountNumber)
	assert.Equal(t, "100.00", f.balance(t, "1000000077").StringFixed(2))
	assert.Equal(t, "5.00", f.balance(t, senderNumber).StringFixed(2))
}

func TestTransferServiceRejectsFundingAccountAsReceiver(t *testing.T) {
	f := newLedgerFixture(t, "50.00", "0.00")
	alice, err := f.store.Customers().GetByAccountNumber(context.Background(), senderNumber)
	require.NoError(t, err)

	sender, _ := f.store.Account(senderNumber)
	f.store.AddAccount(domain.Account{
		CustomerID:    alice.ID,
		AccountNumber: "1000000077",
		Balance:       decimal.NewFromInt(300),
		CreatedAt:     sender.CreatedAt.Add(time.Hour),
	})

	req := transferRequest("10.00")
	req.ReceiverAccountNumber = "1000000077"
	_, err = f.service.Transfer(context.Background(), req)

	require.ErrorIs(t, err, domain.ErrSameAccount)
	assert.Equal(t, 0, f.store.ApplyCalls())
}

func TestTransferServiceValidationOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown receiver account", func(t *testing.T) {
		f := newLedgerFixture(t, "10.00", "0.00")
		req := transferRequest("1.00")
		req.ReceiverAccountNumber = "3000000003"

		_, err := f.service.Transfer(ctx, req)
		require.ErrorIs(t, err, &domain.TransferError{Kind: domain.KindNotFound, Entity: domain.EntityReceiverAccount})
		assert.Equal(t, "Receiver account not found: 3000000003", err.Error())
	})

	t.Run("receiver without customer", func(t *testing.T) {
		f := newLedgerFixture(t, "10.00", "0.00")
		f.store.AddAccount(domain.Account{CustomerID: "CUST_999999", AccountNumber: "3000000003"})
		req := transferRequest("1.00")
		req.ReceiverAccountNumber = "3000000003"

		_, err := f.service.Transfer(ctx, req)
		require.ErrorIs(t, err, &domain.TransferError{Kind: domain.KindNotFound, Entity: domain.EntityReceiverCustomer})
		assert.Equal(t, "Receiver customer not found", err.Error())
	})

	t.Run("inactive receiver", func(t *testing.T) {
		f := newLedgerFixture(t, "10.00", "0.00")
		receiver, _ := f.store.Account(receiverNumber)
		receiver.Status = domain.AccountStatusBlocked
		f.store.AddAccount(receiver)

		_, err := f.service.Transfer(ctx, transferRequest("1.00"))
		require.ErrorIs(t, err, &domain.TransferError{Kind: domain.KindInactiveAccount, Side: domain.SideReceiver})
		assert.Equal(t, "Receiver account is not active", err.Error())
	})

	t.Run("no active sender account", func(t *testing.T) {
		f := newLedgerFixture(t, "10.00", "0.00")
		sender, _ := f.store.Account(senderNumber)
		sender.Status = "SUSPENDED"
		f.store.AddAccount(sender)

		_, err := f.service.Transfer(ctx, transferRequest("1.00"))
		require.ErrorIs(t, err, domain.ErrNoActiveAccount)
		assert.Equal(t, "No active account found for sender", err.Error())
	})

	t.Run("pin checked before anything else", func(t *testing.T) {
		f := newLedgerFixture(t, "10.00", "0.00")
		req := transferRequest("-1.00")
		req.ReceiverAccountNumber = senderNumber
		req.SenderPin = "1111"

		_, err := f.service.Transfer(ctx, req)
		require.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	})
}

func TestTransferServiceLookupFailures(t *testing.T) {
	storeErr := errors.New("connection refused")

	t.Run("sender customer missing", func(t *testing.T) {
		svc := services.NewTransferService(authServiceStub{}, customerRepoStub{}, &accountRepoStub{}, &transactionRepoStub{}, nil, nil)
		_, err := svc.Transfer(context.Background(), transferRequest("1.00"))
		require.ErrorIs(t, err, &domain.TransferError{Kind: domain.KindNotFound, Entity: domain.EntitySenderCustomer})
		assert.Equal(t, "Sender customer not found with Account Number: "+senderNumber, err.Error())
	})

	t.Run("customer without accounts", func(t *testing.T) {
		svc := services.NewTransferService(
			authServiceStub{},
			customerRepoStub{getByAccountNumberFn: func(context.Context, string) (domain.Customer, error) {
				return domain.Customer{ID: "CUST_000001"}, nil
			}},
			&accountRepoStub{},
			&transactionRepoStub{},
			nil,
			nil,
		)
		_, err := svc.Transfer(context.Background(), transferRequest("1.00"))
		require.ErrorIs(t, err, domain.ErrNoAccounts)
		assert.Equal(t, "No accounts found for sender", err.Error())
	})

	t.Run("receiver customer resolved by customer id", func(t *testing.T) {
		var requestedID string
		svc := services.NewTransferService(
			authServiceStub{},
			customerRepoStub{
				getByAccountNumberFn: func(context.Context, string) (domain.Customer, error) {
					return domain.Customer{ID: "CUST_000001"}, nil
				},
				getByIDFn: func(_ context.Context, customerID string) (domain.Customer, error) {
					requestedID = customerID
					return domain.Customer{}, storeErr
				},
			},
			&accountRepoStub{
				listByCustomerIDFn: func(context.Context, string) ([]domain.Account, error) {
					return []domain.Account{{ID: "ACC_000001", CustomerID: "CUST_000001", AccountNumber: senderNumber, Balance: decimal.NewFromInt(10), Status: domain.AccountStatusActive}}, nil
				},
				getByAccountNumberFn: func(context.Context, string) (domain.Account, error) {
					return domain.Account{ID: "ACC_000002", CustomerID: "CUST_000007", AccountNumber: receiverNumber, Status: domain.AccountStatusActive}, nil
				},
			},
			&transactionRepoStub{},
			nil,
			nil,
		)
		_, err := svc.Transfer(context.Background(), transferRequest("1.00"))
		require.ErrorIs(t, err, domain.ErrTransferFailed)
		assert.ErrorIs(t, err, storeErr)
		assert.Equal(t, "CUST_000007", requestedID)
	})

	t.Run("pin store failure", func(t *testing.T) {
		svc := services.NewTransferService(
			authServiceStub{verifyPinFn: func(context.Context, string, string) (bool, error) { return false, storeErr }},
			customerRepoStub{},
			&accountRepoStub{},
			&transactionRepoStub{},
			nil,
			nil,
		)
		_, err := svc.Transfer(context.Background(), transferRequest("1.00"))
		require.ErrorIs(t, err, domain.ErrTransferFailed)
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestTransferServiceHonoursCancellationBeforeCommit(t *testing.T) {
	f := newLedgerFixture(t, "1000.00", "500.00")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Transfer(ctx, transferRequest("100.00"))
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.store.ApplyCalls())
}

func TestTransferServiceRunsAtomicUnitWithoutCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transactions := &transactionRepoStub{
		applyTransferFn: func(unitCtx context.Context, posting domain.TransferPosting) (domain.LedgerEntry, error) {
			cancel()
			if unitCtx.Err() != nil {
				return domain.LedgerEntry{}, unitCtx.Err()
			}
			return domain.LedgerEntry{TransactionID: "TXN_000001", Type: domain.EntryDebited, Amount: posting.Amount}, nil
		},
	}
	svc := services.NewTransferService(
		authServiceStub{},
		customerRepoStub{getByAccountNumberFn: func(_ context.Context, accountNumber string) (domain.Customer, error) {
			return domain.Customer{ID: "CUST_" + accountNumber}, nil
		}},
		&accountRepoStub{
			listByCustomerIDFn: func(context.Context, string) ([]domain.Account, error) {
				return []domain.Account{{ID: "ACC_000001", Status: domain.AccountStatusActive, Balance: decimal.NewFromInt(50)}}, nil
			},
			getByAccountNumberFn: func(context.Context, string) (domain.Account, error) {
				return domain.Account{ID: "ACC_000002", Status: domain.AccountStatusActive}, nil
			},
		},
		transactions,
		nil,
		nil,
	)

	entry, err := svc.Transfer(ctx, transferRequest("10.00"))
	require.NoError(t, err)
	assert.Equal(t, "TXN_000001", entry.TransactionID)
	assert.Equal(t, 1, transactions.applyCalls)
}

func TestTransferServiceNotifiesBothPartiesAndIgnoresFailures(t *testing.T) {
	f := newLedgerFixture(t, "1000.00", "500.00")
	f.notifier.errFn = func(domain.TransferNotification) error { return errors.New("smtp down") }

	entry, err := f.service.Transfer(context.Background(), transferRequest("100.00"))
	require.NoError(t, err)
	assert.Equal(t, "900.00", f.balance(t, senderNumber).StringFixed(2))

	sent := f.notifier.notifications()
	require.Len(t, sent, 2)

	assert.Equal(t, domain.EntryDebited, sent[0].Direction)
	assert.Equal(t, "alice@example.com", sent[0].RecipientEmail)
	assert.Equal(t, "Bob", sent[0].CounterpartyName)
	assert.Equal(t, receiverNumber, sent[0].CounterpartyAccountNumber)

	assert.Equal(t, domain.EntryCredited, sent[1].Direction)
	assert.Equal(t, "bob@example.com", sent[1].RecipientEmail)
	assert.Equal(t, "Alice", sent[1].CounterpartyName)
	assert.Equal(t, senderNumber, sent[1].CounterpartyAccountNumber)

	for _, n := range sent {
		assert.Equal(t, entry.TransactionID, n.TransactionID)
		assert.Equal(t, entry.TransactionTime, n.Timestamp)
		assert.True(t, n.Amount.Equal(entry.Amount))
	}
}

func TestTransferServiceConcurrentTransfersNeverShareIDs(t *testing.T) {
	store := memory.NewStore()
	const pairs = 16
	for i := 0; i < pairs; i++ {
		from := store.AddCustomer(domain.Customer{Name: fmt.Sprintf("from-%d", i), Pin: senderPin})
		to := store.AddCustomer(domain.Customer{Name: fmt.Sprintf("to-%d", i), Pin: senderPin})
		store.AddAccount(domain.Account{CustomerID: from.ID, AccountNumber: fmt.Sprintf("10000000%02d", i), Balance: decimal.NewFromInt(100)})
		store.AddAccount(domain.Account{CustomerID: to.ID, AccountNumber: fmt.Sprintf("20000000%02d", i), Balance: decimal.Zero})
	}
	f := newFixtureFromStore(store)

	var wg sync.WaitGroup
	errs := make(chan error, pairs)
	for i := 0; i < pairs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.Transfer(context.Background(), domain.TransferRequest{
				SenderAccountNumber:   fmt.Sprintf("10000000%02d", i),
				SenderPin:             senderPin,
				ReceiverAccountNumber: fmt.Sprintf("20000000%02d", i),
				Amount:                decimal.NewFromInt(40),
				Mode:                  domain.ModeRTGS,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	entries := store.Entries()
	require.Len(t, entries, 2*pairs)
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		_, dup := seen[entry.TransactionID]
		assert.False(t, dup, "duplicate id %s", entry.TransactionID)
		seen[entry.TransactionID] = struct{}{}
	}
}
