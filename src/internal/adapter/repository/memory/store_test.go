package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*Store, domain.Account, domain.Account) {
	t.Helper()
	store := NewStore()
	alice := store.AddCustomer(domain.Customer{Name: "Alice", Email: "alice@example.com", Pin: "1234"})
	bob := store.AddCustomer(domain.Customer{Name: "Bob", Email: "bob@example.com", Pin: "4321"})
	sender := store.AddAccount(domain.Account{CustomerID: alice.ID, AccountNumber: "1000000001", Balance: decimal.NewFromInt(1000)})
	receiver := store.AddAccount(domain.Account{CustomerID: bob.ID, AccountNumber: "2000000002", Balance: decimal.NewFromInt(500)})
	return store, sender, receiver
}

func posting(sender, receiver domain.Account, amount int64) domain.TransferPosting {
	return domain.TransferPosting{
		SenderAccountNumber:   sender.AccountNumber,
		ReceiverAccountNumber: receiver.AccountNumber,
		Sender:                sender,
		Receiver:              receiver,
		Amount:                decimal.NewFromInt(amount),
		Mode:                  domain.ModeNEFT,
	}
}

func TestStoreAllocatesPrefixedIDs(t *testing.T) {
	store, sender, receiver := seed(t)
	assert.Equal(t, "ACC_000001", sender.ID)
	assert.Equal(t, "ACC_000002", receiver.ID)

	customer, err := store.Customers().GetByAccountNumber(context.Background(), "2000000002")
	require.NoError(t, err)
	assert.Equal(t, "CUST_000002", customer.ID)
}

func TestApplyTransferWritesPairAndBalances(t *testing.T) {
	store, sender, receiver := seed(t)
	ctx := context.Background()

	debit, err := store.Transactions().ApplyTransfer(ctx, posting(sender, receiver, 100))
	require.NoError(t, err)
	assert.Equal(t, "TXN_000001", debit.TransactionID)

	credit, err := store.Transactions().GetByID(ctx, "TXN_000002")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryCredited, credit.Type)
	assert.Equal(t, receiver.ID, credit.AccountID)
	assert.Equal(t, debit.TransactionTime, credit.TransactionTime)

	s, _ := store.Account("1000000001")
	r, _ := store.Account("2000000002")
	assert.True(t, s.Balance.Equal(decimal.NewFromInt(900)))
	assert.True(t, r.Balance.Equal(decimal.NewFromInt(600)))

	list, err := store.Transactions().ListByAccountNumber(ctx, "1000000001")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "TXN_000001", list[0].TransactionID)
}

func TestApplyTransferFaultLeavesStoreUntouched(t *testing.T) {
	store, sender, receiver := seed(t)
	boom := errors.New("crash after sender update")
	store.FailAt(StageAfterSenderUpdate, boom)

	_, err := store.Transactions().ApplyTransfer(context.Background(), posting(sender, receiver, 100))
	require.ErrorIs(t, err, boom)

	s, _ := store.Account("1000000001")
	r, _ := store.Account("2000000002")
	assert.True(t, s.Balance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, r.Balance.Equal(decimal.NewFromInt(500)))
	assert.Empty(t, store.Entries())
	assert.Equal(t, 1, store.ApplyCalls())
	assert.Equal(t, 0, store.Commits())
}

func TestApplyTransferRejectsStaleSnapshot(t *testing.T) {
	store, sender, receiver := seed(t)
	ctx := context.Background()

	_, err := store.Transactions().ApplyTransfer(ctx, posting(sender, receiver, 100))
	require.NoError(t, err)

	_, err = store.Transactions().ApplyTransfer(ctx, posting(sender, receiver, 100))
	require.Error(t, err)
	assert.ErrorIs(t, err, errStaleSnapshot)
	assert.Len(t, store.Entries(), 2)
}

func TestApplyTransferRejectsOverdraft(t *testing.T) {
	store, sender, receiver := seed(t)

	_, err := store.Transactions().ApplyTransfer(context.Background(), posting(sender, receiver, 1001))
	assert.ErrorIs(t, err, errNegativeBalance)
	assert.Equal(t, 0, store.Commits())
}

func TestListByCustomerIDNewestFirst(t *testing.T) {
	store, sender, _ := seed(t)
	second := store.AddAccount(domain.Account{
		CustomerID:    sender.CustomerID,
		AccountNumber: "1000000009",
		CreatedAt:     sender.CreatedAt.Add(1),
	})

	accounts, err := store.Accounts().ListByCustomerID(context.Background(), sender.CustomerID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, second.ID, accounts[0].ID)
}

func TestApplyTransferRejectsSubCentAmount(t *testing.T) {
	store, sender, receiver := seed(t)
	p := posting(sender, receiver, 0)
	p.Amount = decimal.RequireFromString("0.005")

	_, err := store.Transactions().ApplyTransfer(context.Background(), p)
	require.ErrorIs(t, err, errAmountScale)

	s, _ := store.Account("1000000001")
	r, _ := store.Account("2000000002")
	assert.True(t, s.Balance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, r.Balance.Equal(decimal.NewFromInt(500)))
	assert.Empty(t, store.Entries())
	assert.Equal(t, 0, store.Commits())
}
