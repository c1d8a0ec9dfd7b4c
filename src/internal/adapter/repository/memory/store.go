// Package memory is an in-process ledger store with the same contract as the
// postgres repositories. Service and controller tests run against it; it adds
// fault injection and call counters the postgres store does not have.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	errStaleSnapshot    = errors.New("account changed since it was read")
	errNegativeBalance  = errors.New("balance check violated")
	errNonPositiveEntry = errors.New("transaction amount check violated")
	errAmountScale      = errors.New("amount has more than 2 decimal places")
)

// Stage names a point inside ApplyTransfer where a fault can be injected.
type Stage int

const (
	StageBeforeWrite Stage = iota
	StageAfterSenderUpdate
	StageAfterReceiverUpdate
	StageAfterDebitInsert
)

type Store struct {
	mu sync.RWMutex

	customers    map[string]domain.Customer
	accounts     map[string]domain.Account
	accountOrder []string
	transactions []domain.LedgerEntry

	now    func() time.Time
	faults map[Stage]error

	applyCalls int
	commits    int
}

func NewStore() *Store {
	return &Store{
		customers: make(map[string]domain.Customer),
		accounts:  make(map[string]domain.Account),
		now:       time.Now,
		faults:    make(map[Stage]error),
	}
}

// SetClock replaces the time source used for ledger timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailAt makes the next ApplyTransfer fail with err once it reaches stage.
func (s *Store) FailAt(stage Stage, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[stage] = err
}

// AddCustomer stores c, allocating a CUST_ id when c.ID is empty.
func (s *Store) AddCustomer(c domain.Customer) domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = domain.FormatID(domain.ResourceCustomers.Prefix, s.nextCustomerID())
	}
	if c.Status == "" {
		c.Status = string(domain.AccountStatusActive)
	}
	s.customers[c.ID] = c
	return c
}

// AddAccount stores a, allocating an ACC_ id when a.ID is empty.
func (s *Store) AddAccount(a domain.Account) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = domain.FormatID(domain.ResourceAccounts.Prefix, len(s.accountOrder)+1)
	}
	if a.Status == "" {
		a.Status = domain.AccountStatusActive
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	if a.ModifiedAt.IsZero() {
		a.ModifiedAt = a.CreatedAt
	}
	if _, exists := s.accounts[a.AccountNumber]; !exists {
		s.accountOrder = append(s.accountOrder, a.AccountNumber)
	}
	s.accounts[a.AccountNumber] = a
	return a
}

// Account returns the current state of an account, for assertions.
func (s *Store) Account(accountNumber string) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountNumber]
	return a, ok
}

// Entries returns a copy of every ledger row in insertion order.
func (s *Store) Entries() []domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LedgerEntry, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// ApplyCalls counts ApplyTransfer invocations, committed or not.
func (s *Store) ApplyCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applyCalls
}

// Commits counts transfers that were applied.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{store: s}
}

func (s *Store) Customers() *CustomerRepository {
	return &CustomerRepository{store: s}
}

func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{store: s}
}

func (s *Store) nextCustomerID() int {
	highest := 0
	for id := range s.customers {
		if n, err := domain.ParseIDSuffix(domain.ResourceCustomers.Prefix, id); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

func (s *Store) nextTransactionID() (int, error) {
	highest := 0
	for _, entry := range s.transactions {
		n, err := domain.ParseIDSuffix(domain.ResourceTransactions.Prefix, entry.TransactionID)
		if err != nil {
			return 0, domain.AllocationFailed(domain.ResourceTransactions, err)
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

func (s *Store) fault(stage Stage) error {
	err, ok := s.faults[stage]
	if !ok {
		return nil
	}
	delete(s.faults, stage)
	return err
}

type AccountRepository struct {
	store *Store
}

func (r *AccountRepository) GetByAccountNumber(_ context.Context, accountNumber string) (domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[accountNumber]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}
	return account, nil
}

// ListByCustomerID returns the customer's accounts, newest first.
func (r *AccountRepository) ListByCustomerID(_ context.Context, customerID string) ([]domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var accounts []domain.Account
	for i := len(r.store.accountOrder) - 1; i >= 0; i-- {
		account := r.store.accounts[r.store.accountOrder[i]]
		if account.CustomerID == customerID {
			accounts = append(accounts, account)
		}
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

type CustomerRepository struct {
	store *Store
}

func (r *CustomerRepository) GetByID(_ context.Context, customerID string) (domain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	customer, ok := r.store.customers[customerID]
	if !ok {
		return domain.Customer{}, domain.ErrRecordNotFound
	}
	return customer, nil
}

func (r *CustomerRepository) GetByAccountNumber(_ context.Context, accountNumber string) (domain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[accountNumber]
	if !ok {
		return domain.Customer{}, domain.ErrRecordNotFound
	}
	customer, ok := r.store.customers[account.CustomerID]
	if !ok {
		return domain.Customer{}, domain.ErrRecordNotFound
	}
	return customer, nil
}

func (r *CustomerRepository) GetPinByAccountNumber(ctx context.Context, accountNumber string) (string, error) {
	customer, err := r.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return "", err
	}
	if customer.Pin == "" {
		return "", domain.ErrRecordNotFound
	}
	return customer.Pin, nil
}

type TransactionRepository struct {
	store *Store
}

// ApplyTransfer mirrors the postgres unit: every change is made on copies and
// swapped in only when all steps succeed, so a failure leaves the store untouched.
func (r *TransactionRepository) ApplyTransfer(_ context.Context, posting domain.TransferPosting) (domain.LedgerEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyCalls++

	if err := s.fault(StageBeforeWrite); err != nil {
		return domain.LedgerEntry{}, err
	}
	if !domain.HasCentPrecision(posting.Amount) {
		return domain.LedgerEntry{}, errAmountScale
	}

	baseID, err := s.nextTransactionID()
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	now := s.now().UTC().Truncate(time.Microsecond)

	pending := make(map[string]domain.Account, 2)

	if err := s.guardedUpdate(pending, posting.Sender, posting.Sender.Balance.Sub(posting.Amount), now); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("Failed to update sender account balance: %w", err)
	}
	if err := s.fault(StageAfterSenderUpdate); err != nil {
		return domain.LedgerEntry{}, err
	}

	if err := s.guardedUpdate(pending, posting.Receiver, posting.Receiver.Balance.Add(posting.Amount), now); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("Failed to update receiver account balance: %w", err)
	}
	if err := s.fault(StageAfterReceiverUpdate); err != nil {
		return domain.LedgerEntry{}, err
	}

	if !posting.Amount.IsPositive() {
		return domain.LedgerEntry{}, fmt.Errorf("Failed to create debit transaction: %w", errNonPositiveEntry)
	}
	debit := domain.LedgerEntry{
		TransactionID:         domain.FormatID(domain.ResourceTransactions.Prefix, baseID),
		AccountID:             posting.Sender.ID,
		Amount:                posting.Amount,
		Type:                  domain.EntryDebited,
		Mode:                  posting.Mode,
		SenderAccountNumber:   posting.SenderAccountNumber,
		ReceiverAccountNumber: posting.ReceiverAccountNumber,
		Description:           posting.Description,
		TransactionTime:       now,
	}
	if err := s.fault(StageAfterDebitInsert); err != nil {
		return domain.LedgerEntry{}, err
	}
	credit := debit
	credit.TransactionID = domain.FormatID(domain.ResourceTransactions.Prefix, baseID+1)
	credit.AccountID = posting.Receiver.ID
	credit.Type = domain.EntryCredited

	for _, account := range pending {
		s.accounts[account.AccountNumber] = account
	}
	s.transactions = append(s.transactions, debit, credit)
	s.commits++

	return debit, nil
}

func (r *TransactionRepository) GetByID(_ context.Context, transactionID string) (domain.LedgerEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, entry := range r.store.transactions {
		if entry.TransactionID == transactionID {
			return entry, nil
		}
	}
	return domain.LedgerEntry{}, domain.ErrRecordNotFound
}

// ListByAccountNumber returns the entries booked against the account, newest first.
func (r *TransactionRepository) ListByAccountNumber(_ context.Context, accountNumber string) ([]domain.LedgerEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[accountNumber]
	if !ok {
		return []domain.LedgerEntry{}, nil
	}

	entries := make([]domain.LedgerEntry, 0)
	for i := len(r.store.transactions) - 1; i >= 0; i-- {
		if entry := r.store.transactions[i]; entry.AccountID == account.ID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// ListAll returns up to limit entries, newest first.
func (r *TransactionRepository) ListAll(_ context.Context, limit int) ([]domain.LedgerEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := make([]domain.LedgerEntry, 0, min(limit, len(r.store.transactions)))
	for i := len(r.store.transactions) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, r.store.transactions[i])
	}
	return entries, nil
}

// guardedUpdate applies the same guard as the postgres UPDATE: the account
// must still match the snapshot balance and be active. Changes go to pending,
// which the caller swaps in on commit.
func (s *Store) guardedUpdate(pending map[string]domain.Account, snapshot domain.Account, newBalance decimal.Decimal, now time.Time) error {
	current, ok := pending[snapshot.ID]
	if !ok {
		current, ok = s.accountByID(snapshot.ID)
	}
	if !ok || !current.Balance.Equal(snapshot.Balance) || !current.Status.IsActive() {
		return errStaleSnapshot
	}
	if newBalance.IsNegative() {
		return errNegativeBalance
	}
	current.Balance = newBalance
	current.ModifiedAt = now
	pending[current.ID] = current
	return nil
}

func (s *Store) accountByID(id string) (domain.Account, bool) {
	for _, account := range s.accounts {
		if account.ID == id {
			return account, true
		}
	}
	return domain.Account{}, false
}
