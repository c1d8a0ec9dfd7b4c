package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "Active"
	AccountStatusInactive  AccountStatus = "Inactive"
	AccountStatusBlocked   AccountStatus = "Blocked"
	AccountStatusSuspended AccountStatus = "Suspended"
)

// IsActive reports whether the status permits participation in transfers.
// Stored statuses are matched case-insensitively, so ACTIVE and Active are equal.
func (s AccountStatus) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(AccountStatusActive))
}

type Account struct {
	ID            string
	CustomerID    string
	AccountNumber string
	AccountType   string
	AccountName   string
	Balance       decimal.Decimal
	Status        AccountStatus
	CreatedAt     time.Time
	ModifiedAt    time.Time
}

// FirstActive returns the first account whose status is active.
func FirstActive(accounts []Account) (Account, bool) {
	for _, account := range accounts {
		if account.Status.IsActive() {
			return account, true
		}
	}
	return Account{}, false
}
