package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryDebited  EntryType = "DEBITED"
	EntryCredited EntryType = "CREDITED"
)

type TransactionMode string

const (
	ModeDebit      TransactionMode = "DEBIT"
	ModeUPI        TransactionMode = "UPI"
	ModeCreditCard TransactionMode = "CREDIT CARD"
	ModeCash       TransactionMode = "CASH"
	ModeTransfer   TransactionMode = "TRANSFER"
	ModeNEFT       TransactionMode = "NEFT"
	ModeIMPS       TransactionMode = "IMPS"
	ModeRTGS       TransactionMode = "RTGS"
)

var transactionModes = []TransactionMode{
	ModeDebit,
	ModeUPI,
	ModeCreditCard,
	ModeCash,
	ModeTransfer,
	ModeNEFT,
	ModeIMPS,
	ModeRTGS,
}

// ParseTransactionMode matches value against the supported modes ignoring case
// and surrounding whitespace.
func ParseTransactionMode(value string) (TransactionMode, error) {
	trimmed := strings.TrimSpace(value)
	for _, mode := range transactionModes {
		if strings.EqualFold(string(mode), trimmed) {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unsupported transaction mode %q", value)
}

// LedgerEntry is one immutable side of a transfer.
type LedgerEntry struct {
	TransactionID         string
	AccountID             string
	Amount                decimal.Decimal
	Type                  EntryType
	Mode                  TransactionMode
	SenderAccountNumber   string
	ReceiverAccountNumber string
	Description           string
	TransactionTime       time.Time
}

// Counterparty is the account number on the other side of the entry.
func (e LedgerEntry) Counterparty() string {
	if e.Type == EntryCredited {
		return e.SenderAccountNumber
	}
	return e.ReceiverAccountNumber
}

// AmountScale is the number of decimal places balances and amounts are stored with.
const AmountScale = 2

// HasCentPrecision reports whether amount is representable at AmountScale
// without rounding.
func HasCentPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(AmountScale))
}
