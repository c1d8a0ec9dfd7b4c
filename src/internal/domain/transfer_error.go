package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type ErrorKind string

const (
	KindAuthenticationFailed ErrorKind = "AUTHENTICATION_FAILED"
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindNoAccounts           ErrorKind = "NO_ACCOUNTS"
	KindNoActiveAccount      ErrorKind = "NO_ACTIVE_ACCOUNT"
	KindSameAccount          ErrorKind = "SAME_ACCOUNT"
	KindInactiveAccount      ErrorKind = "INACTIVE_ACCOUNT"
	KindInsufficientFunds    ErrorKind = "INSUFFICIENT_FUNDS"
	KindInvalidAmount        ErrorKind = "INVALID_AMOUNT"
	KindTransferFailed       ErrorKind = "TRANSFER_FAILED"
	KindAllocationFailed     ErrorKind = "ALLOCATION_FAILED"
)

// Entity identifies what a NotFound error could not resolve.
type Entity string

const (
	EntitySenderCustomer   Entity = "sender-customer"
	EntityReceiverAccount  Entity = "receiver-account"
	EntityReceiverCustomer Entity = "receiver-customer"
	EntityAccount          Entity = "account"
	EntityTransaction      Entity = "transaction"
)

type Side string

const (
	SideSender   Side = "sender"
	SideReceiver Side = "receiver"
)

// TransferError is the closed set of failures surfaced by the transfer engine.
// Message is stable text clients may match on.
type TransferError struct {
	Kind    ErrorKind
	Entity  Entity
	Side    Side
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	return e.Message
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is matches on Kind, and on Entity/Side when the target sets them, so the
// package sentinels work with errors.Is.
func (e *TransferError) Is(target error) bool {
	t, ok := target.(*TransferError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Entity != "" && t.Entity != e.Entity {
		return false
	}
	if t.Side != "" && t.Side != e.Side {
		return false
	}
	return true
}

var (
	ErrAuthenticationFailed = &TransferError{Kind: KindAuthenticationFailed}
	ErrNotFound             = &TransferError{Kind: KindNotFound}
	ErrNoAccounts           = &TransferError{Kind: KindNoAccounts}
	ErrNoActiveAccount      = &TransferError{Kind: KindNoActiveAccount}
	ErrSameAccount          = &TransferError{Kind: KindSameAccount}
	ErrInactiveAccount      = &TransferError{Kind: KindInactiveAccount}
	ErrInsufficientFunds    = &TransferError{Kind: KindInsufficientFunds}
	ErrInvalidAmount        = &TransferError{Kind: KindInvalidAmount}
	ErrTransferFailed       = &TransferError{Kind: KindTransferFailed}
	ErrAllocationFailed     = &TransferError{Kind: KindAllocationFailed}
)

// KindOf returns the kind of the first TransferError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

func AuthenticationFailed() error {
	return &TransferError{Kind: KindAuthenticationFailed, Message: "Invalid PIN. Transaction denied."}
}

func NotFound(entity Entity, key string) error {
	var message string
	switch entity {
	case EntitySenderCustomer:
		message = "Sender customer not found with Account Number: " + key
	case EntityReceiverAccount:
		message = "Receiver account not found: " + key
	case EntityReceiverCustomer:
		message = "Receiver customer not found"
	case EntityAccount:
		message = "Account not found: " + key
	case EntityTransaction:
		message = "Transaction not found: " + key
	default:
		message = fmt.Sprintf("%s not found", entity)
	}
	return &TransferError{Kind: KindNotFound, Entity: entity, Message: message, Err: ErrRecordNotFound}
}

func NoAccounts() error {
	return &TransferError{Kind: KindNoAccounts, Message: "No accounts found for sender"}
}

func NoActiveAccount() error {
	return &TransferError{Kind: KindNoActiveAccount, Message: "No active account found for sender"}
}

func SameAccount() error {
	return &TransferError{Kind: KindSameAccount, Message: "Sender and receiver account numbers must be different"}
}

func InactiveAccount(side Side) error {
	message := "Sender account is not active"
	if side == SideReceiver {
		message = "Receiver account is not active"
	}
	return &TransferError{Kind: KindInactiveAccount, Side: side, Message: message}
}

func InsufficientFunds(available decimal.Decimal) error {
	return &TransferError{
		Kind:    KindInsufficientFunds,
		Message: "Insufficient balance. Available balance: " + available.StringFixed(2),
	}
}

func InvalidAmount() error {
	return &TransferError{Kind: KindInvalidAmount, Message: "Transaction amount must be greater than zero"}
}

// AmountPrecision rejects amounts finer than AmountScale.
func AmountPrecision() error {
	return &TransferError{Kind: KindInvalidAmount, Message: "Transaction amount must have at most 2 decimal places"}
}

func TransferFailed(cause error) error {
	message := "Transaction failed"
	if cause != nil {
		message += ": " + cause.Error()
	}
	return &TransferError{Kind: KindTransferFailed, Message: message, Err: cause}
}

func AllocationFailed(resource Resource, cause error) error {
	return &TransferError{
		Kind:    KindAllocationFailed,
		Message: "Unable to allocate identifier for " + resource.Table,
		Err:     cause,
	}
}
