package models

import (
	"errors"
	"strings"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 255

type TransferRequest struct {
	SenderAccountNumber   string          `json:"senderAccountNumber"`
	SenderPin             string          `json:"senderPin"`
	ReceiverAccountNumber string          `json:"receiverAccountNumber"`
	Amount                decimal.Decimal `json:"amount"`
	TransactionMode       string          `json:"transactionMode"`
	Description           string          `json:"description"`
}

// Validate checks the request shape only; business rules are left to the
// transfer service.
func (r TransferRequest) Validate() error {
	var errs []string

	if !isDigits(r.SenderAccountNumber, 10, 18) {
		errs = append(errs, "senderAccountNumber must be 10 to 18 digits")
	}
	if !isDigits(r.ReceiverAccountNumber, 10, 18) {
		errs = append(errs, "receiverAccountNumber must be 10 to 18 digits")
	}
	if !isDigits(r.SenderPin, 4, 6) {
		errs = append(errs, "senderPin must be 4 to 6 digits")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	} else if !domain.HasCentPrecision(r.Amount) {
		errs = append(errs, "amount must have at most 2 decimal places")
	}
	if _, err := domain.ParseTransactionMode(r.TransactionMode); err != nil {
		errs = append(errs, "transactionMode must be one of DEBIT, UPI, CREDIT CARD, CASH, TRANSFER, NEFT, IMPS, RTGS")
	}
	if len(strings.TrimSpace(r.Description)) > maxDescriptionLength {
		errs = append(errs, "description must be at most 255 characters")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ToDomain converts a validated request.
func (r TransferRequest) ToDomain() domain.TransferRequest {
	mode, _ := domain.ParseTransactionMode(r.TransactionMode)
	return domain.TransferRequest{
		SenderAccountNumber:   strings.TrimSpace(r.SenderAccountNumber),
		SenderPin:             strings.TrimSpace(r.SenderPin),
		ReceiverAccountNumber: strings.TrimSpace(r.ReceiverAccountNumber),
		Amount:                r.Amount,
		Mode:                  mode,
		Description:           strings.TrimSpace(r.Description),
	}
}

type TransactionResponse struct {
	TransactionID         string          `json:"transactionId"`
	AccountID             string          `json:"accountId"`
	Amount                decimal.Decimal `json:"amount"`
	Type                  string          `json:"type"`
	Timestamp             time.Time       `json:"timestamp"`
	Mode                  string          `json:"mode"`
	SenderAccountNumber   string          `json:"senderAccountNumber"`
	ReceiverAccountNumber string          `json:"receiverAccountNumber"`
	Description           string          `json:"description,omitempty"`
}

func NewTransactionResponse(entry domain.LedgerEntry) TransactionResponse {
	return TransactionResponse{
		TransactionID:         entry.TransactionID,
		AccountID:             entry.AccountID,
		Amount:                entry.Amount.Round(2),
		Type:                  string(entry.Type),
		Timestamp:             entry.TransactionTime,
		Mode:                  string(entry.Mode),
		SenderAccountNumber:   entry.SenderAccountNumber,
		ReceiverAccountNumber: entry.ReceiverAccountNumber,
		Description:           entry.Description,
	}
}

func NewTransactionResponses(entries []domain.LedgerEntry) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, NewTransactionResponse(entry))
	}
	return out
}

func isDigits(value string, minLen, maxLen int) bool {
	trimmed := strings.TrimSpace(value)
	return len(trimmed) >= minLen && len(trimmed) <= maxLen && digitsOnly(trimmed)
}

func digitsOnly(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
