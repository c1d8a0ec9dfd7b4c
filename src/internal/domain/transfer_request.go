package domain

import "github.com/shopspring/decimal"

// TransferRequest is a shape-validated transfer instruction.
type TransferRequest struct {
	SenderAccountNumber   string
	SenderPin             string
	ReceiverAccountNumber string
	Amount                decimal.Decimal
	Mode                  TransactionMode
	Description           string
}
