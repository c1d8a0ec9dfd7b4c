package notification

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

// LogSender writes alerts to the log. It stands in for email when SMTP is not configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, n domain.TransferNotification) error {
	logger.Info("transfer alert", logger.Fields{
		"direction":                 string(n.Direction),
		"recipientEmail":            n.RecipientEmail,
		"recipientName":             n.RecipientName,
		"counterpartyName":          n.CounterpartyName,
		"counterpartyAccountNumber": n.CounterpartyAccountNumber,
		"amount":                    n.Amount.StringFixed(2),
		"transactionId":             n.TransactionID,
		"mode":                      string(n.Mode),
	})
	return nil
}
