package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	errNoRowsAffected = errors.New("no rows affected")
	errAmountScale    = errors.New("amount has more than 2 decimal places")
)

type TransactionRepository struct {
	db        *sql.DB
	allocator IDAllocator
	now       func() time.Time
}

func NewTransactionRepository(db *sql.DB, allocator IDAllocator) *TransactionRepository {
	return &TransactionRepository{db: db, allocator: allocator, now: time.Now}
}

// ApplyTransfer runs the whole posting in one database transaction: allocate
// the id pair, move both balances, write the DEBITED and CREDITED rows. Any
// failure rolls everything back.
//
// Balance updates are guarded by the snapshot balance, so a snapshot made stale
// by a concurrent transfer fails the unit instead of overwriting the newer value.
func (r *TransactionRepository) ApplyTransfer(ctx context.Context, posting domain.TransferPosting) (domain.LedgerEntry, error) {
	logger.Info("transaction repository apply transfer", logger.Fields{
		"senderAccountId":       posting.Sender.ID,
		"receiverAccountId":     posting.Receiver.ID,
		"senderAccountNumber":   posting.SenderAccountNumber,
		"receiverAccountNumber": posting.ReceiverAccountNumber,
		"amount":                posting.Amount.StringFixed(2),
		"mode":                  string(posting.Mode),
	})

	// NUMERIC(15,2) would round each column on its own.
	if !domain.HasCentPrecision(posting.Amount) {
		return domain.LedgerEntry{}, errAmountScale
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		logger.Error("transaction repository begin tx failed", err, nil)
		return domain.LedgerEntry{}, fmt.Errorf("begin transfer transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Error("transaction repository rollback failed", rbErr, nil)
				return
			}
			logger.Info("transaction repository transfer rolled back", logger.Fields{
				"reason": err.Error(),
			})
		}
	}()

	baseID, err := r.allocator.NextID(ctx, tx, domain.ResourceTransactions)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	now := r.now().UTC().Truncate(time.Microsecond)

	if err = updateBalance(ctx, tx, posting.Sender, posting.Sender.Balance.Sub(posting.Amount), now); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("Failed to update sender account balance: %w", err)
	}
	if err = updateBalance(ctx, tx, posting.Receiver, posting.Receiver.Balance.Add(posting.Amount), now); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("Failed to update receiver account balance: %w", err)
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
	credit := debit
	credit.TransactionID = domain.FormatID(domain.ResourceTransactions.Prefix, baseID+1)
	credit.AccountID = posting.Receiver.ID
	credit.Type = domain.EntryCredited

	if err = insertEntry(ctx, tx, debit); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("Failed to create debit transaction: %w", err)
	}
	if err = insertEntry(ctx, tx, credit); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("Failed to create credit transaction: %w", err)
	}

	if err = tx.Commit(); err != nil {
		logger.Error("transaction repository commit tx failed", err, nil)
		return domain.LedgerEntry{}, fmt.Errorf("commit transfer transaction: %w", err)
	}

	logger.Info("transaction repository apply transfer success", logger.Fields{
		"debitTransactionId":  debit.TransactionID,
		"creditTransactionId": credit.TransactionID,
	})

	return debit, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, transactionID string) (domain.LedgerEntry, error) {
	const query = `
SELECT transaction_id, account_id, transaction_amount, transaction_type, transaction_time,
       transaction_mode, sender_account_number, receiver_account_number, description
FROM transactions
WHERE transaction_id = $1`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LedgerEntry{}, domain.ErrRecordNotFound
		}
		logger.Error("transaction repository get failed", err, logger.Fields{
			"transactionId": transactionID,
		})
		return domain.LedgerEntry{}, fmt.Errorf("get transaction: %w", err)
	}

	return entry, nil
}

// ListByAccountNumber returns every entry booked against the account, newest first.
func (r *TransactionRepository) ListByAccountNumber(ctx context.Context, accountNumber string) ([]domain.LedgerEntry, error) {
	const query = `
SELECT t.transaction_id, t.account_id, t.transaction_amount, t.transaction_type, t.transaction_time,
       t.transaction_mode, t.sender_account_number, t.receiver_account_number, t.description
FROM transactions t
JOIN accounts a ON t.account_id = a.account_id
WHERE a.account_number = $1
ORDER BY t.transaction_time DESC, t.transaction_id DESC`

	entries, err := r.queryEntries(ctx, query, accountNumber)
	if err != nil {
		logger.Error("transaction repository list failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return nil, err
	}
	return entries, nil
}

func (r *TransactionRepository) ListAll(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	const query = `
SELECT transaction_id, account_id, transaction_amount, transaction_type, transaction_time,
       transaction_mode, sender_account_number, receiver_account_number, description
FROM transactions
ORDER BY transaction_time DESC, LENGTH(transaction_id) DESC, transaction_id DESC
LIMIT $1`

	entries, err := r.queryEntries(ctx, query, limit)
	if err != nil {
		logger.Error("transaction repository list all failed", err, logger.Fields{
			"limit": limit,
		})
		return nil, err
	}
	return entries, nil
}

func (r *TransactionRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return entries, nil
}

func updateBalance(ctx context.Context, tx *sql.Tx, snapshot domain.Account, newBalance decimal.Decimal, now time.Time) error {
	const query = `
UPDATE accounts
SET balance = $2::numeric,
    modified_at = $3
WHERE account_id = $1
  AND balance = $4::numeric
  AND UPPER(TRIM(status)) = 'ACTIVE'`

	return execRequiredRows(ctx, tx, query, snapshot.ID, newBalance, now, snapshot.Balance)
}

func insertEntry(ctx context.Context, tx *sql.Tx, entry domain.LedgerEntry) error {
	const query = `
INSERT INTO transactions (
	transaction_id,
	account_id,
	transaction_amount,
	transaction_type,
	transaction_time,
	transaction_mode,
	sender_account_number,
	receiver_account_number,
	description
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	err := execRequiredRows(ctx, tx, query,
		entry.TransactionID,
		entry.AccountID,
		entry.Amount,
		string(entry.Type),
		entry.TransactionTime,
		string(entry.Mode),
		entry.SenderAccountNumber,
		entry.ReceiverAccountNumber,
		entry.Description,
	)
	if isUniqueViolation(err) {
		return domain.AllocationFailed(domain.ResourceTransactions, err)
	}
	return err
}

func execRequiredRows(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute transaction statement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if rows == 0 {
		return errNoRowsAffected
	}
	return nil
}

func scanEntry(row rowScanner) (domain.LedgerEntry, error) {
	var (
		entry       domain.LedgerEntry
		sender      sql.NullString
		receiver    sql.NullString
		description sql.NullString
	)
	if err := row.Scan(
		&entry.TransactionID,
		&entry.AccountID,
		&entry.Amount,
		&entry.Type,
		&entry.TransactionTime,
		&entry.Mode,
		&sender,
		&receiver,
		&description,
	); err != nil {
		return domain.LedgerEntry{}, err
	}
	entry.SenderAccountNumber = sender.String
	entry.ReceiverAccountNumber = receiver.String
	entry.Description = description.String
	return entry, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
