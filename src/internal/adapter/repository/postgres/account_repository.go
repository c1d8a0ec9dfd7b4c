package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

const accountColumns = `account_id, customer_id, account_number, account_type, account_name, balance, status, created_at, modified_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	logger.Info("account repository get by account number", logger.Fields{
		"accountNumber": accountNumber,
	})

	query := `
SELECT ` + accountColumns + `
FROM accounts
WHERE account_number = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"accountNumber": accountNumber,
			})
			return domain.Account{}, domain.ErrRecordNotFound
		}
		logger.Error("account repository get failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return domain.Account{}, fmt.Errorf("get account by account number: %w", err)
	}

	return account, nil
}

// ListByCustomerID returns the customer's accounts, newest first.
func (r *AccountRepository) ListByCustomerID(ctx context.Context, customerID string) ([]domain.Account, error) {
	logger.Info("account repository list by customer id", logger.Fields{
		"customerId": customerID,
	})

	query := `
SELECT ` + accountColumns + `
FROM accounts
WHERE customer_id = $1
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		logger.Error("account repository list failed", err, logger.Fields{
			"customerId": customerID,
		})
		return nil, fmt.Errorf("list accounts by customer id: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		account     domain.Account
		accountType sql.NullString
		accountName sql.NullString
	)
	if err := row.Scan(
		&account.ID,
		&account.CustomerID,
		&account.AccountNumber,
		&accountType,
		&accountName,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
		&account.ModifiedAt,
	); err != nil {
		return domain.Account{}, err
	}
	account.AccountType = accountType.String
	account.AccountName = accountName.String
	return account, nil
}
