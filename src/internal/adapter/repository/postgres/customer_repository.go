package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetByID(ctx context.Context, customerID string) (domain.Customer, error) {
	const query = `
SELECT c.customer_id, c.name, c.email, c.phone_number, c.address, c.customer_pin, c.aadhar_number, c.status
FROM customers c
WHERE c.customer_id = $1`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrRecordNotFound
		}
		logger.Error("customer repository get failed", err, logger.Fields{
			"customerId": customerID,
		})
		return domain.Customer{}, fmt.Errorf("get customer by id: %w", err)
	}

	return customer, nil
}

func (r *CustomerRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Customer, error) {
	const query = `
SELECT c.customer_id, c.name, c.email, c.phone_number, c.address, c.customer_pin, c.aadhar_number, c.status
FROM customers c
JOIN accounts a ON c.customer_id = a.customer_id
WHERE a.account_number = $1`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrRecordNotFound
		}
		logger.Error("customer repository get by account number failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return domain.Customer{}, fmt.Errorf("get customer by account number: %w", err)
	}

	return customer, nil
}

func (r *CustomerRepository) GetPinByAccountNumber(ctx context.Context, accountNumber string) (string, error) {
	const query = `
SELECT c.customer_pin
FROM customers c
JOIN accounts a ON c.customer_id = a.customer_id
WHERE a.account_number = $1`

	var pin sql.NullString
	if err := r.db.QueryRowContext(ctx, query, accountNumber).Scan(&pin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrRecordNotFound
		}
		logger.Error("customer repository get pin failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return "", fmt.Errorf("get customer pin by account number: %w", err)
	}
	if !pin.Valid {
		return "", domain.ErrRecordNotFound
	}

	return pin.String, nil
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var (
		customer domain.Customer
		address  sql.NullString
		pin      sql.NullString
		status   sql.NullString
	)
	if err := row.Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.PhoneNumber,
		&address,
		&pin,
		&customer.AadharNumber,
		&status,
	); err != nil {
		return domain.Customer{}, err
	}
	customer.Address = address.String
	customer.Pin = pin.String
	customer.Status = status.String
	return customer, nil
}
