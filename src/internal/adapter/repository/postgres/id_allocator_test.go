package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lockQuery    = regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)
	maxTxnQuery  = `SELECT transaction_id\s+FROM transactions\s+WHERE transaction_id LIKE \$1\s+ORDER BY LENGTH\(transaction_id\) DESC, transaction_id DESC`
	maxCustQuery = `SELECT customer_id\s+FROM customers`
)

func TestIDAllocatorNextIDIncrementsGreatestSuffix(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(lockQuery).WithArgs("transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(maxTxnQuery).
		WithArgs(`TXN\_%`).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow("TXN_000041"))

	n, err := NewIDAllocator().NextID(context.Background(), db, domain.ResourceTransactions)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIDAllocatorNextIDStartsAtOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(lockQuery).WithArgs("customers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(maxCustQuery).
		WithArgs(`CUST\_%`).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id"}))

	n, err := NewIDAllocator().NextID(context.Background(), db, domain.ResourceCustomers)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIDAllocatorNextIDSurfacesStoreErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(lockQuery).WithArgs("transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(maxTxnQuery).WillReturnError(errors.New("connection reset"))

	_, err = NewIDAllocator().NextID(context.Background(), db, domain.ResourceTransactions)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllocationFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIDAllocatorNextIDRejectsUnparsableSuffix(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(lockQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(maxTxnQuery).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id"}).AddRow("TXN_legacy"))

	_, err = NewIDAllocator().NextID(context.Background(), db, domain.ResourceTransactions)
	assert.ErrorIs(t, err, domain.ErrAllocationFailed)
}

func TestIDAllocatorNextIDRejectsUnknownResource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	resource := domain.Resource{Table: "users; DROP TABLE accounts", Column: "id", Prefix: "U_"}
	_, err = NewIDAllocator().NextID(context.Background(), db, resource)
	assert.ErrorIs(t, err, domain.ErrAllocationFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePrefixEscapesWildcards(t *testing.T) {
	assert.Equal(t, `TXN\_%`, likePrefix("TXN_"))
	assert.Equal(t, `A\%B%`, likePrefix("A%B"))
}
