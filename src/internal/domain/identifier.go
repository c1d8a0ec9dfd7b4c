package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const idWidth = 6

// Resource names a table whose rows carry prefixed sequential identifiers.
type Resource struct {
	Table  string
	Column string
	Prefix string
}

var (
	ResourceTransactions = Resource{Table: "transactions", Column: "transaction_id", Prefix: "TXN_"}
	ResourceAccounts     = Resource{Table: "accounts", Column: "account_id", Prefix: "ACC_"}
	ResourceCustomers    = Resource{Table: "customers", Column: "customer_id", Prefix: "CUST_"}
)

// FormatID renders n as prefix followed by a zero padded suffix, e.g. TXN_000042.
func FormatID(prefix string, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, idWidth, n)
}

// ParseIDSuffix returns the numeric suffix of id.
func ParseIDSuffix(prefix string, id string) (int, error) {
	if !strings.HasPrefix(id, prefix) {
		return 0, fmt.Errorf("identifier %q does not start with %q", id, prefix)
	}
	n, err := strconv.Atoi(id[len(prefix):])
	if err != nil {
		return 0, fmt.Errorf("identifier %q has a non numeric suffix: %w", id, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("identifier %q has a negative suffix", id)
	}
	return n, nil
}
