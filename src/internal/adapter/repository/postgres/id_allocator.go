package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

var knownResources = map[domain.Resource]struct{}{
	domain.ResourceTransactions: {},
	domain.ResourceAccounts:     {},
	domain.ResourceCustomers:    {},
}

// IDAllocator hands out prefixed sequential identifiers.
//
// NextID takes a transaction scoped advisory lock on the resource before
// reading the current maximum. When q is a *sql.Tx the lock is held until
// commit or rollback, so the rows that consume the allocated ids are written
// before any other allocator can read the maximum. Called on a *sql.DB the lock
// is released immediately and the result is only advisory.
type IDAllocator struct{}

func NewIDAllocator() IDAllocator {
	return IDAllocator{}
}

func (IDAllocator) NextID(ctx context.Context, q Querier, resource domain.Resource) (int, error) {
	if _, ok := knownResources[resource]; !ok {
		return 0, domain.AllocationFailed(resource, fmt.Errorf("unknown resource %q", resource.Table))
	}

	if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, resource.Table); err != nil {
		logger.Error("id allocator lock failed", err, logger.Fields{"resource": resource.Table})
		return 0, domain.AllocationFailed(resource, fmt.Errorf("lock %s: %w", resource.Table, err))
	}

	query := fmt.Sprintf(`
SELECT %[1]s
FROM %[2]s
WHERE %[1]s LIKE $1
ORDER BY LENGTH(%[1]s) DESC, %[1]s DESC
LIMIT 1`, resource.Column, resource.Table)

	var last string
	err := q.QueryRowContext(ctx, query, likePrefix(resource.Prefix)).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	if err != nil {
		logger.Error("id allocator read failed", err, logger.Fields{"resource": resource.Table})
		return 0, domain.AllocationFailed(resource, fmt.Errorf("read max %s: %w", resource.Column, err))
	}

	n, err := domain.ParseIDSuffix(resource.Prefix, last)
	if err != nil {
		return 0, domain.AllocationFailed(resource, err)
	}

	return n + 1, nil
}

func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}
