package storage

import (
	"context"
	"time"

	"github.com/freightdesk/wallet-ledger/pkg/models"
)

// DefaultPageSize is used by QueryTransactions when the query sets no limit.
const DefaultPageSize = 50

// TransactionQuery narrows a transaction history read. Zero-valued fields are
// ignored. From and To bound CreatedAt inclusively on both ends.
type TransactionQuery struct {
	Type   models.TransactionType
	Reason models.Reason
	From   time.Time
	To     time.Time
	Limit  int32
	Cursor string
}

// TransactionPage is one page of history, newest first. A non-empty NextCursor
// means more pages exist; feed it back through TransactionQuery.Cursor.
type TransactionPage struct {
	Transactions []models.Transaction
	NextCursor   string
}

// TransactionLog defines the read side of the append-only transaction log.
// Appending happens exclusively through LedgerWriter.
type TransactionLog interface {
	// GetTransaction retrieves one of the tenant's transactions by ID.
	// Returns ErrTransactionNotFound if it does not exist or belongs to
	// another tenant.
	GetTransaction(ctx context.Context, tenantID, txID string) (*models.Transaction, error)

	// FindTransactionByReference looks up the transaction recorded under the
	// given reference and reason, if any. Returns ErrTransactionNotFound
	// when nothing was recorded under that key.
	FindTransactionByReference(ctx context.Context, tenantID string, ref models.Reference, reason models.Reason) (*models.Transaction, error)

	// QueryTransactions pages through a tenant's history, newest first.
	QueryTransactions(ctx context.Context, tenantID string, q TransactionQuery) (*TransactionPage, error)
}
