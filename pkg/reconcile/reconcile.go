// Package reconcile replays tenant transaction logs against stored balances.
// It is the safety net behind the ledger's core promise: every account's
// balance equals the signed sum of its transactions at all times.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/freightdesk/wallet-ledger/pkg/models"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
)

// auditPageSize is how many transactions each history read pulls while
// replaying a tenant's log.
const auditPageSize = 200

// Drift describes a tenant whose stored balance disagrees with its
// transaction log.
type Drift struct {
	TenantID           string `json:"tenant_id"`
	Balance            int64  `json:"balance"`
	LedgerSum          int64  `json:"ledger_sum"`
	LatestBalanceAfter int64  `json:"latest_balance_after"`
	Version            int64  `json:"version"`
	TransactionCount   int    `json:"transaction_count"`
}

// Auditor checks every account against its transaction log.
type Auditor struct {
	store  storage.Storage
	logger *slog.Logger
}

// New creates a new Auditor.
func New(store storage.Storage, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{store: store, logger: logger}
}

// Audit replays each tenant's transaction log and reports every account
// whose state disagrees with it. An account is clean when its balance equals
// the signed sum of its transactions, matches the latest BalanceAfter
// snapshot, and its version token sits exactly one ahead of the transaction
// count. A failure on one account is logged and does not stop the sweep.
func (a *Auditor) Audit(ctx context.Context) ([]Drift, error) {
	accounts, err := a.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	var drifts []Drift
	for i := range accounts {
		drift, err := a.auditAccount(ctx, &accounts[i])
		if err != nil {
			a.logger.Error("failed to audit account",
				slog.String("tenant_id", accounts[i].TenantID),
				slog.Any("error", err))
			continue
		}
		if drift != nil {
			drifts = append(drifts, *drift)
		}
	}

	return drifts, nil
}

func (a *Auditor) auditAccount(ctx context.Context, account *models.Account) (*Drift, error) {
	var (
		sum         int64
		count       int
		latestAfter int64
		cursor      string
		firstPage   = true
	)

	for {
		page, err := a.store.QueryTransactions(ctx, account.TenantID, storage.TransactionQuery{
			Limit:  auditPageSize,
			Cursor: cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read transaction log: %w", err)
		}

		for i := range page.Transactions {
			sum += page.Transactions[i].SignedAmount()
			count++
		}

		// History reads newest first, so the head of the first page holds
		// the most recent balance snapshot.
		if firstPage && len(page.Transactions) > 0 {
			latestAfter = page.Transactions[0].BalanceAfter
			firstPage = false
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	clean := account.Balance == sum &&
		account.Version == int64(count)+1 &&
		(count == 0 || account.Balance == latestAfter)
	if clean {
		return nil, nil
	}

	return &Drift{
		TenantID:           account.TenantID,
		Balance:            account.Balance,
		LedgerSum:          sum,
		LatestBalanceAfter: latestAfter,
		Version:            account.Version,
		TransactionCount:   count,
	}, nil
}
