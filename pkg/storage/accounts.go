package storage

import (
	"context"

	"github.com/freightdesk/wallet-ledger/pkg/models"
)

// AccountStore defines the interface for managing tenant wallet accounts.
// Balance mutations are deliberately absent: the only way to move money is
// through LedgerWriter, so every balance change leaves a transaction behind.
type AccountStore interface {
	// CreateAccount provisions the balance row for a tenant.
	// Returns ErrAccountExists if the tenant already has one.
	CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetAccount retrieves a tenant's account. Returns ErrAccountNotFound
	// if the tenant was never provisioned.
	GetAccount(ctx context.Context, tenantID string) (*models.Account, error)

	// ListAccounts retrieves every account. Used by reconciliation.
	ListAccounts(ctx context.Context) ([]models.Account, error)

	// UpdateLowBalanceThreshold sets the alerting threshold. This is a
	// metadata write: it does not touch the version token.
	UpdateLowBalanceThreshold(ctx context.Context, tenantID string, threshold int64) error

	// SetAccountStatus moves the account between active and disabled.
	// Also a metadata write; the version token is untouched.
	SetAccountStatus(ctx context.Context, tenantID string, status models.AccountStatus) error
}
