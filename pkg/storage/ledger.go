package storage

import (
	"context"

	"github.com/freightdesk/wallet-ledger/pkg/models"
)

// LedgerWriter defines the single privileged write path of the ledger.
// The account balance update and the transaction append commit together or
// not at all; a half-applied state is structurally impossible.
type LedgerWriter interface {
	// ApplyTransaction commits tx against the account snapshot it was
	// computed from. The write is guarded by account.Version: if the stored
	// row has moved on, nothing is written and ErrVersionConflict is
	// returned so the caller can re-read and retry. When tx carries a
	// RefKey, the key is claimed in the same commit and ErrReferenceExists
	// is returned if another transaction already holds it.
	//
	// On success the account row holds tx.BalanceAfter, its version has
	// moved by one, and the returned copy reflects the committed state.
	ApplyTransaction(ctx context.Context, account *models.Account, tx *models.Transaction) (*models.Account, error)
}
