package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/freightdesk/wallet-ledger/pkg/models"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
)

// Store is an in-memory Storage implementation with the same conditional-write
// semantics as the DynamoDB store: the version token guards every balance
// write and reference keys are claimed atomically with the commit. It backs
// tests and local development.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*models.Account
	transactions map[string]*models.Transaction
	tenantLog    map[string][]string // transaction IDs in commit order
	refKeys      map[string]string   // reference key -> transaction ID
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts:     make(map[string]*models.Account),
		transactions: make(map[string]*models.Transaction),
		tenantLog:    make(map[string][]string),
		refKeys:      make(map[string]string),
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// CreateAccount provisions the tenant's balance row.
func (s *Store) CreateAccount(_ context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.TenantID]; ok {
		return nil, storage.ErrAccountExists
	}

	stored := *account
	s.accounts[account.TenantID] = &stored

	out := stored
	return &out, nil
}

// GetAccount returns a copy of the tenant's account.
func (s *Store) GetAccount(_ context.Context, tenantID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[tenantID]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}

	out := *account
	return &out, nil
}

// ListAccounts returns copies of every account.
func (s *Store) ListAccounts(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

// UpdateLowBalanceThreshold sets the alerting threshold without moving the
// version token.
func (s *Store) UpdateLowBalanceThreshold(_ context.Context, tenantID string, threshold int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[tenantID]
	if !ok {
		return storage.ErrAccountNotFound
	}

	account.LowBalanceThreshold = threshold
	account.UpdatedAt = time.Now()
	return nil
}

// SetAccountStatus flips the account lifecycle state without moving the
// version token.
func (s *Store) SetAccountStatus(_ context.Context, tenantID string, status models.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[tenantID]
	if !ok {
		return storage.ErrAccountNotFound
	}

	account.Status = status
	account.UpdatedAt = time.Now()
	return nil
}

// ApplyTransaction commits the balance move and the transaction record under
// one lock, enforcing the version token, the active status, and reference key
// uniqueness exactly like the conditional expressions of the DynamoDB store.
func (s *Store) ApplyTransaction(_ context.Context, account *models.Account, tx *models.Transaction) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[tx.TenantID]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	if stored.Version != account.Version || stored.Status != models.AccountActive {
		return nil, storage.ErrVersionConflict
	}
	if tx.RefKey != "" {
		if _, claimed := s.refKeys[tx.RefKey]; claimed {
			return nil, storage.ErrReferenceExists
		}
	}
	if _, dup := s.transactions[tx.ID]; dup {
		return nil, fmt.Errorf("transaction %s already exists", tx.ID)
	}

	stored.Balance = tx.BalanceAfter
	stored.Version++
	stored.UpdatedAt = time.Now()

	record := *tx
	s.transactions[tx.ID] = &record
	s.tenantLog[tx.TenantID] = append(s.tenantLog[tx.TenantID], tx.ID)
	if tx.RefKey != "" {
		s.refKeys[tx.RefKey] = tx.ID
	}

	out := *stored
	return &out, nil
}

// GetTransaction returns a copy of one of the tenant's transactions.
func (s *Store) GetTransaction(_ context.Context, tenantID, txID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[txID]
	if !ok || tx.TenantID != tenantID {
		return nil, storage.ErrTransactionNotFound
	}

	out := *tx
	return &out, nil
}

// FindTransactionByReference resolves a reference key to the transaction that
// claimed it.
func (s *Store) FindTransactionByReference(_ context.Context, tenantID string, ref models.Reference, reason models.Reason) (*models.Transaction, error) {
	refKey := models.ReferenceKey(tenantID, ref, reason)
	if refKey == "" {
		return nil, storage.ErrTransactionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	txID, ok := s.refKeys[refKey]
	if !ok {
		return nil, storage.ErrTransactionNotFound
	}

	out := *s.transactions[txID]
	return &out, nil
}

// QueryTransactions walks the tenant's log newest first. The cursor is the ID
// of the last transaction of the previous page, which stays valid while new
// commits land at the head of the log.
func (s *Store) QueryTransactions(_ context.Context, tenantID string, q storage.TransactionQuery) (*storage.TransactionPage, error) {
	limit := int(q.Limit)
	if limit <= 0 {
		limit = storage.DefaultPageSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.tenantLog[tenantID]
	skipping := q.Cursor != ""

	var page []models.Transaction
	more := false
	for i := len(ids) - 1; i >= 0; i-- {
		if skipping {
			if ids[i] == q.Cursor {
				skipping = false
			}
			continue
		}
		tx := s.transactions[ids[i]]
		if !matches(tx, q) {
			continue
		}
		if len(page) == limit {
			more = true
			break
		}
		page = append(page, *tx)
	}
	if skipping {
		return nil, fmt.Errorf("%w: unknown position", storage.ErrInvalidCursor)
	}

	next := ""
	if more {
		next = page[len(page)-1].ID
	}
	return &storage.TransactionPage{Transactions: page, NextCursor: next}, nil
}

func matches(tx *models.Transaction, q storage.TransactionQuery) bool {
	if q.Type != "" && tx.Type != q.Type {
		return false
	}
	if q.Reason != "" && tx.Reason != q.Reason {
		return false
	}
	if !q.From.IsZero() && tx.CreatedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && tx.CreatedAt.After(q.To) {
		return false
	}
	return true
}
