// Package wallet implements the tenant wallet ledger: balance mutations that
// retry around optimistic concurrency conflicts, balance reads, and the
// transaction history surface. All money is in the smallest currency unit.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/freightdesk/wallet-ledger/pkg/alerts"
	"github.com/freightdesk/wallet-ledger/pkg/models"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
)

const (
	// DefaultMaxAttempts bounds how many conditional writes a single
	// mutation may lose before giving up.
	DefaultMaxAttempts = 8

	// DefaultRetryBackoff is the base delay before the first retry; later
	// retries back off exponentially from it.
	DefaultRetryBackoff = 10 * time.Millisecond
)

// Config carries the Ledger's dependencies and tuning knobs. Zero values fall
// back to sane defaults.
type Config struct {
	Logger       *slog.Logger
	Alerts       alerts.Publisher
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Ledger is the wallet ledger service. It holds no per-account state and no
// locks; safety under concurrent use comes entirely from the storage layer's
// conditional writes. Safe for use from multiple goroutines.
type Ledger struct {
	store        storage.Storage
	logger       *slog.Logger
	alerts       alerts.Publisher
	maxAttempts  int
	retryBackoff time.Duration
}

// NewLedger creates a new Ledger over the given storage.
func NewLedger(store storage.Storage, cfg Config) *Ledger {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Alerts == nil {
		cfg.Alerts = alerts.NewNoOpPublisher()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	return &Ledger{
		store:        store,
		logger:       cfg.Logger,
		alerts:       cfg.Alerts,
		maxAttempts:  cfg.MaxAttempts,
		retryBackoff: cfg.RetryBackoff,
	}
}

// CreateAccountInput describes a new tenant wallet.
type CreateAccountInput struct {
	TenantID            string
	Currency            string
	LowBalanceThreshold int64
}

// CreateAccount provisions a tenant's wallet with a zero balance.
func (l *Ledger) CreateAccount(ctx context.Context, in CreateAccountInput) (*models.Account, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	if in.LowBalanceThreshold < 0 {
		return nil, fmt.Errorf("%w: low balance threshold cannot be negative", ErrInvalidInput)
	}
	if in.Currency == "" {
		in.Currency = models.DefaultCurrency
	}

	now := time.Now()
	account := &models.Account{
		TenantID:            in.TenantID,
		Balance:             0,
		Currency:            in.Currency,
		LowBalanceThreshold: in.LowBalanceThreshold,
		Status:              models.AccountActive,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	created, err := l.store.CreateAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	l.logger.Info("account created",
		slog.String("tenant_id", created.TenantID),
		slog.String("currency", created.Currency))
	return created, nil
}

// GetBalance returns the tenant's balance read model.
func (l *Ledger) GetBalance(ctx context.Context, tenantID string) (*models.Balance, error) {
	account, err := l.store.GetAccount(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	return &models.Balance{
		TenantID:            account.TenantID,
		Balance:             account.Balance,
		Currency:            account.Currency,
		LowBalanceThreshold: account.LowBalanceThreshold,
		IsLowBalance:        account.IsLowBalance(),
		AsOf:                account.UpdatedAt,
	}, nil
}

// HasMinimumBalance reports whether the tenant can afford the given amount.
// It is a pure read: a true result can be stale by the time the caller acts
// on it, so actual debits still enforce sufficiency themselves.
func (l *Ledger) HasMinimumBalance(ctx context.Context, tenantID string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}

	account, err := l.store.GetAccount(ctx, tenantID)
	if err != nil {
		return false, fmt.Errorf("failed to load account: %w", err)
	}

	return account.Balance >= amount, nil
}

// UpdateLowBalanceThreshold sets the balance level below which low-balance
// alerts fire. Takes effect on the next balance evaluation; the version token
// does not move.
func (l *Ledger) UpdateLowBalanceThreshold(ctx context.Context, tenantID string, threshold int64) error {
	if threshold < 0 {
		return fmt.Errorf("%w: low balance threshold cannot be negative", ErrInvalidInput)
	}

	if err := l.store.UpdateLowBalanceThreshold(ctx, tenantID, threshold); err != nil {
		return fmt.Errorf("failed to update low balance threshold: %w", err)
	}

	l.logger.Info("low balance threshold updated",
		slog.String("tenant_id", tenantID),
		slog.Int64("threshold", threshold))
	return nil
}

// DeactivateAccount blocks further balance mutations for the tenant. Reads
// keep working.
func (l *Ledger) DeactivateAccount(ctx context.Context, tenantID string) error {
	if err := l.store.SetAccountStatus(ctx, tenantID, models.AccountDisabled); err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	l.logger.Info("account deactivated", slog.String("tenant_id", tenantID))
	return nil
}

// ReactivateAccount lifts a previous deactivation.
func (l *Ledger) ReactivateAccount(ctx context.Context, tenantID string) error {
	if err := l.store.SetAccountStatus(ctx, tenantID, models.AccountActive); err != nil {
		return fmt.Errorf("failed to reactivate account: %w", err)
	}

	l.logger.Info("account reactivated", slog.String("tenant_id", tenantID))
	return nil
}

// GetTransaction retrieves one of the tenant's transactions.
func (l *Ledger) GetTransaction(ctx context.Context, tenantID, txID string) (*models.Transaction, error) {
	tx, err := l.store.GetTransaction(ctx, tenantID, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return tx, nil
}

// GetTransactionHistory pages through the tenant's transactions, newest first.
func (l *Ledger) GetTransactionHistory(ctx context.Context, tenantID string, q storage.TransactionQuery) (*storage.TransactionPage, error) {
	if q.Type != "" && !q.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, q.Type)
	}
	if q.Reason != "" && !q.Reason.Valid() {
		return nil, fmt.Errorf("%w: unknown reason %q", ErrInvalidInput, q.Reason)
	}

	page, err := l.store.QueryTransactions(ctx, tenantID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction history: %w", err)
	}
	return page, nil
}
