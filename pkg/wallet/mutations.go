package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/freightdesk/wallet-ledger/pkg/alerts"
	"github.com/freightdesk/wallet-ledger/pkg/models"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
)

// maxBackoff caps the delay between retries of a conflicted write.
const maxBackoff = time.Second

// CreditInput describes money entering a tenant's wallet.
type CreditInput struct {
	TenantID    string
	Amount      int64
	Reason      models.Reason
	Reference   models.Reference
	PerformedBy string
}

// DebitInput describes money leaving a tenant's wallet.
type DebitInput struct {
	TenantID    string
	Amount      int64
	Reason      models.Reason
	Reference   models.Reference
	PerformedBy string
}

// RefundInput names the transaction to reverse. The refund entry always
// records the refund reason and a reference to the original, so it needs no
// reason or reference of its own.
type RefundInput struct {
	TenantID      string
	TransactionID string
	PerformedBy   string
}

// Credit adds funds to the tenant's wallet and appends the matching
// transaction. Returns the appended transaction, whose BalanceAfter is the
// balance the credit produced.
func (l *Ledger) Credit(ctx context.Context, in CreditInput) (*models.Transaction, error) {
	if err := validateMutation(in.TenantID, in.Amount, in.Reason); err != nil {
		return nil, err
	}

	return l.mutate(ctx, mutation{
		tenantID:    in.TenantID,
		txType:      models.TypeCredit,
		amount:      in.Amount,
		reason:      in.Reason,
		reference:   in.Reference,
		performedBy: in.PerformedBy,
	})
}

// Debit removes funds from the tenant's wallet and appends the matching
// transaction. Fails with ErrInsufficientBalance, writing nothing, if the
// wallet cannot cover the amount.
func (l *Ledger) Debit(ctx context.Context, in DebitInput) (*models.Transaction, error) {
	if err := validateMutation(in.TenantID, in.Amount, in.Reason); err != nil {
		return nil, err
	}

	return l.mutate(ctx, mutation{
		tenantID:    in.TenantID,
		txType:      models.TypeDebit,
		amount:      in.Amount,
		reason:      in.Reason,
		reference:   in.Reference,
		performedBy: in.PerformedBy,
	})
}

// Refund reverses a previous transaction with a mirror-image entry: a debit
// is refunded by a credit of the same amount and vice versa. The refund
// references the original, which is also what limits each transaction to a
// single refund. Refunding a spent credit is still bound by the balance
// check, so the wallet can never go negative through refunds.
func (l *Ledger) Refund(ctx context.Context, in RefundInput) (*models.Transaction, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	if in.TransactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", ErrInvalidInput)
	}

	orig, err := l.store.GetTransaction(ctx, in.TenantID, in.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load original transaction: %w", err)
	}
	if orig.Reason == models.ReasonRefund {
		return nil, fmt.Errorf("%w: refund transactions cannot be refunded", ErrInvalidInput)
	}

	mirror := models.TypeCredit
	if orig.Type == models.TypeCredit {
		mirror = models.TypeDebit
	}

	tx, err := l.mutate(ctx, mutation{
		tenantID:    in.TenantID,
		txType:      mirror,
		amount:      orig.Amount,
		reason:      models.ReasonRefund,
		reference:   models.Reference{Type: models.RefTransaction, ID: orig.ID},
		performedBy: in.PerformedBy,
	})
	if errors.Is(err, ErrDuplicateReference) {
		return nil, ErrAlreadyRefunded
	}
	return tx, err
}

func validateMutation(tenantID string, amount int64, reason models.Reason) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !reason.Valid() {
		return fmt.Errorf("%w: unknown reason %q", ErrInvalidInput, reason)
	}
	return nil
}

// mutation is a validated balance change ready to be applied.
type mutation struct {
	tenantID    string
	txType      models.TransactionType
	amount      int64
	reason      models.Reason
	reference   models.Reference
	performedBy string
}

// mutate runs the read-validate-write loop shared by every balance change.
// Each attempt reads a fresh snapshot, computes the new balance against it,
// and hands the result to the storage layer guarded by the snapshot's version
// token. A lost conditional write is retried with backoff; every other
// failure, including validation against the fresh snapshot, aborts with
// nothing written.
func (l *Ledger) mutate(ctx context.Context, m mutation) (*models.Transaction, error) {
	if m.performedBy == "" {
		m.performedBy = models.SystemActor
	}

	// Duplicate references are rejected here to answer retries cheaply; the
	// storage commit re-checks the key atomically, which is what holds under
	// concurrent writers.
	if !m.reference.IsZero() {
		prior, err := l.store.FindTransactionByReference(ctx, m.tenantID, m.reference, m.reason)
		if err == nil {
			return nil, fmt.Errorf("%w: transaction %s", ErrDuplicateReference, prior.ID)
		}
		if !errors.Is(err, storage.ErrTransactionNotFound) {
			return nil, fmt.Errorf("failed to check reference: %w", err)
		}
	}

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := l.sleepBackoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		account, err := l.store.GetAccount(ctx, m.tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load account: %w", err)
		}
		if account.Status != models.AccountActive {
			return nil, ErrAccountDisabled
		}

		newBalance := account.Balance + m.amount
		if m.txType == models.TypeDebit {
			newBalance = account.Balance - m.amount
		}
		if newBalance < 0 {
			return nil, ErrInsufficientBalance
		}

		tx := &models.Transaction{
			ID:           uuid.New().String(),
			TenantID:     m.tenantID,
			Type:         m.txType,
			Reason:       m.reason,
			Amount:       m.amount,
			BalanceAfter: newBalance,
			Reference:    m.reference,
			RefKey:       models.ReferenceKey(m.tenantID, m.reference, m.reason),
			PerformedBy:  m.performedBy,
			CreatedAt:    time.Now(),
		}

		updated, err := l.store.ApplyTransaction(ctx, account, tx)
		if err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				l.logger.Debug("conditional write lost, retrying",
					slog.String("tenant_id", m.tenantID),
					slog.Int("attempt", attempt))
				continue
			}
			if errors.Is(err, storage.ErrReferenceExists) {
				return nil, fmt.Errorf("%w: reference %s/%s", ErrDuplicateReference, m.reference.Type, m.reference.ID)
			}
			l.logger.Error("ledger write failed",
				slog.String("tenant_id", m.tenantID),
				slog.String("type", string(m.txType)),
				slog.Any("error", err))
			return nil, fmt.Errorf("failed to apply %s: %w", m.txType, err)
		}

		l.maybeAlertLowBalance(ctx, account, updated)
		return tx, nil
	}

	l.logger.Warn("retry budget exhausted",
		slog.String("tenant_id", m.tenantID),
		slog.Int("attempts", l.maxAttempts))
	return nil, ErrConcurrencyExhausted
}

// sleepBackoff waits out the nth retry delay: exponential growth from the
// base, capped, with the upper half randomized so colliding writers spread
// out.
func (l *Ledger) sleepBackoff(ctx context.Context, retry int) error {
	delay := l.retryBackoff
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= maxBackoff {
			delay = maxBackoff
			break
		}
	}
	delay = delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// maybeAlertLowBalance publishes a low balance event when this write moved
// the balance from above the threshold to below it. The write has already
// committed, so a publish failure only logs.
func (l *Ledger) maybeAlertLowBalance(ctx context.Context, before, after *models.Account) {
	if before.IsLowBalance() || !after.IsLowBalance() {
		return
	}

	event := alerts.LowBalanceEvent{
		TenantID:   after.TenantID,
		Balance:    after.Balance,
		Threshold:  after.LowBalanceThreshold,
		Currency:   after.Currency,
		OccurredAt: after.UpdatedAt,
	}
	if err := l.alerts.PublishLowBalance(ctx, event); err != nil {
		l.logger.Error("failed to publish low balance alert",
			slog.String("tenant_id", after.TenantID),
			slog.Any("error", err))
	}
}
