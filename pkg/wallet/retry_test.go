package wallet

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/freightdesk/wallet-ledger/pkg/models"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
	"github.com/freightdesk/wallet-ledger/pkg/storage/mocks"
)

func newMockedLedger(store storage.Storage, attempts int) *Ledger {
	return NewLedger(store, Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxAttempts:  attempts,
		RetryBackoff: time.Microsecond,
	})
}

func TestMutateRetriesOnVersionConflict(t *testing.T) {
	account := &models.Account{TenantID: "tenant-1", Balance: 1000, Currency: "INR", Status: models.AccountActive, Version: 3}
	updated := &models.Account{TenantID: "tenant-1", Balance: 900, Currency: "INR", Status: models.AccountActive, Version: 4}

	mockStore := new(mocks.Storage)
	mockStore.On("GetAccount", mock.Anything, "tenant-1").Return(account, nil)
	mockStore.On("ApplyTransaction", mock.Anything, mock.Anything, mock.Anything).Return(nil, storage.ErrVersionConflict).Twice()
	mockStore.On("ApplyTransaction", mock.Anything, mock.Anything, mock.Anything).Return(updated, nil).Once()

	ledger := newMockedLedger(mockStore, 8)
	tx, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 100, Reason: models.ReasonShippingCost})

	assert.NoError(t, err)
	assert.Equal(t, int64(900), tx.BalanceAfter)

	// Every attempt re-reads the account so the write is computed against a
	// fresh snapshot.
	mockStore.AssertNumberOfCalls(t, "GetAccount", 3)
	mockStore.AssertNumberOfCalls(t, "ApplyTransaction", 3)
	mockStore.AssertExpectations(t)
}

func TestMutateExhaustsRetryBudget(t *testing.T) {
	account := &models.Account{TenantID: "tenant-1", Balance: 1000, Status: models.AccountActive, Version: 3}

	mockStore := new(mocks.Storage)
	mockStore.On("GetAccount", mock.Anything, "tenant-1").Return(account, nil)
	mockStore.On("ApplyTransaction", mock.Anything, mock.Anything, mock.Anything).Return(nil, storage.ErrVersionConflict)

	ledger := newMockedLedger(mockStore, 3)
	_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 100, Reason: models.ReasonRecharge})

	assert.ErrorIs(t, err, ErrConcurrencyExhausted)
	mockStore.AssertNumberOfCalls(t, "ApplyTransaction", 3)
	mockStore.AssertExpectations(t)
}

func TestMutateAbortsOnStorageError(t *testing.T) {
	account := &models.Account{TenantID: "tenant-1", Balance: 1000, Status: models.AccountActive, Version: 3}

	mockStore := new(mocks.Storage)
	mockStore.On("GetAccount", mock.Anything, "tenant-1").Return(account, nil)
	mockStore.On("ApplyTransaction", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("dynamo down"))

	ledger := newMockedLedger(mockStore, 8)
	_, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 100, Reason: models.ReasonShippingCost})

	// Anything but a lost conditional write aborts without retrying.
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply debit")
	mockStore.AssertNumberOfCalls(t, "ApplyTransaction", 1)
	mockStore.AssertExpectations(t)
}

func TestMutateValidationNeverTouchesStorage(t *testing.T) {
	mockStore := new(mocks.Storage)
	ledger := newMockedLedger(mockStore, 8)

	_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 0, Reason: models.ReasonRecharge})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: -5, Reason: models.ReasonShippingCost})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 100, Reason: "generosity"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ledger.Debit(context.Background(), DebitInput{Amount: 100, Reason: models.ReasonShippingCost})
	assert.ErrorIs(t, err, ErrInvalidInput)

	mockStore.AssertNotCalled(t, "GetAccount", mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "FindTransactionByReference", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "ApplyTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestMutateProbeShortCircuitsDuplicates(t *testing.T) {
	ref := models.Reference{Type: models.RefPayment, ID: "pay-9"}
	prior := &models.Transaction{ID: "tx-prior", TenantID: "tenant-1", Type: models.TypeCredit, Reason: models.ReasonRecharge, Amount: 100}

	mockStore := new(mocks.Storage)
	mockStore.On("FindTransactionByReference", mock.Anything, "tenant-1", ref, models.ReasonRecharge).Return(prior, nil)

	ledger := newMockedLedger(mockStore, 8)
	_, err := ledger.Credit(context.Background(), CreditInput{
		TenantID:  "tenant-1",
		Amount:    100,
		Reason:    models.ReasonRecharge,
		Reference: ref,
	})

	assert.ErrorIs(t, err, ErrDuplicateReference)
	mockStore.AssertNotCalled(t, "GetAccount", mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "ApplyTransaction", mock.Anything, mock.Anything, mock.Anything)
	mockStore.AssertExpectations(t)
}

func TestMutateMapsReferenceRace(t *testing.T) {
	ref := models.Reference{Type: models.RefPayment, ID: "pay-9"}
	account := &models.Account{TenantID: "tenant-1", Balance: 1000, Status: models.AccountActive, Version: 3}

	// The probe sees nothing, then a concurrent writer claims the key before
	// our commit lands.
	mockStore := new(mocks.Storage)
	mockStore.On("FindTransactionByReference", mock.Anything, "tenant-1", ref, models.ReasonRecharge).Return(nil, storage.ErrTransactionNotFound)
	mockStore.On("GetAccount", mock.Anything, "tenant-1").Return(account, nil)
	mockStore.On("ApplyTransaction", mock.Anything, mock.Anything, mock.Anything).Return(nil, storage.ErrReferenceExists)

	ledger := newMockedLedger(mockStore, 8)
	_, err := ledger.Credit(context.Background(), CreditInput{
		TenantID:  "tenant-1",
		Amount:    100,
		Reason:    models.ReasonRecharge,
		Reference: ref,
	})

	assert.ErrorIs(t, err, ErrDuplicateReference)
	mockStore.AssertNumberOfCalls(t, "ApplyTransaction", 1)
	mockStore.AssertExpectations(t)
}

func TestMutateBackoffHonorsContext(t *testing.T) {
	account := &models.Account{TenantID: "tenant-1", Balance: 1000, Status: models.AccountActive, Version: 3}

	mockStore := new(mocks.Storage)
	mockStore.On("GetAccount", mock.Anything, "tenant-1").Return(account, nil)
	mockStore.On("ApplyTransaction", mock.Anything, mock.Anything, mock.Anything).Return(nil, storage.ErrVersionConflict)

	ledger := NewLedger(mockStore, Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxAttempts:  8,
		RetryBackoff: 250 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := ledger.Debit(ctx, DebitInput{TenantID: "tenant-1", Amount: 100, Reason: models.ReasonShippingCost})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	mockStore.AssertNumberOfCalls(t, "ApplyTransaction", 1)
	mockStore.AssertExpectations(t)
}
