package wallet

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/freightdesk/wallet-ledger/pkg/alerts"
	"github.com/freightdesk/wallet-ledger/pkg/models"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
	"github.com/freightdesk/wallet-ledger/pkg/storage/memory"
)

// capturePublisher records low balance events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []alerts.LowBalanceEvent
}

func (p *capturePublisher) PublishLowBalance(_ context.Context, event alerts.LowBalanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Events() []alerts.LowBalanceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]alerts.LowBalanceEvent(nil), p.events...)
}

type failingPublisher struct{}

func (failingPublisher) PublishLowBalance(context.Context, alerts.LowBalanceEvent) error {
	return errors.New("queue unavailable")
}

func TestCredit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		tx, err := ledger.Credit(context.Background(), CreditInput{
			TenantID: "tenant-1",
			Amount:   10000,
			Reason:   models.ReasonRecharge,
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, tx.ID)
		assert.Equal(t, models.TypeCredit, tx.Type)
		assert.Equal(t, models.ReasonRecharge, tx.Reason)
		assert.Equal(t, int64(10000), tx.Amount)
		assert.Equal(t, int64(10000), tx.BalanceAfter)
		assert.Equal(t, models.SystemActor, tx.PerformedBy)
		assert.False(t, tx.CreatedAt.IsZero())

		balance, err := ledger.GetBalance(context.Background(), "tenant-1")
		assert.NoError(t, err)
		assert.Equal(t, int64(10000), balance.Balance)
	})

	t.Run("Records Actor", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		tx, err := ledger.Credit(context.Background(), CreditInput{
			TenantID:    "tenant-1",
			Amount:      100,
			Reason:      models.ReasonManualAdjustment,
			PerformedBy: "ops@freightdesk",
		})

		assert.NoError(t, err)
		assert.Equal(t, "ops@freightdesk", tx.PerformedBy)
	})

	t.Run("Invalid Amount", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 0, Reason: models.ReasonRecharge})
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: -5, Reason: models.ReasonRecharge})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("Unknown Reason", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 100, Reason: "generosity"})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Blank Tenant", func(t *testing.T) {
		ledger, _ := newTestLedger(t)

		_, err := ledger.Credit(context.Background(), CreditInput{Amount: 100, Reason: models.ReasonRecharge})

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Account Not Found", func(t *testing.T) {
		ledger, _ := newTestLedger(t)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "nobody", Amount: 100, Reason: models.ReasonRecharge})

		assert.ErrorIs(t, err, storage.ErrAccountNotFound)
	})
}

func TestDebit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		tx, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 250, Reason: models.ReasonShippingCost})

		assert.NoError(t, err)
		assert.Equal(t, models.TypeDebit, tx.Type)
		assert.Equal(t, int64(250), tx.Amount)
		assert.Equal(t, int64(750), tx.BalanceAfter)
	})

	t.Run("Down To Zero", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		tx, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonShippingCost})

		assert.NoError(t, err)
		assert.Equal(t, int64(0), tx.BalanceAfter)
	})

	t.Run("Insufficient Balance Writes Nothing", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 100, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		_, err = ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 101, Reason: models.ReasonShippingCost})
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		balance, err := ledger.GetBalance(context.Background(), "tenant-1")
		assert.NoError(t, err)
		assert.Equal(t, int64(100), balance.Balance)

		page, err := ledger.GetTransactionHistory(context.Background(), "tenant-1", storage.TransactionQuery{})
		assert.NoError(t, err)
		assert.Len(t, page.Transactions, 1)
	})

	t.Run("Zero Balance Cannot Be Debited", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 1, Reason: models.ReasonShippingCost})

		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})
}

func TestReferenceIdempotency(t *testing.T) {
	ref := models.Reference{Type: models.RefPayment, ID: "pay-123"}

	t.Run("Duplicate Reference Rejected", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		first, err := ledger.Credit(context.Background(), CreditInput{
			TenantID:  "tenant-1",
			Amount:    5000,
			Reason:    models.ReasonRecharge,
			Reference: ref,
		})
		assert.NoError(t, err)
		assert.Equal(t, ref, first.Reference)

		// A retry of the same business event must not double-credit.
		_, err = ledger.Credit(context.Background(), CreditInput{
			TenantID:  "tenant-1",
			Amount:    5000,
			Reason:    models.ReasonRecharge,
			Reference: ref,
		})
		assert.ErrorIs(t, err, ErrDuplicateReference)

		balance, err := ledger.GetBalance(context.Background(), "tenant-1")
		assert.NoError(t, err)
		assert.Equal(t, int64(5000), balance.Balance)
	})

	t.Run("Same Reference Different Reason", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 10000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		shipment := models.Reference{Type: models.RefShipment, ID: "ship-7"}

		// A shipping charge and an RTO charge may both point at the same
		// shipment.
		_, err = ledger.Debit(context.Background(), DebitInput{
			TenantID:  "tenant-1",
			Amount:    1200,
			Reason:    models.ReasonShippingCost,
			Reference: shipment,
		})
		assert.NoError(t, err)

		_, err = ledger.Debit(context.Background(), DebitInput{
			TenantID:  "tenant-1",
			Amount:    800,
			Reason:    models.ReasonRTOCharge,
			Reference: shipment,
		})
		assert.NoError(t, err)
	})

	t.Run("Same Reference Different Tenant", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)
		createTestAccount(t, ledger, "tenant-2", 0)

		for _, tenant := range []string{"tenant-1", "tenant-2"} {
			_, err := ledger.Credit(context.Background(), CreditInput{
				TenantID:  tenant,
				Amount:    5000,
				Reason:    models.ReasonCODRemittance,
				Reference: ref,
			})
			assert.NoError(t, err)
		}
	})
}

func TestRefund(t *testing.T) {
	t.Run("Refund Of Debit Restores Balance", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		debit, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 200, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)

		refund, err := ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-1", TransactionID: debit.ID})

		assert.NoError(t, err)
		assert.Equal(t, models.TypeCredit, refund.Type)
		assert.Equal(t, models.ReasonRefund, refund.Reason)
		assert.Equal(t, int64(200), refund.Amount)
		assert.Equal(t, int64(1000), refund.BalanceAfter)
		assert.Equal(t, models.Reference{Type: models.RefTransaction, ID: debit.ID}, refund.Reference)
	})

	t.Run("Refund Of Credit Claws Back", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		credit, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonCODRemittance})
		assert.NoError(t, err)

		refund, err := ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-1", TransactionID: credit.ID})

		assert.NoError(t, err)
		assert.Equal(t, models.TypeDebit, refund.Type)
		assert.Equal(t, int64(0), refund.BalanceAfter)
	})

	t.Run("Double Refund Rejected", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		debit, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 200, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)

		_, err = ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-1", TransactionID: debit.ID})
		assert.NoError(t, err)

		_, err = ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-1", TransactionID: debit.ID})
		assert.ErrorIs(t, err, ErrAlreadyRefunded)

		balance, err := ledger.GetBalance(context.Background(), "tenant-1")
		assert.NoError(t, err)
		assert.Equal(t, int64(1000), balance.Balance)
	})

	t.Run("Refund Of Refund Rejected", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		debit, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 200, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)

		refund, err := ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-1", TransactionID: debit.ID})
		assert.NoError(t, err)

		_, err = ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-1", TransactionID: refund.ID})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Refund Of Spent Credit", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		credit, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonCODRemittance})
		assert.NoError(t, err)

		_, err = ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 800, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)

		// Clawing back the full credit would overdraw the wallet.
		_, err = ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-1", TransactionID: credit.ID})
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("Unknown Transaction", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)

		_, err := ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-1", TransactionID: "no-such-tx"})

		assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
	})

	t.Run("Cross Tenant Lookup Fails", func(t *testing.T) {
		ledger, _ := newTestLedger(t)
		createTestAccount(t, ledger, "tenant-1", 0)
		createTestAccount(t, ledger, "tenant-2", 0)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		debit, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 200, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)

		_, err = ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-2", TransactionID: debit.ID})
		assert.ErrorIs(t, err, storage.ErrTransactionNotFound)
	})

	t.Run("Blank Input", func(t *testing.T) {
		ledger, _ := newTestLedger(t)

		_, err := ledger.Refund(context.Background(), RefundInput{TransactionID: "tx-1"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = ledger.Refund(context.Background(), RefundInput{TenantID: "tenant-1"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestLowBalanceAlerts(t *testing.T) {
	newAlertingLedger := func(t *testing.T, publisher alerts.Publisher) *Ledger {
		t.Helper()
		return NewLedger(memory.New(), Config{
			Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
			Alerts:       publisher,
			RetryBackoff: time.Millisecond,
		})
	}

	t.Run("Fires Once Per Downward Crossing", func(t *testing.T) {
		publisher := &capturePublisher{}
		ledger := newAlertingLedger(t, publisher)
		createTestAccount(t, ledger, "tenant-1", 500)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)
		assert.Empty(t, publisher.Events())

		// 1000 -> 400 crosses the threshold.
		_, err = ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 600, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)

		events := publisher.Events()
		assert.Len(t, events, 1)
		assert.Equal(t, "tenant-1", events[0].TenantID)
		assert.Equal(t, int64(400), events[0].Balance)
		assert.Equal(t, int64(500), events[0].Threshold)

		// Further debits below the threshold stay quiet.
		_, err = ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 100, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)
		assert.Len(t, publisher.Events(), 1)
	})

	t.Run("Fires Again After Recovery", func(t *testing.T) {
		publisher := &capturePublisher{}
		ledger := newAlertingLedger(t, publisher)
		createTestAccount(t, ledger, "tenant-1", 500)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		_, err = ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 600, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)
		assert.Len(t, publisher.Events(), 1)

		// Recover above the threshold, then cross again.
		_, err = ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 600, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		_, err = ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 600, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)
		assert.Len(t, publisher.Events(), 2)
	})

	t.Run("Landing Exactly On Threshold Is Not Low", func(t *testing.T) {
		publisher := &capturePublisher{}
		ledger := newAlertingLedger(t, publisher)
		createTestAccount(t, ledger, "tenant-1", 500)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		_, err = ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 500, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)
		assert.Empty(t, publisher.Events())
	})

	t.Run("Publish Failure Does Not Fail The Write", func(t *testing.T) {
		ledger := newAlertingLedger(t, failingPublisher{})
		createTestAccount(t, ledger, "tenant-1", 500)

		_, err := ledger.Credit(context.Background(), CreditInput{TenantID: "tenant-1", Amount: 1000, Reason: models.ReasonRecharge})
		assert.NoError(t, err)

		tx, err := ledger.Debit(context.Background(), DebitInput{TenantID: "tenant-1", Amount: 600, Reason: models.ReasonShippingCost})
		assert.NoError(t, err)
		assert.Equal(t, int64(400), tx.BalanceAfter)
	})
}
