package models

import (
	"fmt"
	"time"
)

// DefaultCurrency is assigned to accounts provisioned without an explicit currency.
const DefaultCurrency = "INR"

// SystemActor marks ledger writes initiated by the platform itself rather than an operator.
const SystemActor = "system"

// AccountStatus defines the lifecycle states of a wallet account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountDisabled AccountStatus = "disabled"
)

// TransactionType defines the direction of a ledger entry.
type TransactionType string

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeCredit || t == TypeDebit
}

// Reason classifies why a balance moved. The set is closed; new business
// events get a new constant here rather than free-form strings.
type Reason string

const (
	ReasonRecharge         Reason = "recharge"
	ReasonShippingCost     Reason = "shipping_cost"
	ReasonRTOCharge        Reason = "rto_charge"
	ReasonCODRemittance    Reason = "cod_remittance"
	ReasonRefund           Reason = "refund"
	ReasonManualAdjustment Reason = "manual_adjustment"
)

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	switch r {
	case ReasonRecharge, ReasonShippingCost, ReasonRTOCharge, ReasonCODRemittance, ReasonRefund, ReasonManualAdjustment:
		return true
	}
	return false
}

// Well-known reference types. The Type field is free-form so callers can link
// entities this package does not know about, but these cover the platform.
const (
	RefShipment    = "shipment"
	RefOrder       = "order"
	RefPayment     = "payment"
	RefTicket      = "ticket"
	RefTransaction = "transaction"
)

// Reference links a transaction to the business entity that caused it.
// The zero value means the transaction carries no reference.
type Reference struct {
	Type string `json:"type,omitempty" dynamodbav:"type,omitempty"`
	ID   string `json:"id,omitempty" dynamodbav:"id,omitempty"`
}

// IsZero reports whether the reference is absent.
func (r Reference) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

// ReferenceKey builds the idempotency key under which a referenced transaction
// is recorded. The key is scoped by reason so that, for example, a shipping
// charge and an RTO charge may both point at the same shipment while a second
// refund of the same transaction collides. Returns "" for a zero reference.
func ReferenceKey(tenantID string, ref Reference, reason Reason) string {
	if ref.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s#%s#%s#%s", tenantID, ref.Type, ref.ID, reason)
}

// Account is the single balance row a tenant holds. All money is in the
// smallest currency unit (paise for INR). Version is the optimistic
// concurrency token: it starts at 1 and moves by exactly one per applied
// ledger transaction, and only then.
type Account struct {
	TenantID            string        `json:"tenant_id" dynamodbav:"tenant_id"`
	Balance             int64         `json:"balance" dynamodbav:"balance"`
	Currency            string        `json:"currency" dynamodbav:"currency"`
	LowBalanceThreshold int64         `json:"low_balance_threshold" dynamodbav:"low_balance_threshold"`
	Status              AccountStatus `json:"status" dynamodbav:"status"`
	Version             int64         `json:"version" dynamodbav:"version"`
	CreatedAt           time.Time     `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" dynamodbav:"updated_at"`
}

// IsLowBalance reports whether the balance sits below the configured threshold.
func (a *Account) IsLowBalance() bool {
	return a.Balance < a.LowBalanceThreshold
}

// Transaction is one immutable ledger entry. Amount is always a positive
// magnitude; Type carries the direction. BalanceAfter snapshots the account
// balance the moment the entry was committed, so history reads need no replay.
type Transaction struct {
	ID           string          `json:"id" dynamodbav:"id"`
	TenantID     string          `json:"tenant_id" dynamodbav:"tenant_id"`
	Type         TransactionType `json:"type" dynamodbav:"type"`
	Reason       Reason          `json:"reason" dynamodbav:"reason"`
	Amount       int64           `json:"amount" dynamodbav:"amount"`
	BalanceAfter int64           `json:"balance_after" dynamodbav:"balance_after"`
	Reference    Reference       `json:"reference,omitempty" dynamodbav:"reference,omitempty"`
	RefKey       string          `json:"-" dynamodbav:"ref_key,omitempty"`
	PerformedBy  string          `json:"performed_by" dynamodbav:"performed_by"`
	CreatedAt    time.Time       `json:"created_at" dynamodbav:"created_at"`
}

// SignedAmount returns the amount with its direction applied: positive for
// credits, negative for debits.
func (t *Transaction) SignedAmount() int64 {
	if t.Type == TypeDebit {
		return -t.Amount
	}
	return t.Amount
}

// Balance is the read model returned by balance queries.
type Balance struct {
	TenantID            string    `json:"tenant_id"`
	Balance             int64     `json:"balance"`
	Currency            string    `json:"currency"`
	LowBalanceThreshold int64     `json:"low_balance_threshold"`
	IsLowBalance        bool      `json:"is_low_balance"`
	AsOf                time.Time `json:"as_of"`
}
