package wallets

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freightdesk/wallet-ledger/pkg/models"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
	"github.com/freightdesk/wallet-ledger/pkg/wallet"
)

// WalletsHandler exposes the wallet ledger over HTTP. It is a thin adapter:
// all business rules live in the wallet package.
type WalletsHandler struct {
	Ledger *wallet.Ledger
	Logger *slog.Logger
}

// NewWalletsHandler creates a new WalletsHandler.
func NewWalletsHandler(ledger *wallet.Ledger, logger *slog.Logger) *WalletsHandler {
	return &WalletsHandler{Ledger: ledger, Logger: logger}
}

// Routes mounts the wallet endpoints.
func (h *WalletsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateAccount)
	r.Get("/{tenantID}/balance", h.GetBalance)
	r.Post("/{tenantID}/credits", h.Credit)
	r.Post("/{tenantID}/debits", h.Debit)
	r.Post("/{tenantID}/refunds", h.Refund)
	r.Put("/{tenantID}/threshold", h.UpdateThreshold)
	r.Post("/{tenantID}/deactivate", h.Deactivate)
	r.Post("/{tenantID}/reactivate", h.Reactivate)
	r.Get("/{tenantID}/transactions", h.ListTransactions)
	r.Get("/{tenantID}/transactions/{transactionID}", h.GetTransaction)
	return r
}

type createAccountRequest struct {
	TenantID            string `json:"tenant_id"`
	Currency            string `json:"currency,omitempty"`
	LowBalanceThreshold int64  `json:"low_balance_threshold,omitempty"`
}

type mutationRequest struct {
	Amount      int64            `json:"amount"`
	Reason      models.Reason    `json:"reason"`
	Reference   models.Reference `json:"reference,omitempty"`
	PerformedBy string           `json:"performed_by,omitempty"`
}

type refundRequest struct {
	TransactionID string `json:"transaction_id"`
	PerformedBy   string `json:"performed_by,omitempty"`
}

type thresholdRequest struct {
	LowBalanceThreshold int64 `json:"low_balance_threshold"`
}

type transactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateAccount handles the logic for provisioning a tenant wallet.
func (h *WalletsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	account, err := h.Ledger.CreateAccount(r.Context(), wallet.CreateAccountInput{
		TenantID:            req.TenantID,
		Currency:            req.Currency,
		LowBalanceThreshold: req.LowBalanceThreshold,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, account)
}

// GetBalance handles the logic for reading a tenant's balance.
func (h *WalletsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.Ledger.GetBalance(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, balance)
}

// Credit handles the logic for adding funds to a wallet.
func (h *WalletsHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	tx, err := h.Ledger.Credit(r.Context(), wallet.CreditInput{
		TenantID:    chi.URLParam(r, "tenantID"),
		Amount:      req.Amount,
		Reason:      req.Reason,
		Reference:   req.Reference,
		PerformedBy: req.PerformedBy,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, tx)
}

// Debit handles the logic for charging a wallet.
func (h *WalletsHandler) Debit(w http.ResponseWriter, r *http.Request) {
	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	tx, err := h.Ledger.Debit(r.Context(), wallet.DebitInput{
		TenantID:    chi.URLParam(r, "tenantID"),
		Amount:      req.Amount,
		Reason:      req.Reason,
		Reference:   req.Reference,
		PerformedBy: req.PerformedBy,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, tx)
}

// Refund handles the logic for reversing a previous transaction.
func (h *WalletsHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	tx, err := h.Ledger.Refund(r.Context(), wallet.RefundInput{
		TenantID:      chi.URLParam(r, "tenantID"),
		TransactionID: req.TransactionID,
		PerformedBy:   req.PerformedBy,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, tx)
}

// UpdateThreshold handles the logic for changing the low balance threshold.
func (h *WalletsHandler) UpdateThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	if err := h.Ledger.UpdateLowBalanceThreshold(r.Context(), chi.URLParam(r, "tenantID"), req.LowBalanceThreshold); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Deactivate handles the logic for blocking a wallet's mutations.
func (h *WalletsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.DeactivateAccount(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reactivate handles the logic for lifting a wallet's deactivation.
func (h *WalletsHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.ReactivateAccount(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTransaction handles the logic for reading a single transaction.
func (h *WalletsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Ledger.GetTransaction(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tx)
}

// ListTransactions handles the logic for paging through a wallet's history.
func (h *WalletsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := storage.TransactionQuery{
		Type:   models.TransactionType(r.URL.Query().Get("type")),
		Reason: models.Reason(r.URL.Query().Get("reason")),
		Cursor: r.URL.Query().Get("cursor"),
	}

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from timestamp, want RFC 3339"})
			return
		}
		q.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid to timestamp, want RFC 3339"})
			return
		}
		q.To = t
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		q.Limit = int32(n)
	}

	page, err := h.Ledger.GetTransactionHistory(r.Context(), chi.URLParam(r, "tenantID"), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	txs := page.Transactions
	if txs == nil {
		txs = []models.Transaction{}
	}
	respondJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, NextCursor: page.NextCursor})
}

// respondError translates ledger errors into HTTP statuses. Anything outside
// the ledger's error taxonomy is an infrastructure fault: it logs and returns
// an opaque 500.
func (h *WalletsHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrInvalidInput),
		errors.Is(err, storage.ErrInvalidCursor):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, storage.ErrAccountNotFound),
		errors.Is(err, storage.ErrTransactionNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	case errors.Is(err, wallet.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
		msg = err.Error()
	case errors.Is(err, storage.ErrAccountExists),
		errors.Is(err, wallet.ErrDuplicateReference),
		errors.Is(err, wallet.ErrAlreadyRefunded),
		errors.Is(err, wallet.ErrAccountDisabled):
		status = http.StatusConflict
		msg = err.Error()
	case errors.Is(err, wallet.ErrConcurrencyExhausted):
		w.Header().Set("Retry-After", "1")
		status = http.StatusServiceUnavailable
		msg = err.Error()
	default:
		h.Logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}

	respondJSON(w, status, errorResponse{Error: msg})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
