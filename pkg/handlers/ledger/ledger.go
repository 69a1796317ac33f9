package ledger

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freightdesk/wallet-ledger/pkg/reconcile"
)

// LedgerHandler exposes ledger-wide operational endpoints. Tenant-scoped
// reads live on the wallets handler; this surface is for operators.
type LedgerHandler struct {
	Auditor *reconcile.Auditor
	Logger  *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(auditor *reconcile.Auditor, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{Auditor: auditor, Logger: logger}
}

// Routes mounts the ledger endpoints.
func (h *LedgerHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/audit", h.Audit)
	return r
}

type auditResponse struct {
	Clean  bool              `json:"clean"`
	Drifts []reconcile.Drift `json:"drifts"`
}

// Audit replays every tenant's transaction log against its stored balance
// and reports the accounts that disagree. The scheduled sweep does the same
// thing; this endpoint exists so an operator can check on demand.
func (h *LedgerHandler) Audit(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.Auditor.Audit(r.Context())
	if err != nil {
		h.Logger.Error("audit failed", slog.Any("error", err))
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if drifts == nil {
		drifts = []reconcile.Drift{}
	}
	respondJSON(w, http.StatusOK, auditResponse{Clean: len(drifts) == 0, Drifts: drifts})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
