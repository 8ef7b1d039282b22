package handlers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"ticledger/internal/auth"
	"ticledger/internal/token"
	"ticledger/internal/websocket"
)

func (h *Handler) GetWallets(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.GetByEmail(r.Context(), email)
	if err != nil {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"email":           account.Email,
		"total_balance":   token.FormatAmount(account.TotalBalance),
		"tic_balance":     token.FormatAmount(account.TicBalance),
		"gic_balance":     token.FormatAmount(account.GicBalance),
		"staking_balance": token.FormatAmount(account.StakingBalance),
		"partner_balance": token.FormatAmount(account.PartnerBalance),
		"created_at":      account.CreatedAt,
	})
}

func (h *Handler) LedgerHistory(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 20)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	entries, err := h.ledger.ListByAccount(r.Context(), email, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load history")
		return
	}
	normalized := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		normalized = append(normalized, map[string]any{
			"id":                  entry.ID,
			"wallet":              entry.WalletField,
			"amount":              token.FormatAmount(entry.Amount),
			"reason":              entry.Reason,
			"source_reference_id": entry.SourceReferenceID,
			"created_at":          entry.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

// SelfCheck recomputes the caller's wallet balances from the ledger and
// reports any drift from the stored columns.
func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.GetByEmail(r.Context(), email)
	if err != nil {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}
	sums, err := h.ledger.SumAllWallets(r.Context(), email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to self_check")
		return
	}
	ledgerByWallet := make(map[string]string, len(sums))
	for _, sum := range sums {
		ledgerByWallet[sum.WalletField] = token.FormatAmount(sum.LedgerSum)
	}
	response := make([]map[string]any, 0, 5)
	for _, field := range []token.WalletField{token.WalletTotal, token.WalletTic, token.WalletGic, token.WalletStaking, token.WalletPartner} {
		stored := account.Wallet(field)
		ledgerSum := ledgerByWallet[string(field)]
		if ledgerSum == "" {
			ledgerSum = token.FormatAmount(decimal.Zero)
		}
		response = append(response, map[string]any{
			"wallet":         string(field),
			"stored_balance": token.FormatAmount(stored),
			"ledger_sum":     ledgerSum,
			"in_sync":        token.FormatAmount(stored) == ledgerSum,
		})
	}
	respondJSON(w, http.StatusOK, response)
}

func (h *Handler) WSWallets(w http.ResponseWriter, r *http.Request) {
	rawToken := r.URL.Query().Get("token")
	if rawToken == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			rawToken = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if rawToken == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, rawToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	email, err := h.users.EmailByID(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	websocket.ServeWS(w, r, h.hub, email)
}
