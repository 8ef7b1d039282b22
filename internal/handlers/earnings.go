package handlers

import (
	"net/http"

	"ticledger/internal/token"
)

func (h *Handler) ListMyDistributions(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 31)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	records, err := h.distributions.ListByUser(r.Context(), email, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load distributions")
		return
	}
	normalized := make([]map[string]any, 0, len(records))
	for _, record := range records {
		normalized = append(normalized, map[string]any{
			"date":               record.DistributionDate.Format("2006-01-02"),
			"token_amount":       token.FormatAmount(record.TokenAmount),
			"subscription_count": record.SubscriptionCount,
			"status":             record.Status,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) ListMyCommissions(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	events, err := h.commissions.ListByReferrer(r.Context(), email, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load commissions")
		return
	}
	normalized := make([]map[string]any, 0, len(events))
	for _, event := range events {
		normalized = append(normalized, map[string]any{
			"referred_email": event.ReferredEmail,
			"level":          event.Level,
			"rate":           event.Rate.String(),
			"amount":         token.FormatAmount(event.Amount),
			"date":           event.DistributionDate.Format("2006-01-02"),
			"created_at":     event.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) ListMyRankBonuses(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 12)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	records, err := h.rankBonuses.ListByUser(r.Context(), email, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load rank bonuses")
		return
	}
	normalized := make([]map[string]any, 0, len(records))
	for _, record := range records {
		normalized = append(normalized, map[string]any{
			"month":        record.DistributionMonth,
			"rank":         record.Rank,
			"bonus_amount": token.FormatAmount(record.BonusAmount),
			"tic_amount":   token.FormatAmount(record.TicAmount),
			"gic_amount":   token.FormatAmount(record.GicAmount),
			"created_at":   record.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}
