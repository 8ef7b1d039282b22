package handlers

import (
	"net/http"

	"ticledger/internal/token"
)

func (h *Handler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}
	edges, err := h.referrals.ListByReferrer(r.Context(), email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load referrals")
		return
	}
	normalized := make([]map[string]any, 0, len(edges))
	for _, edge := range edges {
		normalized = append(normalized, map[string]any{
			"referred_email": edge.ReferredEmail,
			"level":          edge.LevelDepth,
			"is_active":      edge.IsActive,
			"created_at":     edge.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

// ReferralStats reports the numbers the monthly rank evaluation uses, plus
// the rank they would currently earn.
func (h *Handler) ReferralStats(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}
	directCount, err := h.referrals.CountDirect(r.Context(), email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load referral stats")
		return
	}
	maxDepth, err := h.referrals.MaxDepth(r.Context(), email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load referral stats")
		return
	}
	rank := token.QualifyRank(directCount, maxDepth)
	respondJSON(w, http.StatusOK, map[string]any{
		"direct_referrals": directCount,
		"max_depth":        maxDepth,
		"current_rank":     string(rank),
		"monthly_bonus":    token.FormatAmount(token.RankBonus(rank)),
	})
}
