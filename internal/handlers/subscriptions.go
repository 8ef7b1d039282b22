package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ticledger/internal/middleware"
	"ticledger/internal/token"
	"ticledger/internal/validator"
)

type purchaseRequest struct {
	Plan      string `json:"plan"`
	StartDate string `json:"start_date"`
}

func (h *Handler) PurchaseSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	email, err := h.users.EmailByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	startDate := time.Now().UTC()
	if req.StartDate != "" {
		if err := validator.ValidateDate(req.StartDate); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		startDate, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, validator.ErrInvalidDate.Error())
			return
		}
	}
	sub, err := h.subService.Purchase(r.Context(), userID, email, req.Plan, startDate)
	if err != nil {
		if errors.Is(err, token.ErrUnknownPlan) {
			respondError(w, http.StatusBadRequest, "unknown_plan")
			return
		}
		respondError(w, http.StatusInternalServerError, "purchase_failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":         sub.ID,
		"plan":       sub.PlanID,
		"status":     sub.Status,
		"start_date": sub.StartDate.Format("2006-01-02"),
		"end_date":   sub.EndDate.Format("2006-01-02"),
	})
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	email, ok := h.requireEmail(w, r)
	if !ok {
		return
	}
	subs, err := h.subscriptions.ListByUser(r.Context(), email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load subscriptions")
		return
	}
	normalized := make([]map[string]any, 0, len(subs))
	for _, sub := range subs {
		normalized = append(normalized, map[string]any{
			"id":         sub.ID,
			"plan":       sub.PlanID,
			"status":     sub.Status,
			"start_date": sub.StartDate.Format("2006-01-02"),
			"end_date":   sub.EndDate.Format("2006-01-02"),
			"created_at": sub.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}
