package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"ticledger/internal/validator"
)

type cronDistributionRequest struct {
	Date string `json:"date"`
}

// CronDailyDistribution runs the daily token distribution. The date
// defaults to today (UTC); passing an earlier date re-runs it, which the
// idempotency keys turn into a no-op for already-credited users.
func (h *Handler) CronDailyDistribution(w http.ResponseWriter, r *http.Request) {
	var req cronDistributionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	date := time.Now().UTC()
	if req.Date != "" {
		if err := validator.ValidateDate(req.Date); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		parsed, err := parseDate(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, validator.ErrInvalidDate.Error())
			return
		}
		date = parsed
	}
	report, err := h.distService.RunDaily(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "distribution_run_failed")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

type cronRankRequest struct {
	Month string `json:"month"`
}

// CronRankBonus runs the monthly rank bonus evaluation. The month defaults
// to the previous calendar month, the one just completed.
func (h *Handler) CronRankBonus(w http.ResponseWriter, r *http.Request) {
	var req cronRankRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	month := req.Month
	if month == "" {
		now := time.Now().UTC()
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		month = firstOfMonth.AddDate(0, 0, -1).Format("2006-01")
	}
	if err := validator.ValidateMonth(month); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.rankService.RunMonthly(r.Context(), month)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "rank_run_failed")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) CronExpireSubscriptions(w http.ResponseWriter, r *http.Request) {
	expired, err := h.subService.ExpireEnded(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "expire_run_failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"expired": expired})
}
