package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ticledger/internal/middleware"
	"ticledger/internal/services"
	"ticledger/internal/token"
	"ticledger/internal/validator"
)

type walletTransferRequest struct {
	FromWallet string `json:"from_wallet"`
	ToWallet   string `json:"to_wallet"`
	Amount     string `json:"amount"`
}

func (h *Handler) WalletTransfer(w http.ResponseWriter, r *http.Request) {
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
	var req walletTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	fromField, err := token.ParseWalletField(req.FromWallet)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown from_wallet")
		return
	}
	toField, err := token.ParseWalletField(req.ToWallet)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown to_wallet")
		return
	}
	amount, err := parsePositiveAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	transferID, err := h.transfers.TransferBetweenWallets(r.Context(), userID, email, fromField, toField, amount)
	if err != nil {
		respondTransferError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"transfer_id": transferID})
}

type userTransferRequest struct {
	ToEmail string `json:"to_email"`
	Amount  string `json:"amount"`
}

func (h *Handler) UserTransfer(w http.ResponseWriter, r *http.Request) {
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
	var req userTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateEmail(req.ToEmail); err != nil {
		respondError(w, http.StatusBadRequest, "invalid to_email")
		return
	}
	amount, err := parsePositiveAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	transferID, err := h.transfers.TransferToUser(r.Context(), userID, email, req.ToEmail, amount)
	if err != nil {
		respondTransferError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"transfer_id": transferID})
}

func respondTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInsufficientBalance):
		respondError(w, http.StatusBadRequest, "insufficient_balance")
	case errors.Is(err, services.ErrSameWallet):
		respondError(w, http.StatusBadRequest, "same_wallet")
	case errors.Is(err, services.ErrSameAccountTransfer):
		respondError(w, http.StatusBadRequest, "same_account")
	case errors.Is(err, services.ErrAccountNotFound):
		respondError(w, http.StatusNotFound, "account_not_found")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	default:
		respondError(w, http.StatusInternalServerError, "transfer_failed")
	}
}
