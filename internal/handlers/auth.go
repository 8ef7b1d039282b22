package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"ticledger/internal/auth"
	"ticledger/internal/middleware"
	"ticledger/internal/token"
	"ticledger/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type registerRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	ReferrerEmail string `json:"referrer_email"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateUsername(req.Username); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ReferrerEmail != "" {
		if err := validator.ValidateEmail(req.ReferrerEmail); err != nil {
			respondError(w, http.StatusBadRequest, "invalid referrer email")
			return
		}
		if req.ReferrerEmail == req.Email {
			respondError(w, http.StatusBadRequest, "cannot refer yourself")
			return
		}
		if _, err := h.users.GetByEmail(r.Context(), req.ReferrerEmail); err != nil {
			if err == sql.ErrNoRows {
				respondError(w, http.StatusBadRequest, "referrer not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "unable to resolve referrer")
			return
		}
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	userID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.Create(r.Context(), tx, userID, req.Username, req.Email, passwordHash); err != nil {
			return err
		}
		if err := h.accounts.Create(r.Context(), tx, req.Email); err != nil {
			return err
		}
		if req.ReferrerEmail != "" {
			if err := h.enrollReferral(r.Context(), tx, req.ReferrerEmail, req.Email); err != nil {
				return err
			}
		}
		hasAdmin, err := h.admin.HasAnyAdmin(r.Context())
		if err != nil {
			return err
		}
		if !hasAdmin {
			if err := h.admin.CreateAdmin(r.Context(), tx, userID, true, nil); err != nil {
				return err
			}
		}
		data, _ := json.Marshal(map[string]string{
			"user_id":    userID,
			"referrer":   req.ReferrerEmail,
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, userID, "register", "user", userID, string(data))
	})
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok {
			if pgErr.Code == "23505" {
				respondError(w, http.StatusConflict, "username or email already exists")
				return
			}
		}
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	jwtToken, err := auth.GenerateToken(h.cfg.JWTSecret, userID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"token": jwtToken,
	})
}

// enrollReferral links a new user under their referrer: a level-1 edge to
// the referrer plus one edge per ancestor, each a level deeper, capped at
// the unilevel maximum.
func (h *Handler) enrollReferral(ctx context.Context, tx *sqlx.Tx, referrerEmail, newEmail string) error {
	if err := h.referrals.CreateEdge(ctx, tx, referrerEmail, newEmail, 1); err != nil {
		return err
	}
	ancestors, err := h.referrals.Upline(ctx, referrerEmail, token.MaxReferralDepth-1)
	if err != nil {
		return err
	}
	for _, edge := range ancestors {
		if err := h.referrals.CreateEdge(ctx, tx, edge.ReferrerEmail, newEmail, edge.LevelDepth+1); err != nil {
			return err
		}
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !auth.CheckPassword(valueToString(user["password_hash"]), req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		data, _ := json.Marshal(map[string]string{
			"user_id":    valueToString(user["id"]),
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, valueToString(user["id"]), "login", "user", valueToString(user["id"]), string(data))
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	jwtToken, err := auth.GenerateToken(h.cfg.JWTSecret, valueToString(user["id"]), h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"token": jwtToken,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":         valueToString(user["id"]),
		"username":   valueToString(user["username"]),
		"email":      valueToString(user["email"]),
		"created_at": user["created_at"],
	})
}

// requireEmail resolves the authenticated user's account email.
func (h *Handler) requireEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	email, err := h.users.EmailByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return "", false
	}
	return email, true
}
