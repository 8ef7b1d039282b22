package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"ticledger/internal/middleware"
	"ticledger/internal/services"
	"ticledger/internal/token"
	"ticledger/internal/validator"
)

type promoteRequest struct {
	Email string `json:"email"`
}

func (h *Handler) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	_, isSuper, err := h.admin.IsAdmin(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify admin")
		return
	}
	if !isSuper {
		respondError(w, http.StatusForbidden, "super_admin_required")
		return
	}
	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to resolve user")
		return
	}
	targetUserID := valueToString(user["id"])
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.admin.CreateAdmin(r.Context(), tx, targetUserID, false, &userID); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"target_user_id": targetUserID,
		})
		return h.audit.Log(r.Context(), tx, userID, "promote_admin", "admin", targetUserID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to promote admin")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "promoted"})
}

type grantRoleRequest struct {
	AdminUserID string `json:"admin_user_id"`
	Role        string `json:"role"`
}

func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	_, isSuper, err := h.admin.IsAdmin(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify admin")
		return
	}
	if !isSuper {
		respondError(w, http.StatusForbidden, "super_admin_required")
		return
	}
	var req grantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AdminUserID == "" || req.Role == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	isAdmin, targetSuper, err := h.admin.IsAdmin(r.Context(), req.AdminUserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify target admin")
		return
	}
	if !isAdmin {
		respondError(w, http.StatusBadRequest, "target is not an admin")
		return
	}
	if targetSuper {
		respondError(w, http.StatusBadRequest, "cannot assign roles to super admin")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.admin.GrantRole(r.Context(), tx, req.AdminUserID, req.Role); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"admin_user_id": req.AdminUserID,
			"role":          req.Role,
		})
		return h.audit.Log(r.Context(), tx, userID, "grant_role", "admin_role", req.AdminUserID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to grant role")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "role_granted"})
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	users, err := h.users.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) AdminListAccounts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	accounts, err := h.accounts.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	normalized := make([]map[string]any, 0, len(accounts))
	for _, account := range accounts {
		normalized = append(normalized, map[string]any{
			"email":           account.Email,
			"total_balance":   token.FormatAmount(account.TotalBalance),
			"tic_balance":     token.FormatAmount(account.TicBalance),
			"gic_balance":     token.FormatAmount(account.GicBalance),
			"staking_balance": token.FormatAmount(account.StakingBalance),
			"partner_balance": token.FormatAmount(account.PartnerBalance),
			"created_at":      account.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

type boundaryEntryRequest struct {
	AccountEmail string `json:"account_email"`
	Wallet       string `json:"wallet"`
	Amount       string `json:"amount"`
	ReferenceID  string `json:"reference_id"`
}

// AdminDeposit credits an external deposit into a user's wallet. The
// caller-supplied reference id is the idempotency key: re-posting the same
// deposit returns duplicate=true and changes nothing.
func (h *Handler) AdminDeposit(w http.ResponseWriter, r *http.Request) {
	h.applyBoundaryEntry(w, r, token.ReasonDeposit)
}

// AdminWithdraw debits a user's wallet for an external withdrawal. Fails
// with insufficient_balance rather than overdrawing.
func (h *Handler) AdminWithdraw(w http.ResponseWriter, r *http.Request) {
	h.applyBoundaryEntry(w, r, token.ReasonWithdrawal)
}

func (h *Handler) applyBoundaryEntry(w http.ResponseWriter, r *http.Request, reason token.Reason) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req boundaryEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateEmail(req.AccountEmail); err != nil {
		respondError(w, http.StatusBadRequest, "invalid account_email")
		return
	}
	if strings.TrimSpace(req.ReferenceID) == "" {
		respondError(w, http.StatusBadRequest, "reference_id is required")
		return
	}
	field, err := token.ParseWalletField(req.Wallet)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown wallet")
		return
	}
	amount, err := parsePositiveAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	reference := fmt.Sprintf("dep:%s", req.ReferenceID)
	if reason == token.ReasonWithdrawal {
		amount = amount.Neg()
		reference = fmt.Sprintf("wd:%s", req.ReferenceID)
	}
	result, err := h.entries.ApplyEntry(r.Context(), services.EntryRequest{
		EntryID:           uuid.NewString(),
		AccountEmail:      req.AccountEmail,
		WalletField:       field,
		Amount:            amount,
		Reason:            reason,
		SourceReferenceID: reference,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			respondError(w, http.StatusNotFound, "account_not_found")
		case errors.Is(err, services.ErrInsufficientBalance):
			respondError(w, http.StatusBadRequest, "insufficient_balance")
		default:
			respondError(w, http.StatusInternalServerError, "ledger_write_failed")
		}
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		data, _ := json.Marshal(map[string]string{
			"account": req.AccountEmail,
			"wallet":  string(field),
			"amount":  token.FormatAmount(amount),
		})
		return h.audit.Log(r.Context(), tx, userID, string(reason), "ledger_entry", reference, string(data))
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "ledger_write_failed")
		return
	}
	status := http.StatusCreated
	if !result.Applied {
		status = http.StatusOK
	}
	respondJSON(w, status, map[string]any{
		"account_email": result.AccountEmail,
		"wallet":        string(result.WalletField),
		"balance":       token.FormatAmount(result.Balance),
		"duplicate":     !result.Applied,
	})
}

func (h *Handler) AdminListDistributions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rawDate := query.Get("date")
	if err := validator.ValidateDate(rawDate); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(rawDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, validator.ErrInvalidDate.Error())
		return
	}
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	records, err := h.distributions.ListByDate(r.Context(), date, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load distributions")
		return
	}
	summary, err := h.distributions.SummarizeDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load distributions")
		return
	}
	commissionSummary, err := h.commissions.SummarizeDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load distributions")
		return
	}
	normalized := make([]map[string]any, 0, len(records))
	for _, record := range records {
		normalized = append(normalized, map[string]any{
			"user_email":         record.UserEmail,
			"token_amount":       token.FormatAmount(record.TokenAmount),
			"subscription_count": record.SubscriptionCount,
			"status":             record.Status,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"date":               rawDate,
		"users":              summary.Users,
		"total_tokens":       token.FormatAmount(summary.TotalTokens),
		"commission_payouts": commissionSummary.Payouts,
		"commission_total":   token.FormatAmount(commissionSummary.TotalAmount),
		"records":            normalized,
	})
}

func (h *Handler) AdminListRankBonuses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	month := query.Get("month")
	if err := validator.ValidateMonth(month); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	records, err := h.rankBonuses.ListByMonth(r.Context(), month, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load rank bonuses")
		return
	}
	normalized := make([]map[string]any, 0, len(records))
	for _, record := range records {
		normalized = append(normalized, map[string]any{
			"user_email":   record.UserEmail,
			"rank":         record.Rank,
			"bonus_amount": token.FormatAmount(record.BonusAmount),
			"tic_amount":   token.FormatAmount(record.TicAmount),
			"gic_amount":   token.FormatAmount(record.GicAmount),
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	rows, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// Reconcile recomputes every wallet balance from the ledger and reports
// stored-versus-derived drift across all accounts.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	type reconRow struct {
		AccountEmail  string          `db:"account_email"`
		WalletField   string          `db:"wallet_field"`
		StoredBalance decimal.Decimal `db:"stored_balance"`
		LedgerSum     decimal.Decimal `db:"ledger_sum"`
	}
	var rows []reconRow
	query := `
		SELECT a.email AS account_email,
		       w.wallet_field,
		       (CASE w.wallet_field
		          WHEN 'total' THEN a.total_balance
		          WHEN 'tic' THEN a.tic_balance
		          WHEN 'gic' THEN a.gic_balance
		          WHEN 'staking' THEN a.staking_balance
		          ELSE a.partner_balance
		        END) AS stored_balance,
		       COALESCE(SUM(l.amount), 0) AS ledger_sum
		FROM accounts a
		CROSS JOIN (VALUES ('total'), ('tic'), ('gic'), ('staking'), ('partner')) AS w(wallet_field)
		LEFT JOIN ledger_entries l
		  ON l.account_email = a.email AND l.wallet_field = w.wallet_field
		GROUP BY a.email, w.wallet_field, a.total_balance, a.tic_balance, a.gic_balance, a.staking_balance, a.partner_balance
		ORDER BY a.email, w.wallet_field
	`
	if err := h.reconcileDB.SelectContext(r.Context(), &rows, query); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to reconcile balances")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		difference := row.StoredBalance.Sub(row.LedgerSum)
		normalized = append(normalized, map[string]any{
			"account_email":  row.AccountEmail,
			"wallet":         row.WalletField,
			"stored_balance": token.FormatAmount(row.StoredBalance),
			"ledger_sum":     token.FormatAmount(row.LedgerSum),
			"difference":     token.FormatAmount(difference),
			"in_sync":        difference.IsZero(),
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}
