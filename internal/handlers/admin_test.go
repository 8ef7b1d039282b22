package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"ticledger/internal/services"
	"ticledger/internal/store"
	"ticledger/internal/token"
)

func TestAdminDeposit(t *testing.T) {
	var got services.EntryRequest
	handler := newTestHandler(testDeps{
		entries: stubLedgerService{
			applyFn: func(_ context.Context, entry services.EntryRequest) (services.ApplyResult, error) {
				got = entry
				return services.ApplyResult{
					AccountEmail: entry.AccountEmail,
					WalletField:  entry.WalletField,
					Applied:      true,
					Balance:      entry.Amount,
				}, nil
			},
		},
	})
	rr := serveWithAuth(t, handler.AdminDeposit, "admin-1", http.MethodPost,
		jsonBody(`{"account_email":"user@example.com","wallet":"total","amount":"100","reference_id":"bank-tx-77"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.SourceReferenceID != "dep:bank-tx-77" {
		t.Fatalf("unexpected reference: %s", got.SourceReferenceID)
	}
	if got.Reason != token.ReasonDeposit || !got.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected entry: %#v", got)
	}
	if !strings.Contains(rr.Body.String(), `"duplicate":false`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestAdminDepositDuplicateReturnsOK(t *testing.T) {
	handler := newTestHandler(testDeps{
		entries: stubLedgerService{
			applyFn: func(_ context.Context, entry services.EntryRequest) (services.ApplyResult, error) {
				return services.ApplyResult{
					AccountEmail: entry.AccountEmail,
					WalletField:  entry.WalletField,
					Applied:      false,
					Balance:      decimal.NewFromInt(100),
				}, nil
			},
		},
	})
	rr := serveWithAuth(t, handler.AdminDeposit, "admin-1", http.MethodPost,
		jsonBody(`{"account_email":"user@example.com","wallet":"total","amount":"100","reference_id":"bank-tx-77"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"duplicate":true`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestAdminDepositRequiresReference(t *testing.T) {
	handler := newTestHandler(testDeps{
		entries: stubLedgerService{
			applyFn: func(context.Context, services.EntryRequest) (services.ApplyResult, error) {
				t.Fatalf("ledger should not be called")
				return services.ApplyResult{}, nil
			},
		},
	})
	rr := serveWithAuth(t, handler.AdminDeposit, "admin-1", http.MethodPost,
		jsonBody(`{"account_email":"user@example.com","wallet":"total","amount":"100"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAdminWithdrawNegatesAmount(t *testing.T) {
	var got services.EntryRequest
	handler := newTestHandler(testDeps{
		entries: stubLedgerService{
			applyFn: func(_ context.Context, entry services.EntryRequest) (services.ApplyResult, error) {
				got = entry
				return services.ApplyResult{Applied: true}, nil
			},
		},
	})
	rr := serveWithAuth(t, handler.AdminWithdraw, "admin-1", http.MethodPost,
		jsonBody(`{"account_email":"user@example.com","wallet":"total","amount":"25","reference_id":"payout-3"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.SourceReferenceID != "wd:payout-3" {
		t.Fatalf("unexpected reference: %s", got.SourceReferenceID)
	}
	if !got.Amount.Equal(decimal.NewFromInt(-25)) || got.Reason != token.ReasonWithdrawal {
		t.Fatalf("unexpected entry: %#v", got)
	}
}

func TestAdminWithdrawInsufficientBalance(t *testing.T) {
	handler := newTestHandler(testDeps{
		entries: stubLedgerService{
			applyFn: func(context.Context, services.EntryRequest) (services.ApplyResult, error) {
				return services.ApplyResult{}, services.ErrInsufficientBalance
			},
		},
	})
	rr := serveWithAuth(t, handler.AdminWithdraw, "admin-1", http.MethodPost,
		jsonBody(`{"account_email":"user@example.com","wallet":"total","amount":"25","reference_id":"payout-3"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "insufficient_balance") {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestPromoteAdminRequiresSuper(t *testing.T) {
	handler := newTestHandler(testDeps{
		admin: stubAdminStore{
			isAdminFn: func(context.Context, string) (bool, bool, error) {
				return true, false, nil
			},
		},
	})
	rr := serveWithAuth(t, handler.PromoteAdmin, "admin-1", http.MethodPost,
		jsonBody(`{"email":"user@example.com"}`))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestPromoteAdmin(t *testing.T) {
	var createdUserID string
	var createdSuper bool
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByEmailFn: func(_ context.Context, email string) (map[string]any, error) {
				return map[string]any{"id": "user-7", "email": email}, nil
			},
		},
		admin: stubAdminStore{
			isAdminFn: func(context.Context, string) (bool, bool, error) {
				return true, true, nil
			},
			createAdminFn: func(_ context.Context, _ store.Execer, userID string, isSuper bool, _ *string) error {
				createdUserID = userID
				createdSuper = isSuper
				return nil
			},
		},
	})
	rr := serveWithAuth(t, handler.PromoteAdmin, "admin-1", http.MethodPost,
		jsonBody(`{"email":"user@example.com"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if createdUserID != "user-7" || createdSuper {
		t.Fatalf("unexpected admin row: %s super=%v", createdUserID, createdSuper)
	}
}
