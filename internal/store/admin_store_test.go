package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestAdminStoreIsAdminNoRow(t *testing.T) {
	store := NewAdminStore(stubDB{
		getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		},
	})
	isAdmin, isSuper, err := store.IsAdmin(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isAdmin || isSuper {
		t.Fatalf("expected non-admin, got %v/%v", isAdmin, isSuper)
	}
}

func TestAdminStoreIsAdminSuper(t *testing.T) {
	store := NewAdminStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM admins") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*bool) = true
			return nil
		},
	})
	isAdmin, isSuper, err := store.IsAdmin(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isAdmin || !isSuper {
		t.Fatalf("expected super admin, got %v/%v", isAdmin, isSuper)
	}
}

func TestAdminStoreHasRole(t *testing.T) {
	store := NewAdminStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM admin_roles") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[1] != "CanManageLedger" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int) = 1
			return nil
		},
	})
	hasRole, err := store.HasRole(context.Background(), "user-1", "CanManageLedger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasRole {
		t.Fatalf("expected role present")
	}
}

func TestAdminStoreGrantRoleIdempotent(t *testing.T) {
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "ON CONFLICT DO NOTHING") {
				t.Fatalf("unexpected query: %s", query)
			}
			return stubResult{rows: 0}, nil
		},
	}
	store := NewAdminStore(stubDB{})
	if err := store.GrantRole(context.Background(), execer, "user-1", "CanViewUsers"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
