package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestReferralStoreCreateEdge(t *testing.T) {
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO referral_edges") || !strings.Contains(query, "DO NOTHING") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 3 || args[2] != 1 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewReferralStore(stubDB{})
	if err := store.CreateEdge(context.Background(), execer, "upline@example.com", "new@example.com", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReferralStoreUpline(t *testing.T) {
	store := NewReferralStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "referred_email = $1") || !strings.Contains(query, "level_depth <= $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[1] != 15 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]ReferralEdge) = []ReferralEdge{
				{ReferrerEmail: "a@example.com", LevelDepth: 1, IsActive: true},
				{ReferrerEmail: "b@example.com", LevelDepth: 2, IsActive: true},
			}
			return nil
		},
	})
	edges, err := store.Upline(context.Background(), "new@example.com", 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 2 || edges[0].LevelDepth != 1 {
		t.Fatalf("unexpected edges: %#v", edges)
	}
}

func TestReferralStoreMaxDepthEmptyNetwork(t *testing.T) {
	store := NewReferralStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "MAX(level_depth)") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*sql.NullInt64) = sql.NullInt64{}
			return nil
		},
	})
	depth, err := store.MaxDepth(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if depth != 0 {
		t.Fatalf("expected depth 0 for empty network, got %d", depth)
	}
}

func TestReferralStoreCountDirect(t *testing.T) {
	store := NewReferralStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "level_depth = 1") || !strings.Contains(query, "is_active") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*int) = 7
			return nil
		},
	})
	count, err := store.CountDirect(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7, got %d", count)
	}
}
