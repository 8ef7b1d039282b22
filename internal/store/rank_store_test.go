package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRankBonusStoreInsert(t *testing.T) {
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "ON CONFLICT (user_email, distribution_month) DO NOTHING") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 6 || args[1] != "2026-08" || args[2] != "bronze" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewRankBonusStore(stubDB{})
	inserted, err := store.Insert(context.Background(), execer, RankBonusRecord{
		UserEmail:         "user@example.com",
		DistributionMonth: "2026-08",
		Rank:              "bronze",
		BonusAmount:       decimal.NewFromInt(690),
		TicAmount:         decimal.NewFromInt(345),
		GicAmount:         decimal.NewFromInt(345),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Fatalf("expected inserted=true")
	}
}

func TestRankBonusStoreInsertDuplicateMonth(t *testing.T) {
	execer := stubExecer{
		execFn: func(context.Context, string, ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}
	store := NewRankBonusStore(stubDB{})
	inserted, err := store.Insert(context.Background(), execer, RankBonusRecord{
		UserEmail:         "user@example.com",
		DistributionMonth: "2026-08",
		Rank:              "gold",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted {
		t.Fatalf("expected inserted=false for already-paid month")
	}
}

func TestRankBonusStoreExists(t *testing.T) {
	store := NewRankBonusStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM rank_bonus_records") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[1] != "2026-07" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int) = 1
			return nil
		},
	})
	exists, err := store.Exists(context.Background(), "user@example.com", "2026-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatalf("expected exists=true")
	}
}
