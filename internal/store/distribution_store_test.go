package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDistributionStoreInsert(t *testing.T) {
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "ON CONFLICT (user_email, distribution_date) DO NOTHING") {
				t.Fatalf("unexpected query: %s", query)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewDistributionStore(stubDB{})
	inserted, err := store.Insert(context.Background(), execer, DistributionRecord{
		ID:                "rec-1",
		UserEmail:         "user@example.com",
		DistributionDate:  date,
		TokenAmount:       decimal.RequireFromString("18.90410959"),
		SubscriptionCount: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inserted {
		t.Fatalf("expected inserted=true")
	}
}

func TestDistributionStoreInsertDuplicateDay(t *testing.T) {
	execer := stubExecer{
		execFn: func(context.Context, string, ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}
	store := NewDistributionStore(stubDB{})
	inserted, err := store.Insert(context.Background(), execer, DistributionRecord{
		ID:               "rec-2",
		UserEmail:        "user@example.com",
		DistributionDate: time.Now(),
		TokenAmount:      decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted {
		t.Fatalf("expected inserted=false for already-distributed day")
	}
}

func TestDistributionStoreSummarizeDate(t *testing.T) {
	store := NewDistributionStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "COALESCE(SUM(token_amount), 0)") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*DistributionSummary) = DistributionSummary{Users: 4, TotalTokens: decimal.RequireFromString("80.89315068")}
			return nil
		},
	})
	summary, err := store.SummarizeDate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Users != 4 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}
