package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"
)

func TestSubscriptionStoreListActiveUserEmails(t *testing.T) {
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store := NewSubscriptionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "DISTINCT user_email") || !strings.Contains(query, "user_email > $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 3 || args[1] != "a@example.com" || args[2] != 25 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]string) = []string{"b@example.com", "c@example.com"}
			return nil
		},
	})
	emails, err := store.ListActiveUserEmails(context.Background(), date, "a@example.com", 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emails) != 2 || emails[0] != "b@example.com" {
		t.Fatalf("unexpected emails: %#v", emails)
	}
}

func TestSubscriptionStoreListActiveForUser(t *testing.T) {
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store := NewSubscriptionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "start_date <= $2") || !strings.Contains(query, "end_date >= $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*[]Subscription) = []Subscription{{ID: "sub-1", PlanID: "vip"}}
			return nil
		},
	})
	subs, err := store.ListActiveForUser(context.Background(), "user@example.com", date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 1 || subs[0].PlanID != "vip" {
		t.Fatalf("unexpected subs: %#v", subs)
	}
}

func TestSubscriptionStoreExpireEnded(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET status = 'expired'") || !strings.Contains(query, "end_date < $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			return stubResult{rows: 3}, nil
		},
	}
	store := NewSubscriptionStore(stubDB{})
	expired, err := store.ExpireEnded(context.Background(), execer, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 3 {
		t.Fatalf("expected 3 expired, got %d", expired)
	}
}
