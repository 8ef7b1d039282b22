package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"ticledger/internal/store"
	"ticledger/internal/token"
)

type stubSubscriptionWriter struct {
	created    []store.Subscription
	expired    int64
	expireTime time.Time
	createErr  error
}

func (s *stubSubscriptionWriter) Create(_ context.Context, _ store.Execer, id, userEmail, planID string, startDate, endDate time.Time) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, store.Subscription{
		ID:        id,
		UserEmail: userEmail,
		PlanID:    planID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	return nil
}

func (s *stubSubscriptionWriter) ExpireEnded(_ context.Context, _ store.Execer, now time.Time) (int64, error) {
	s.expireTime = now
	return s.expired, nil
}

func TestPurchaseCoversFullYear(t *testing.T) {
	writer := &stubSubscriptionWriter{}
	audit := &stubAuditStore{}
	service := NewSubscriptionService(fakeTxRunner{}, writer, audit, zap.NewNop())

	start := time.Date(2026, 8, 1, 15, 45, 0, 0, time.UTC)
	sub, err := service.Purchase(context.Background(), "actor-1", "user@example.com", "vip", start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.StartDate.Format("2006-01-02") != "2026-08-01" {
		t.Fatalf("start not truncated to day: %v", sub.StartDate)
	}
	// Inclusive date range: one year starting 2026-08-01 ends 2027-07-31.
	if sub.EndDate.Format("2006-01-02") != "2027-07-31" {
		t.Fatalf("unexpected end date: %v", sub.EndDate)
	}
	if len(writer.created) != 1 || writer.created[0].PlanID != "vip" {
		t.Fatalf("unexpected created rows: %#v", writer.created)
	}
	if len(audit.actions) != 1 || audit.actions[0] != "subscription_purchase" {
		t.Fatalf("unexpected audit actions: %#v", audit.actions)
	}
}

func TestPurchaseUnknownPlan(t *testing.T) {
	service := NewSubscriptionService(fakeTxRunner{}, &stubSubscriptionWriter{}, &stubAuditStore{}, zap.NewNop())
	_, err := service.Purchase(context.Background(), "actor-1", "user@example.com", "platinum-plus", time.Now())
	if err != token.ErrUnknownPlan {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestExpireEnded(t *testing.T) {
	writer := &stubSubscriptionWriter{expired: 4}
	service := NewSubscriptionService(fakeTxRunner{}, writer, &stubAuditStore{}, zap.NewNop())

	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	expired, err := service.ExpireEnded(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 4 {
		t.Fatalf("expected 4, got %d", expired)
	}
	if writer.expireTime.Hour() != 0 {
		t.Fatalf("cutoff not truncated to day: %v", writer.expireTime)
	}
}
