package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ticledger/internal/middleware"
	"ticledger/internal/services"
)

func serveCron(handler http.HandlerFunc, secret, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	middleware.CronAuth("cron-secret")(handler).ServeHTTP(rr, req)
	return rr
}

func TestCronDailyDistributionRunsRequestedDate(t *testing.T) {
	var gotDate time.Time
	handler := newTestHandler(testDeps{
		distService: stubDistributionService{
			runDailyFn: func(_ context.Context, date time.Time) (services.DistributionReport, error) {
				gotDate = date
				return services.DistributionReport{Date: date.Format("2006-01-02"), Credited: 2}, nil
			},
		},
	})
	rr := serveCron(handler.CronDailyDistribution, "cron-secret", `{"date":"2026-08-01"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotDate.Format("2006-01-02") != "2026-08-01" {
		t.Fatalf("unexpected date: %v", gotDate)
	}
	if !strings.Contains(rr.Body.String(), `"credited":2`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestCronDailyDistributionDefaultsToToday(t *testing.T) {
	var gotDate time.Time
	handler := newTestHandler(testDeps{
		distService: stubDistributionService{
			runDailyFn: func(_ context.Context, date time.Time) (services.DistributionReport, error) {
				gotDate = date
				return services.DistributionReport{}, nil
			},
		},
	})
	rr := serveCron(handler.CronDailyDistribution, "cron-secret", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotDate.Format("2006-01-02") != time.Now().UTC().Format("2006-01-02") {
		t.Fatalf("expected today, got %v", gotDate)
	}
}

func TestCronDailyDistributionRejectsBadDate(t *testing.T) {
	handler := newTestHandler(testDeps{
		distService: stubDistributionService{
			runDailyFn: func(context.Context, time.Time) (services.DistributionReport, error) {
				t.Fatalf("service should not be called")
				return services.DistributionReport{}, nil
			},
		},
	})
	rr := serveCron(handler.CronDailyDistribution, "cron-secret", `{"date":"01-08-2026"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCronDailyDistributionRequiresSecret(t *testing.T) {
	handler := newTestHandler(testDeps{
		distService: stubDistributionService{
			runDailyFn: func(context.Context, time.Time) (services.DistributionReport, error) {
				t.Fatalf("service should not be called")
				return services.DistributionReport{}, nil
			},
		},
	})
	rr := serveCron(handler.CronDailyDistribution, "wrong", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestCronRankBonusRunsRequestedMonth(t *testing.T) {
	var gotMonth string
	handler := newTestHandler(testDeps{
		rankService: stubRankService{
			runMonthlyFn: func(_ context.Context, month string) (services.RankReport, error) {
				gotMonth = month
				return services.RankReport{Month: month, Awarded: 1}, nil
			},
		},
	})
	rr := serveCron(handler.CronRankBonus, "cron-secret", `{"month":"2026-07"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotMonth != "2026-07" {
		t.Fatalf("unexpected month: %s", gotMonth)
	}
}

func TestCronRankBonusDefaultsToPreviousMonth(t *testing.T) {
	var gotMonth string
	handler := newTestHandler(testDeps{
		rankService: stubRankService{
			runMonthlyFn: func(_ context.Context, month string) (services.RankReport, error) {
				gotMonth = month
				return services.RankReport{}, nil
			},
		},
	})
	rr := serveCron(handler.CronRankBonus, "cron-secret", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	now := time.Now().UTC()
	want := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Format("2006-01")
	if gotMonth != want {
		t.Fatalf("expected %s, got %s", want, gotMonth)
	}
}

func TestCronRankBonusRejectsBadMonth(t *testing.T) {
	handler := newTestHandler(testDeps{})
	rr := serveCron(handler.CronRankBonus, "cron-secret", `{"month":"July 2026"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCronExpireSubscriptions(t *testing.T) {
	handler := newTestHandler(testDeps{
		subService: stubSubscriptionService{
			expireFn: func(context.Context, time.Time) (int64, error) {
				return 6, nil
			},
		},
	})
	rr := serveCron(handler.CronExpireSubscriptions, "cron-secret", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"expired":6`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}
