package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ticledger/internal/db"
	"ticledger/internal/store"
	"ticledger/internal/token"
)

type SubscriptionStore interface {
	ListActiveUserEmails(ctx context.Context, date time.Time, afterEmail string, limit int) ([]string, error)
	ListActiveForUser(ctx context.Context, userEmail string, date time.Time) ([]store.Subscription, error)
}

type DistributionStore interface {
	Insert(ctx context.Context, tx store.Execer, record store.DistributionRecord) (bool, error)
}

// DistributionService credits every subscribed user their daily TIC
// accrual. A user with several active subscriptions gets one summed entry
// and one distribution record per day, never one per subscription. The
// `dist:{email}:{date}` reference makes the whole run re-triggerable.
type DistributionService struct {
	txRunner      db.TxRunner
	subscriptions SubscriptionStore
	distributions DistributionStore
	ledger        *LedgerService
	commissions   *CommissionService
	logger        *zap.Logger
	limiter       *rate.Limiter
	pageSize      int
}

func NewDistributionService(txRunner db.TxRunner, subscriptions SubscriptionStore, distributions DistributionStore, ledger *LedgerService, commissions *CommissionService, logger *zap.Logger, pagesPerSecond float64, pageSize int) *DistributionService {
	if pageSize <= 0 {
		pageSize = 25
	}
	if pagesPerSecond <= 0 {
		pagesPerSecond = 5
	}
	return &DistributionService{
		txRunner:      txRunner,
		subscriptions: subscriptions,
		distributions: distributions,
		ledger:        ledger,
		commissions:   commissions,
		logger:        logger,
		limiter:       rate.NewLimiter(rate.Limit(pagesPerSecond), 1),
		pageSize:      pageSize,
	}
}

type DistributionReport struct {
	Date             string          `json:"date"`
	Processed        int             `json:"processed"`
	Credited         int             `json:"credited"`
	Duplicates       int             `json:"duplicates"`
	Failed           int             `json:"failed"`
	TotalTokens      decimal.Decimal `json:"total_tokens"`
	CommissionsPaid  int             `json:"commissions_paid"`
	CommissionsTotal decimal.Decimal `json:"commissions_total"`
	Errors           []string        `json:"errors,omitempty"`
}

// RunDaily processes every user with a subscription active on date. It
// pages by email so a partially completed run resumes cleanly, paces page
// reads with a rate limiter to bound store load, and never aborts the run
// on a per-user failure.
func (s *DistributionService) RunDaily(ctx context.Context, date time.Time) (DistributionReport, error) {
	date = date.UTC().Truncate(24 * time.Hour)
	report := DistributionReport{
		Date:             date.Format("2006-01-02"),
		TotalTokens:      decimal.Zero,
		CommissionsTotal: decimal.Zero,
	}
	s.logger.Info("starting daily distribution", zap.String("date", report.Date))
	afterEmail := ""
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return report, err
		}
		emails, err := s.subscriptions.ListActiveUserEmails(ctx, date, afterEmail, s.pageSize)
		if err != nil {
			return report, err
		}
		if len(emails) == 0 {
			break
		}
		for _, email := range emails {
			report.Processed++
			if err := s.distributeUser(ctx, email, date, &report); err != nil {
				report.Failed++
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", email, err))
				s.logger.Warn("distribution failed for user",
					zap.String("user", email), zap.Error(err))
			}
		}
		afterEmail = emails[len(emails)-1]
	}
	s.logger.Info("daily distribution complete",
		zap.String("date", report.Date),
		zap.Int("processed", report.Processed),
		zap.Int("credited", report.Credited),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed", report.Failed),
		zap.String("total_tokens", report.TotalTokens.String()),
		zap.Int("commissions_paid", report.CommissionsPaid))
	return report, nil
}

func (s *DistributionService) distributeUser(ctx context.Context, email string, date time.Time, report *DistributionReport) error {
	subs, err := s.subscriptions.ListActiveForUser(ctx, email, date)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}
	dailyAmount := decimal.Zero
	for _, sub := range subs {
		plan, err := token.ParsePlan(sub.PlanID)
		if err != nil {
			return err
		}
		accrual, err := token.DailyAccrual(plan)
		if err != nil {
			return err
		}
		dailyAmount = dailyAmount.Add(accrual)
	}
	eventRef := DistributionReference(email, date)
	entry := EntryRequest{
		EntryID:           uuid.NewString(),
		AccountEmail:      email,
		WalletField:       token.WalletTic,
		Amount:            dailyAmount,
		Reason:            token.ReasonDistribution,
		SourceReferenceID: eventRef,
	}
	var results []ApplyResult
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		results, err = s.ledger.applyTx(ctx, tx, []EntryRequest{entry})
		if err != nil {
			return err
		}
		_, err = s.distributions.Insert(ctx, tx, store.DistributionRecord{
			ID:                uuid.NewString(),
			UserEmail:         email,
			DistributionDate:  date,
			TokenAmount:       dailyAmount,
			SubscriptionCount: len(subs),
		})
		return err
	})
	if err != nil {
		return err
	}
	s.ledger.broadcast(results)
	if results[0].Applied {
		report.Credited++
		report.TotalTokens = report.TotalTokens.Add(dailyAmount)
	} else {
		report.Duplicates++
	}
	// The cascade runs even when the credit was a duplicate: an earlier
	// run may have crashed between the credit and its commissions, and
	// every payout carries its own idempotency key.
	cascade, err := s.commissions.CascadeForEvent(ctx, eventRef, email, date, subs)
	if err != nil {
		return err
	}
	report.CommissionsPaid += cascade.Paid
	report.CommissionsTotal = report.CommissionsTotal.Add(cascade.TotalAmount)
	report.Errors = append(report.Errors, cascade.Errors...)
	return nil
}

// DistributionReference is the idempotency key of one user's daily accrual.
func DistributionReference(email string, date time.Time) string {
	return fmt.Sprintf("dist:%s:%s", email, date.Format("2006-01-02"))
}
