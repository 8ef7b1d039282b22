package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ticledger/internal/db"
	"ticledger/internal/store"
	"ticledger/internal/token"
)

type RankReferralStore interface {
	ReferralStore
	CountDirect(ctx context.Context, referrerEmail string) (int, error)
	MaxDepth(ctx context.Context, referrerEmail string) (int, error)
	ListActiveReferrerEmails(ctx context.Context, afterEmail string, limit int) ([]string, error)
}

type RankBonusStore interface {
	Insert(ctx context.Context, tx store.Execer, record store.RankBonusRecord) (bool, error)
}

// RankService awards the monthly rank bonuses. Each qualified referrer gets
// one bonus per month, split half into TIC and half into GIC; the record
// insert and both wallet credits commit together.
type RankService struct {
	txRunner  db.TxRunner
	referrals RankReferralStore
	bonuses   RankBonusStore
	ledger    *LedgerService
	logger    *zap.Logger
	limiter   *rate.Limiter
	pageSize  int
}

func NewRankService(txRunner db.TxRunner, referrals RankReferralStore, bonuses RankBonusStore, ledger *LedgerService, logger *zap.Logger, pagesPerSecond float64, pageSize int) *RankService {
	if pageSize <= 0 {
		pageSize = 25
	}
	if pagesPerSecond <= 0 {
		pagesPerSecond = 5
	}
	return &RankService{
		txRunner:  txRunner,
		referrals: referrals,
		bonuses:   bonuses,
		ledger:    ledger,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Limit(pagesPerSecond), 1),
		pageSize:  pageSize,
	}
}

type RankReport struct {
	Month      string          `json:"month"`
	Evaluated  int             `json:"evaluated"`
	Awarded    int             `json:"awarded"`
	Duplicates int             `json:"duplicates"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	TotalBonus decimal.Decimal `json:"total_bonus"`
	Errors     []string        `json:"errors,omitempty"`
}

// RunMonthly evaluates every active referrer against the rank table for the
// given month ("2006-01"). Unqualified users are skipped, already-paid users
// count as duplicates, and a per-user failure never aborts the run.
func (s *RankService) RunMonthly(ctx context.Context, month string) (RankReport, error) {
	report := RankReport{Month: month, TotalBonus: decimal.Zero}
	s.logger.Info("starting rank bonus run", zap.String("month", month))
	afterEmail := ""
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return report, err
		}
		emails, err := s.referrals.ListActiveReferrerEmails(ctx, afterEmail, s.pageSize)
		if err != nil {
			return report, err
		}
		if len(emails) == 0 {
			break
		}
		for _, email := range emails {
			report.Evaluated++
			if err := s.awardUser(ctx, email, month, &report); err != nil {
				report.Failed++
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", email, err))
				s.logger.Warn("rank bonus failed for user",
					zap.String("user", email), zap.Error(err))
			}
		}
		afterEmail = emails[len(emails)-1]
	}
	s.logger.Info("rank bonus run complete",
		zap.String("month", month),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("awarded", report.Awarded),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.String("total_bonus", report.TotalBonus.String()))
	return report, nil
}

func (s *RankService) awardUser(ctx context.Context, email, month string, report *RankReport) error {
	directCount, err := s.referrals.CountDirect(ctx, email)
	if err != nil {
		return err
	}
	maxDepth, err := s.referrals.MaxDepth(ctx, email)
	if err != nil {
		return err
	}
	rank := token.QualifyRank(directCount, maxDepth)
	if rank == token.RankNone {
		report.Skipped++
		return nil
	}
	bonus := token.RankBonus(rank)
	ticAmount, gicAmount := token.SplitRankBonus(bonus)
	entries := []EntryRequest{
		{
			EntryID:           uuid.NewString(),
			AccountEmail:      email,
			WalletField:       token.WalletTic,
			Amount:            ticAmount,
			Reason:            token.ReasonRankBonus,
			SourceReferenceID: RankBonusReference(email, month, "tic"),
		},
		{
			EntryID:           uuid.NewString(),
			AccountEmail:      email,
			WalletField:       token.WalletGic,
			Amount:            gicAmount,
			Reason:            token.ReasonRankBonus,
			SourceReferenceID: RankBonusReference(email, month, "gic"),
		},
	}
	var results []ApplyResult
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		inserted, err := s.bonuses.Insert(ctx, tx, store.RankBonusRecord{
			UserEmail:         email,
			DistributionMonth: month,
			Rank:              string(rank),
			BonusAmount:       bonus,
			TicAmount:         ticAmount,
			GicAmount:         gicAmount,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// Already paid this month; the ledger entries carry the same
			// idempotency keys and would no-op too, so stop here.
			results = nil
			return nil
		}
		results, err = s.ledger.applyTx(ctx, tx, entries)
		return err
	})
	if err != nil {
		return err
	}
	if results == nil {
		report.Duplicates++
		return nil
	}
	s.ledger.broadcast(results)
	report.Awarded++
	report.TotalBonus = report.TotalBonus.Add(bonus)
	return nil
}

// RankBonusReference is the idempotency key of one half of a monthly bonus.
func RankBonusReference(email, month, side string) string {
	return fmt.Sprintf("rank:%s:%s:%s", email, month, side)
}
