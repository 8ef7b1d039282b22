package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ticledger/internal/db"
	"ticledger/internal/store"
	"ticledger/internal/token"
)

type ReferralStore interface {
	Upline(ctx context.Context, referredEmail string, maxDepth int) ([]store.ReferralEdge, error)
}

type CommissionStore interface {
	Insert(ctx context.Context, tx store.Execer, event store.CommissionEvent) (bool, error)
}

// CommissionService pays the unilevel cascade triggered by one user's daily
// earnings. Payouts land in the referrers' partner wallets; each level is
// its own transaction keyed on `comm:{eventRef}:{referrer}:{level}`, so a
// half-finished cascade resumes where it stopped.
type CommissionService struct {
	txRunner    db.TxRunner
	referrals   ReferralStore
	commissions CommissionStore
	ledger      *LedgerService
	logger      *zap.Logger
}

func NewCommissionService(txRunner db.TxRunner, referrals ReferralStore, commissions CommissionStore, ledger *LedgerService, logger *zap.Logger) *CommissionService {
	return &CommissionService{
		txRunner:    txRunner,
		referrals:   referrals,
		commissions: commissions,
		ledger:      ledger,
		logger:      logger,
	}
}

type CascadeResult struct {
	Paid        int
	Duplicates  int
	TotalAmount decimal.Decimal
	Errors      []string
}

// CascadeForEvent walks the earner's upline and credits each eligible
// referrer their level's cut of the daily commission base. The earner's own
// plans bound the cascade: starter-only earnings reach level 1, a VIP plan
// unlocks all fifteen. Inactive edges are skipped but do not stop the walk,
// and a failed level is recorded without aborting the ones above it.
func (s *CommissionService) CascadeForEvent(ctx context.Context, eventRef, earnerEmail string, date time.Time, activeSubs []store.Subscription) (CascadeResult, error) {
	result := CascadeResult{TotalAmount: decimal.Zero}
	vipCount := 0
	for _, sub := range activeSubs {
		if token.Plan(sub.PlanID) == token.PlanVIP {
			vipCount++
		}
	}
	maxLevel := token.CommissionLevelCap(vipCount > 0)
	base := token.CommissionBase.Mul(decimal.NewFromInt(int64(max(1, vipCount))))

	upline, err := s.referrals.Upline(ctx, earnerEmail, maxLevel)
	if err != nil {
		return result, err
	}
	for _, edge := range upline {
		if !edge.IsActive {
			continue
		}
		amount := token.CommissionAmount(base, edge.LevelDepth)
		if !amount.IsPositive() {
			continue
		}
		applied, err := s.payLevel(ctx, eventRef, earnerEmail, edge, base, amount, date)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s level %d: %v", edge.ReferrerEmail, edge.LevelDepth, err))
			s.logger.Warn("commission payout failed",
				zap.String("referrer", edge.ReferrerEmail),
				zap.Int("level", edge.LevelDepth),
				zap.String("event", eventRef),
				zap.Error(err))
			continue
		}
		if applied {
			result.Paid++
			result.TotalAmount = result.TotalAmount.Add(amount)
		} else {
			result.Duplicates++
		}
	}
	return result, nil
}

// payLevel commits one referrer's payout: the commission event record and
// the partner-wallet credit in one transaction.
func (s *CommissionService) payLevel(ctx context.Context, eventRef, earnerEmail string, edge store.ReferralEdge, base, amount decimal.Decimal, date time.Time) (bool, error) {
	reference := CommissionReference(eventRef, edge.ReferrerEmail, edge.LevelDepth)
	entry := EntryRequest{
		EntryID:           uuid.NewString(),
		AccountEmail:      edge.ReferrerEmail,
		WalletField:       token.WalletPartner,
		Amount:            amount,
		Reason:            token.ReasonCommission,
		SourceReferenceID: reference,
	}
	var results []ApplyResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		// The event row and the ledger entry share the idempotency key, and
		// both inserts tolerate replays; a prior run that crashed between
		// the two writes heals on the retry.
		_, err := s.commissions.Insert(ctx, tx, store.CommissionEvent{
			ID:               uuid.NewString(),
			EventReference:   eventRef,
			ReferrerEmail:    edge.ReferrerEmail,
			ReferredEmail:    earnerEmail,
			Level:            edge.LevelDepth,
			Rate:             token.CommissionRate(edge.LevelDepth),
			Amount:           amount,
			DistributionDate: date,
		})
		if err != nil {
			return err
		}
		results, err = s.ledger.applyTx(ctx, tx, []EntryRequest{entry})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, ErrAccountNotFound
		}
		return false, err
	}
	s.ledger.broadcast(results)
	return results[0].Applied, nil
}

// CommissionReference is the idempotency key of one level's payout for one
// earnings event.
func CommissionReference(eventRef, referrerEmail string, level int) string {
	return fmt.Sprintf("comm:%s:%s:%d", eventRef, referrerEmail, level)
}
