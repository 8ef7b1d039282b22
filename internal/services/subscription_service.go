package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"ticledger/internal/db"
	"ticledger/internal/store"
	"ticledger/internal/token"
)

type SubscriptionWriter interface {
	Create(ctx context.Context, tx store.Execer, id, userEmail, planID string, startDate, endDate time.Time) error
	ExpireEnded(ctx context.Context, tx store.Execer, now time.Time) (int64, error)
}

// SubscriptionService opens plan subscriptions and runs the expiry sweep.
type SubscriptionService struct {
	txRunner      db.TxRunner
	subscriptions SubscriptionWriter
	audit         AuditStore
	logger        *zap.Logger
}

func NewSubscriptionService(txRunner db.TxRunner, subscriptions SubscriptionWriter, audit AuditStore, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		txRunner:      txRunner,
		subscriptions: subscriptions,
		audit:         audit,
		logger:        logger,
	}
}

// Purchase opens a one-year subscription starting on startDate. Multiple
// active subscriptions per user are allowed; each adds its own daily
// accrual.
func (s *SubscriptionService) Purchase(ctx context.Context, actorID, userEmail, planID string, startDate time.Time) (store.Subscription, error) {
	plan, err := token.ParsePlan(planID)
	if err != nil {
		return store.Subscription{}, err
	}
	startDate = startDate.UTC().Truncate(24 * time.Hour)
	endDate := startDate.AddDate(1, 0, 0).Add(-24 * time.Hour)
	sub := store.Subscription{
		ID:        uuid.NewString(),
		UserEmail: userEmail,
		PlanID:    string(plan),
		Status:    "active",
		StartDate: startDate,
		EndDate:   endDate,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.subscriptions.Create(ctx, tx, sub.ID, sub.UserEmail, sub.PlanID, sub.StartDate, sub.EndDate); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"user":  userEmail,
			"plan":  string(plan),
			"start": startDate.Format("2006-01-02"),
			"end":   endDate.Format("2006-01-02"),
		})
		return s.audit.Log(ctx, tx, actorID, "subscription_purchase", "subscription", sub.ID, string(data))
	})
	if err != nil {
		return store.Subscription{}, err
	}
	return sub, nil
}

// ExpireEnded marks every subscription past its end date as expired and
// returns the count. Re-running it is harmless.
func (s *SubscriptionService) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	var expired int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		expired, err = s.subscriptions.ExpireEnded(ctx, tx, now.UTC().Truncate(24*time.Hour))
		return err
	})
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info("expired subscriptions", zap.Int64("count", expired))
	}
	return expired, nil
}
