package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CommissionStore struct {
	db DB
}

func NewCommissionStore(db DB) *CommissionStore {
	return &CommissionStore{db: db}
}

type CommissionEvent struct {
	ID               string          `db:"id"`
	EventReference   string          `db:"event_reference"`
	ReferrerEmail    string          `db:"referrer_email"`
	ReferredEmail    string          `db:"referred_email"`
	Level            int             `db:"level"`
	Rate             decimal.Decimal `db:"rate"`
	Amount           decimal.Decimal `db:"amount"`
	DistributionDate time.Time       `db:"distribution_date"`
	CreatedAt        any             `db:"created_at"`
}

// Insert records one commission payout per (event, beneficiary, level).
func (s *CommissionStore) Insert(ctx context.Context, tx Execer, event CommissionEvent) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO commission_events (id, event_reference, referrer_email, referred_email, level, rate, amount, distribution_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_reference, referrer_email, level) DO NOTHING
	`, event.ID, event.EventReference, event.ReferrerEmail, event.ReferredEmail, event.Level, event.Rate, event.Amount, event.DistributionDate)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *CommissionStore) ListByReferrer(ctx context.Context, referrerEmail string, limit, offset int) ([]CommissionEvent, error) {
	var rows []CommissionEvent
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, event_reference, referrer_email, referred_email, level, rate, amount, distribution_date, created_at
		FROM commission_events
		WHERE referrer_email = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, referrerEmail, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type CommissionSummary struct {
	Payouts     int             `db:"payouts"`
	Referrers   int             `db:"referrers"`
	TotalAmount decimal.Decimal `db:"total_amount"`
}

func (s *CommissionStore) SummarizeDate(ctx context.Context, date time.Time) (CommissionSummary, error) {
	var row CommissionSummary
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(1) AS payouts,
		       COUNT(DISTINCT referrer_email) AS referrers,
		       COALESCE(SUM(amount), 0) AS total_amount
		FROM commission_events
		WHERE distribution_date = $1
	`, date)
	return row, err
}
