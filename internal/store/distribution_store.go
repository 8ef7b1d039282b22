package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type DistributionStore struct {
	db DB
}

func NewDistributionStore(db DB) *DistributionStore {
	return &DistributionStore{db: db}
}

type DistributionRecord struct {
	ID                string          `db:"id"`
	UserEmail         string          `db:"user_email"`
	DistributionDate  time.Time       `db:"distribution_date"`
	TokenAmount       decimal.Decimal `db:"token_amount"`
	SubscriptionCount int             `db:"subscription_count"`
	Status            string          `db:"status"`
	CreatedAt         any             `db:"created_at"`
}

// Insert records one completed distribution per (user, date). inserted=false
// means the day was already distributed for this user.
func (s *DistributionStore) Insert(ctx context.Context, tx Execer, record DistributionRecord) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO distribution_records (id, user_email, distribution_date, token_amount, subscription_count, status)
		VALUES ($1, $2, $3, $4, $5, 'completed')
		ON CONFLICT (user_email, distribution_date) DO NOTHING
	`, record.ID, record.UserEmail, record.DistributionDate, record.TokenAmount, record.SubscriptionCount)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *DistributionStore) ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]DistributionRecord, error) {
	var rows []DistributionRecord
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_email, distribution_date, token_amount, subscription_count, status, created_at
		FROM distribution_records
		WHERE distribution_date = $1
		ORDER BY user_email
		LIMIT $2 OFFSET $3
	`, date, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DistributionStore) ListByUser(ctx context.Context, userEmail string, limit, offset int) ([]DistributionRecord, error) {
	var rows []DistributionRecord
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_email, distribution_date, token_amount, subscription_count, status, created_at
		FROM distribution_records
		WHERE user_email = $1
		ORDER BY distribution_date DESC
		LIMIT $2 OFFSET $3
	`, userEmail, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type DistributionSummary struct {
	Users       int             `db:"users"`
	TotalTokens decimal.Decimal `db:"total_tokens"`
}

func (s *DistributionStore) SummarizeDate(ctx context.Context, date time.Time) (DistributionSummary, error) {
	var row DistributionSummary
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(1) AS users, COALESCE(SUM(token_amount), 0) AS total_tokens
		FROM distribution_records
		WHERE distribution_date = $1
	`, date)
	return row, err
}
