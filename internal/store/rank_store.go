package store

import (
	"context"

	"github.com/shopspring/decimal"
)

type RankBonusStore struct {
	db DB
}

func NewRankBonusStore(db DB) *RankBonusStore {
	return &RankBonusStore{db: db}
}

type RankBonusRecord struct {
	UserEmail         string          `db:"user_email"`
	DistributionMonth string          `db:"distribution_month"`
	Rank              string          `db:"rank"`
	BonusAmount       decimal.Decimal `db:"bonus_amount"`
	TicAmount         decimal.Decimal `db:"tic_amount"`
	GicAmount         decimal.Decimal `db:"gic_amount"`
	CreatedAt         any             `db:"created_at"`
}

// Insert records one bonus per (user, month). inserted=false means the
// month was already paid for this user.
func (s *RankBonusStore) Insert(ctx context.Context, tx Execer, record RankBonusRecord) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO rank_bonus_records (user_email, distribution_month, rank, bonus_amount, tic_amount, gic_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_email, distribution_month) DO NOTHING
	`, record.UserEmail, record.DistributionMonth, record.Rank, record.BonusAmount, record.TicAmount, record.GicAmount)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *RankBonusStore) Exists(ctx context.Context, userEmail, month string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM rank_bonus_records
		WHERE user_email = $1 AND distribution_month = $2
	`, userEmail, month)
	return count > 0, err
}

func (s *RankBonusStore) ListByMonth(ctx context.Context, month string, limit, offset int) ([]RankBonusRecord, error) {
	var rows []RankBonusRecord
	err := s.db.SelectContext(ctx, &rows, `
		SELECT user_email, distribution_month, rank, bonus_amount, tic_amount, gic_amount, created_at
		FROM rank_bonus_records
		WHERE distribution_month = $1
		ORDER BY user_email
		LIMIT $2 OFFSET $3
	`, month, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RankBonusStore) ListByUser(ctx context.Context, userEmail string, limit, offset int) ([]RankBonusRecord, error) {
	var rows []RankBonusRecord
	err := s.db.SelectContext(ctx, &rows, `
		SELECT user_email, distribution_month, rank, bonus_amount, tic_amount, gic_amount, created_at
		FROM rank_bonus_records
		WHERE user_email = $1
		ORDER BY distribution_month DESC
		LIMIT $2 OFFSET $3
	`, userEmail, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
