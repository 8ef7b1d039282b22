package store

import (
	"context"
	"database/sql"
)

type ReferralStore struct {
	db DB
}

func NewReferralStore(db DB) *ReferralStore {
	return &ReferralStore{db: db}
}

type ReferralEdge struct {
	ReferrerEmail string `db:"referrer_email"`
	ReferredEmail string `db:"referred_email"`
	LevelDepth    int    `db:"level_depth"`
	IsActive      bool   `db:"is_active"`
	CreatedAt     any    `db:"created_at"`
}

func (s *ReferralStore) CreateEdge(ctx context.Context, tx Execer, referrerEmail, referredEmail string, levelDepth int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO referral_edges (referrer_email, referred_email, level_depth, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (referrer_email, referred_email) DO NOTHING
	`, referrerEmail, referredEmail, levelDepth)
	return err
}

// Upline lists the referrers above a user ordered by level depth, one edge
// per level up to the unilevel cap. Inactive edges are included; the
// cascade decides whether to pay them.
func (s *ReferralStore) Upline(ctx context.Context, referredEmail string, maxDepth int) ([]ReferralEdge, error) {
	var rows []ReferralEdge
	err := s.db.SelectContext(ctx, &rows, `
		SELECT referrer_email, referred_email, level_depth, is_active, created_at
		FROM referral_edges
		WHERE referred_email = $1 AND level_depth <= $2
		ORDER BY level_depth
	`, referredEmail, maxDepth)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ReferralStore) ListByReferrer(ctx context.Context, referrerEmail string) ([]ReferralEdge, error) {
	var rows []ReferralEdge
	err := s.db.SelectContext(ctx, &rows, `
		SELECT referrer_email, referred_email, level_depth, is_active, created_at
		FROM referral_edges
		WHERE referrer_email = $1
		ORDER BY level_depth, referred_email
	`, referrerEmail)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountDirect counts a user's active level-1 referrals.
func (s *ReferralStore) CountDirect(ctx context.Context, referrerEmail string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM referral_edges
		WHERE referrer_email = $1 AND level_depth = 1 AND is_active
	`, referrerEmail)
	return count, err
}

// MaxDepth is the deepest active unilevel a referrer's network reaches.
func (s *ReferralStore) MaxDepth(ctx context.Context, referrerEmail string) (int, error) {
	var depth sql.NullInt64
	err := s.db.GetContext(ctx, &depth, `
		SELECT MAX(level_depth)
		FROM referral_edges
		WHERE referrer_email = $1 AND is_active
	`, referrerEmail)
	if err != nil {
		return 0, err
	}
	if !depth.Valid {
		return 0, nil
	}
	return int(depth.Int64), nil
}

// ListActiveReferrerEmails pages through distinct referrers with at least
// one active edge, for the monthly rank evaluation.
func (s *ReferralStore) ListActiveReferrerEmails(ctx context.Context, afterEmail string, limit int) ([]string, error) {
	var emails []string
	err := s.db.SelectContext(ctx, &emails, `
		SELECT DISTINCT referrer_email
		FROM referral_edges
		WHERE is_active AND referrer_email > $1
		ORDER BY referrer_email
		LIMIT $2
	`, afterEmail, limit)
	if err != nil {
		return nil, err
	}
	return emails, nil
}
