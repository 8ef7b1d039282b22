package store

import (
	"context"
	"time"
)

type SubscriptionStore struct {
	db DB
}

func NewSubscriptionStore(db DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

type Subscription struct {
	ID        string    `db:"id"`
	UserEmail string    `db:"user_email"`
	PlanID    string    `db:"plan_id"`
	Status    string    `db:"status"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	CreatedAt any       `db:"created_at"`
}

func (s *SubscriptionStore) Create(ctx context.Context, tx Execer, id, userEmail, planID string, startDate, endDate time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions (id, user_email, plan_id, status, start_date, end_date)
		VALUES ($1, $2, $3, 'active', $4, $5)
	`, id, userEmail, planID, startDate, endDate)
	return err
}

// ListActiveForUser returns the user's subscriptions active on the given
// date. A subscription expiring mid-day still counts for that day
// (end_date >= date).
func (s *SubscriptionStore) ListActiveForUser(ctx context.Context, userEmail string, date time.Time) ([]Subscription, error) {
	var rows []Subscription
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_email, plan_id, status, start_date, end_date, created_at
		FROM subscriptions
		WHERE user_email = $1
		  AND status = 'active'
		  AND start_date <= $2
		  AND end_date >= $2
		ORDER BY created_at
	`, userEmail, date)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *SubscriptionStore) ListByUser(ctx context.Context, userEmail string) ([]Subscription, error) {
	var rows []Subscription
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_email, plan_id, status, start_date, end_date, created_at
		FROM subscriptions
		WHERE user_email = $1
		ORDER BY created_at DESC
	`, userEmail)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveUserEmails pages through the distinct owners of subscriptions
// active on the given date, keyed by email so a batch run can resume after
// a partial failure.
func (s *SubscriptionStore) ListActiveUserEmails(ctx context.Context, date time.Time, afterEmail string, limit int) ([]string, error) {
	var emails []string
	err := s.db.SelectContext(ctx, &emails, `
		SELECT DISTINCT user_email
		FROM subscriptions
		WHERE status = 'active'
		  AND start_date <= $1
		  AND end_date >= $1
		  AND user_email > $2
		ORDER BY user_email
		LIMIT $3
	`, date, afterEmail, limit)
	if err != nil {
		return nil, err
	}
	return emails, nil
}

// ExpireEnded flips subscriptions whose end_date has passed to expired and
// returns how many changed. Safe to re-run.
func (s *SubscriptionStore) ExpireEnded(ctx context.Context, tx Execer, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'expired'
		WHERE status = 'active' AND end_date < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
