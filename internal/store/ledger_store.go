package store

import (
	"context"

	"github.com/shopspring/decimal"

	"ticledger/internal/token"
)

type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

type LedgerEntryInput struct {
	ID                string
	AccountEmail      string
	WalletField       token.WalletField
	Amount            decimal.Decimal
	Reason            token.Reason
	SourceReferenceID string
}

type LedgerEntry struct {
	ID                string          `db:"id"`
	AccountEmail      string          `db:"account_email"`
	WalletField       string          `db:"wallet_field"`
	Amount            decimal.Decimal `db:"amount"`
	Reason            string          `db:"reason"`
	SourceReferenceID string          `db:"source_reference_id"`
	CreatedAt         any             `db:"created_at"`
}

// Insert appends one entry. The (source_reference_id, wallet_field) unique
// constraint makes re-processing a business event a no-op: inserted=false
// means the event was already applied.
func (s *LedgerStore) Insert(ctx context.Context, tx Execer, entry LedgerEntryInput) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, account_email, wallet_field, amount, reason, source_reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_reference_id, wallet_field) DO NOTHING
	`, entry.ID, entry.AccountEmail, string(entry.WalletField), entry.Amount, string(entry.Reason), entry.SourceReferenceID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *LedgerStore) ListByAccount(ctx context.Context, email string, limit, offset int) ([]LedgerEntry, error) {
	var rows []LedgerEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_email, wallet_field, amount, reason, source_reference_id, created_at
		FROM ledger_entries
		WHERE account_email = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, email, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SumByWallet recomputes a wallet balance from the ledger, used by the
// reconciliation self-check.
func (s *LedgerStore) SumByWallet(ctx context.Context, email string, field token.WalletField) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE account_email = $1 AND wallet_field = $2
	`, email, string(field))
	return sum, err
}

type WalletLedgerSum struct {
	WalletField string          `db:"wallet_field"`
	LedgerSum   decimal.Decimal `db:"ledger_sum"`
}

func (s *LedgerStore) SumAllWallets(ctx context.Context, email string) ([]WalletLedgerSum, error) {
	var rows []WalletLedgerSum
	err := s.db.SelectContext(ctx, &rows, `
		SELECT wallet_field, COALESCE(SUM(amount), 0) AS ledger_sum
		FROM ledger_entries
		WHERE account_email = $1
		GROUP BY wallet_field
	`, email)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
