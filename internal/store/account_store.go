package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ticledger/internal/token"
)

type AccountStore struct {
	db DB
}

type Account struct {
	Email          string          `db:"email"`
	TotalBalance   decimal.Decimal `db:"total_balance"`
	TicBalance     decimal.Decimal `db:"tic_balance"`
	GicBalance     decimal.Decimal `db:"gic_balance"`
	StakingBalance decimal.Decimal `db:"staking_balance"`
	PartnerBalance decimal.Decimal `db:"partner_balance"`
	CreatedAt      any             `db:"created_at"`
}

// Wallet returns the balance of one named sub-wallet.
func (a Account) Wallet(field token.WalletField) decimal.Decimal {
	switch field {
	case token.WalletTotal:
		return a.TotalBalance
	case token.WalletTic:
		return a.TicBalance
	case token.WalletGic:
		return a.GicBalance
	case token.WalletStaking:
		return a.StakingBalance
	case token.WalletPartner:
		return a.PartnerBalance
	}
	return decimal.Zero
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, email string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (email)
		VALUES ($1)
		ON CONFLICT (email) DO NOTHING
	`, email)
	return err
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT email, total_balance, tic_balance, gic_balance, staking_balance, partner_balance, created_at
		FROM accounts
		WHERE email = $1
	`, email)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, email string) (Account, error) {
	var row Account
	err := tx.GetContext(ctx, &row, `
		SELECT email, total_balance, tic_balance, gic_balance, staking_balance, partner_balance
		FROM accounts
		WHERE email = $1
		FOR UPDATE
	`, email)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

// AdjustWallet applies a signed delta to one wallet column. The CHECK
// constraints on the table are the final overdraft guard; services verify
// balances up front for a typed error.
func (s *AccountStore) AdjustWallet(ctx context.Context, tx Execer, email string, field token.WalletField, delta decimal.Decimal) error {
	column, err := walletColumn(field)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		UPDATE accounts
		SET %s = %s + $1, updated_at = NOW()
		WHERE email = $2
	`, column, column)
	_, err = tx.ExecContext(ctx, query, delta, email)
	return err
}

func (s *AccountStore) ListAll(ctx context.Context, limit, offset int) ([]Account, error) {
	var rows []Account
	err := s.db.SelectContext(ctx, &rows, `
		SELECT email, total_balance, tic_balance, gic_balance, staking_balance, partner_balance, created_at
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func walletColumn(field token.WalletField) (string, error) {
	switch field {
	case token.WalletTotal:
		return "total_balance", nil
	case token.WalletTic:
		return "tic_balance", nil
	case token.WalletGic:
		return "gic_balance", nil
	case token.WalletStaking:
		return "staking_balance", nil
	case token.WalletPartner:
		return "partner_balance", nil
	}
	return "", token.ErrUnknownWalletField
}
