package services

import (
	"context"
	"database/sql"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"ticledger/internal/db"
	"ticledger/internal/store"
	"ticledger/internal/token"
	"ticledger/internal/websocket"
)

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, email string) error
	GetByEmail(ctx context.Context, email string) (store.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, email string) (store.Account, error)
	AdjustWallet(ctx context.Context, tx store.Execer, email string, field token.WalletField, delta decimal.Decimal) error
}

type LedgerStore interface {
	Insert(ctx context.Context, tx store.Execer, entry store.LedgerEntryInput) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type WalletHub interface {
	BroadcastWallet(email string, update websocket.WalletUpdate)
}

// LedgerService is the single write path to account balances. Every
// mutation is an append-only ledger entry applied inside one serializable
// transaction; the (source_reference_id, wallet_field) unique key makes
// re-applying the same business event a no-op.
type LedgerService struct {
	txRunner db.TxRunner
	accounts AccountStore
	ledger   LedgerStore
	audit    AuditStore
	hub      WalletHub
}

func NewLedgerService(txRunner db.TxRunner, accounts AccountStore, ledger LedgerStore, audit AuditStore, hub WalletHub) *LedgerService {
	return &LedgerService{
		txRunner: txRunner,
		accounts: accounts,
		ledger:   ledger,
		audit:    audit,
		hub:      hub,
	}
}

// EntryRequest describes one balance mutation. Amount is signed: positive
// credits, negative debits.
type EntryRequest struct {
	EntryID           string
	AccountEmail      string
	WalletField       token.WalletField
	Amount            decimal.Decimal
	Reason            token.Reason
	SourceReferenceID string
}

// ApplyResult reports the outcome for one entry. Applied is false when the
// idempotency key had already been processed; the balance is then the
// current one, unchanged by this call.
type ApplyResult struct {
	AccountEmail string
	WalletField  token.WalletField
	Applied      bool
	Balance      decimal.Decimal
}

func validateEntry(entry EntryRequest) error {
	if entry.SourceReferenceID == "" {
		return ErrMissingReference
	}
	if _, err := token.ParseWalletField(string(entry.WalletField)); err != nil {
		return err
	}
	if entry.Amount.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

// ApplyEntry atomically applies a single ledger entry. Re-submitting the
// same (source reference, wallet) returns the current balance with
// Applied=false and no error. A debit that would push the wallet below
// zero fails with ErrInsufficientBalance and nothing is committed.
func (s *LedgerService) ApplyEntry(ctx context.Context, entry EntryRequest) (ApplyResult, error) {
	results, err := s.ApplyEntries(ctx, []EntryRequest{entry})
	if err != nil {
		return ApplyResult{}, err
	}
	return results[0], nil
}

// ApplyEntries applies a batch of entries in one transaction: all commit or
// none do. Used for the two halves of a transfer and the tic/gic split of a
// rank bonus.
func (s *LedgerService) ApplyEntries(ctx context.Context, entries []EntryRequest) ([]ApplyResult, error) {
	for _, entry := range entries {
		if err := validateEntry(entry); err != nil {
			return nil, err
		}
	}
	var results []ApplyResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		results, err = s.applyTx(ctx, tx, entries)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.broadcast(results)
	return results, nil
}

// applyTx applies entries inside an existing transaction. Accounts are
// locked in deterministic email order so concurrent batches touching the
// same pair cannot deadlock.
func (s *LedgerService) applyTx(ctx context.Context, tx *sqlx.Tx, entries []EntryRequest) ([]ApplyResult, error) {
	balances := make(map[string]map[token.WalletField]decimal.Decimal)
	for _, email := range orderedEmails(entries) {
		account, err := s.accounts.GetForUpdate(ctx, tx, email)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}
		balances[email] = map[token.WalletField]decimal.Decimal{
			token.WalletTotal:   account.TotalBalance,
			token.WalletTic:     account.TicBalance,
			token.WalletGic:     account.GicBalance,
			token.WalletStaking: account.StakingBalance,
			token.WalletPartner: account.PartnerBalance,
		}
	}
	results := make([]ApplyResult, 0, len(entries))
	for _, entry := range entries {
		inserted, err := s.ledger.Insert(ctx, tx, store.LedgerEntryInput{
			ID:                entry.EntryID,
			AccountEmail:      entry.AccountEmail,
			WalletField:       entry.WalletField,
			Amount:            entry.Amount,
			Reason:            entry.Reason,
			SourceReferenceID: entry.SourceReferenceID,
		})
		if err != nil {
			return nil, err
		}
		current := balances[entry.AccountEmail][entry.WalletField]
		if !inserted {
			results = append(results, ApplyResult{
				AccountEmail: entry.AccountEmail,
				WalletField:  entry.WalletField,
				Applied:      false,
				Balance:      current,
			})
			continue
		}
		next := current.Add(entry.Amount)
		if next.IsNegative() {
			return nil, ErrInsufficientBalance
		}
		if err := s.accounts.AdjustWallet(ctx, tx, entry.AccountEmail, entry.WalletField, entry.Amount); err != nil {
			return nil, err
		}
		balances[entry.AccountEmail][entry.WalletField] = next
		results = append(results, ApplyResult{
			AccountEmail: entry.AccountEmail,
			WalletField:  entry.WalletField,
			Applied:      true,
			Balance:      next,
		})
	}
	return results, nil
}

func (s *LedgerService) broadcast(results []ApplyResult) {
	if s.hub == nil {
		return
	}
	for _, result := range results {
		if !result.Applied {
			continue
		}
		s.hub.BroadcastWallet(result.AccountEmail, websocket.WalletUpdate{
			AccountEmail: result.AccountEmail,
			Wallet:       string(result.WalletField),
			Balance:      token.FormatAmount(result.Balance),
		})
	}
}

func orderedEmails(entries []EntryRequest) []string {
	seen := make(map[string]struct{}, len(entries))
	emails := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.AccountEmail]; ok {
			continue
		}
		seen[entry.AccountEmail] = struct{}{}
		emails = append(emails, entry.AccountEmail)
	}
	sort.Strings(emails)
	return emails
}
