package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"ticledger/internal/store"
	"ticledger/internal/token"
	"ticledger/internal/websocket"
)

// fakeTxRunner runs the callback without a database. The stores used in
// these tests are in-memory fakes that ignore the tx handle.
type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type memAccountStore struct {
	accounts map[string]*store.Account
}

func newMemAccountStore(emails ...string) *memAccountStore {
	m := &memAccountStore{accounts: make(map[string]*store.Account)}
	for _, email := range emails {
		m.accounts[email] = &store.Account{Email: email}
	}
	return m
}

func (m *memAccountStore) seed(email string, field token.WalletField, amount string) {
	account, ok := m.accounts[email]
	if !ok {
		account = &store.Account{Email: email}
		m.accounts[email] = account
	}
	m.adjust(account, field, decimal.RequireFromString(amount))
}

func (m *memAccountStore) Create(_ context.Context, _ store.Execer, email string) error {
	if _, ok := m.accounts[email]; !ok {
		m.accounts[email] = &store.Account{Email: email}
	}
	return nil
}

func (m *memAccountStore) GetByEmail(_ context.Context, email string) (store.Account, error) {
	account, ok := m.accounts[email]
	if !ok {
		return store.Account{}, sql.ErrNoRows
	}
	return *account, nil
}

func (m *memAccountStore) GetForUpdate(_ context.Context, _ store.Getter, email string) (store.Account, error) {
	account, ok := m.accounts[email]
	if !ok {
		return store.Account{}, sql.ErrNoRows
	}
	return *account, nil
}

func (m *memAccountStore) AdjustWallet(_ context.Context, _ store.Execer, email string, field token.WalletField, delta decimal.Decimal) error {
	account, ok := m.accounts[email]
	if !ok {
		return sql.ErrNoRows
	}
	m.adjust(account, field, delta)
	return nil
}

func (m *memAccountStore) adjust(account *store.Account, field token.WalletField, delta decimal.Decimal) {
	switch field {
	case token.WalletTotal:
		account.TotalBalance = account.TotalBalance.Add(delta)
	case token.WalletTic:
		account.TicBalance = account.TicBalance.Add(delta)
	case token.WalletGic:
		account.GicBalance = account.GicBalance.Add(delta)
	case token.WalletStaking:
		account.StakingBalance = account.StakingBalance.Add(delta)
	case token.WalletPartner:
		account.PartnerBalance = account.PartnerBalance.Add(delta)
	}
}

func (m *memAccountStore) balance(email string, field token.WalletField) decimal.Decimal {
	account, ok := m.accounts[email]
	if !ok {
		return decimal.Zero
	}
	return account.Wallet(field)
}

// memLedgerStore enforces the (source_reference_id, wallet_field) unique key
// the way the real table does.
type memLedgerStore struct {
	entries []store.LedgerEntryInput
	seen    map[string]struct{}
	err     error
}

func newMemLedgerStore() *memLedgerStore {
	return &memLedgerStore{seen: make(map[string]struct{})}
}

func (m *memLedgerStore) Insert(_ context.Context, _ store.Execer, entry store.LedgerEntryInput) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := entry.SourceReferenceID + "|" + string(entry.WalletField)
	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = struct{}{}
	m.entries = append(m.entries, entry)
	return true, nil
}

type stubAuditStore struct {
	actions []string
	err     error
}

func (s *stubAuditStore) Log(_ context.Context, _ store.Execer, _, action, _, _, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.actions = append(s.actions, action)
	return nil
}

type stubHub struct {
	updates []websocket.WalletUpdate
}

func (s *stubHub) BroadcastWallet(_ string, update websocket.WalletUpdate) {
	s.updates = append(s.updates, update)
}

type stubSubscriptionStore struct {
	emails  []string
	subs    map[string][]store.Subscription
	listErr error
}

func (s *stubSubscriptionStore) ListActiveUserEmails(_ context.Context, _ time.Time, afterEmail string, limit int) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	sorted := append([]string(nil), s.emails...)
	sort.Strings(sorted)
	page := make([]string, 0, limit)
	for _, email := range sorted {
		if email <= afterEmail {
			continue
		}
		page = append(page, email)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (s *stubSubscriptionStore) ListActiveForUser(_ context.Context, userEmail string, _ time.Time) ([]store.Subscription, error) {
	return s.subs[userEmail], nil
}

type memDistributionStore struct {
	records []store.DistributionRecord
	seen    map[string]struct{}
}

func newMemDistributionStore() *memDistributionStore {
	return &memDistributionStore{seen: make(map[string]struct{})}
}

func (m *memDistributionStore) Insert(_ context.Context, _ store.Execer, record store.DistributionRecord) (bool, error) {
	key := record.UserEmail + "|" + record.DistributionDate.Format("2006-01-02")
	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = struct{}{}
	m.records = append(m.records, record)
	return true, nil
}

type stubReferralStore struct {
	upline    map[string][]store.ReferralEdge
	uplineErr error
}

func (s *stubReferralStore) Upline(_ context.Context, referredEmail string, maxDepth int) ([]store.ReferralEdge, error) {
	if s.uplineErr != nil {
		return nil, s.uplineErr
	}
	var edges []store.ReferralEdge
	for _, edge := range s.upline[referredEmail] {
		if edge.LevelDepth <= maxDepth {
			edges = append(edges, edge)
		}
	}
	return edges, nil
}

type memCommissionStore struct {
	events []store.CommissionEvent
	seen   map[string]struct{}
}

func newMemCommissionStore() *memCommissionStore {
	return &memCommissionStore{seen: make(map[string]struct{})}
}

func (m *memCommissionStore) Insert(_ context.Context, _ store.Execer, event store.CommissionEvent) (bool, error) {
	key := CommissionReference(event.EventReference, event.ReferrerEmail, event.Level)
	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = struct{}{}
	m.events = append(m.events, event)
	return true, nil
}

type stubRankReferralStore struct {
	stubReferralStore
	referrers   []string
	directCount map[string]int
	maxDepth    map[string]int
}

func (s *stubRankReferralStore) CountDirect(_ context.Context, referrerEmail string) (int, error) {
	return s.directCount[referrerEmail], nil
}

func (s *stubRankReferralStore) MaxDepth(_ context.Context, referrerEmail string) (int, error) {
	return s.maxDepth[referrerEmail], nil
}

func (s *stubRankReferralStore) ListActiveReferrerEmails(_ context.Context, afterEmail string, limit int) ([]string, error) {
	sorted := append([]string(nil), s.referrers...)
	sort.Strings(sorted)
	page := make([]string, 0, limit)
	for _, email := range sorted {
		if email <= afterEmail {
			continue
		}
		page = append(page, email)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

type memRankBonusStore struct {
	records []store.RankBonusRecord
	seen    map[string]struct{}
}

func newMemRankBonusStore() *memRankBonusStore {
	return &memRankBonusStore{seen: make(map[string]struct{})}
}

func (m *memRankBonusStore) Insert(_ context.Context, _ store.Execer, record store.RankBonusRecord) (bool, error) {
	key := record.UserEmail + "|" + record.DistributionMonth
	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = struct{}{}
	m.records = append(m.records, record)
	return true, nil
}
