package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ticledger/internal/auth"
	"ticledger/internal/config"
	"ticledger/internal/middleware"
	"ticledger/internal/services"
	"ticledger/internal/store"
	"ticledger/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"ticledger/internal/token"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubReconcileDB struct {
	selectFn func(ctx context.Context, dest any, query string, args ...any) error
}

func (s stubReconcileDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.selectFn == nil {
		return nil
	}
	return s.selectFn(ctx, dest, query, args...)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (map[string]any, error)
	getByIDFn    func(ctx context.Context, userID string) (map[string]any, error)
	emailByIDFn  func(ctx context.Context, userID string) (string, error)
	listAllFn    func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) EmailByID(ctx context.Context, userID string) (string, error) {
	if s.emailByIDFn == nil {
		return "user@example.com", nil
	}
	return s.emailByIDFn(ctx, userID)
}

func (s stubUserStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubAccountStore struct {
	createFn     func(ctx context.Context, tx store.Execer, email string) error
	getByEmailFn func(ctx context.Context, email string) (store.Account, error)
	listAllFn    func(ctx context.Context, limit, offset int) ([]store.Account, error)
}

func (s stubAccountStore) Create(ctx context.Context, tx store.Execer, email string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, email)
}

func (s stubAccountStore) GetByEmail(ctx context.Context, email string) (store.Account, error) {
	if s.getByEmailFn == nil {
		return store.Account{Email: email}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubAccountStore) ListAll(ctx context.Context, limit, offset int) ([]store.Account, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubLedgerStore struct {
	listByAccountFn func(ctx context.Context, email string, limit, offset int) ([]store.LedgerEntry, error)
	sumAllWalletsFn func(ctx context.Context, email string) ([]store.WalletLedgerSum, error)
}

func (s stubLedgerStore) ListByAccount(ctx context.Context, email string, limit, offset int) ([]store.LedgerEntry, error) {
	if s.listByAccountFn == nil {
		return nil, nil
	}
	return s.listByAccountFn(ctx, email, limit, offset)
}

func (s stubLedgerStore) SumAllWallets(ctx context.Context, email string) ([]store.WalletLedgerSum, error) {
	if s.sumAllWalletsFn == nil {
		return nil, nil
	}
	return s.sumAllWalletsFn(ctx, email)
}

type stubSubscriptionStore struct {
	listByUserFn func(ctx context.Context, userEmail string) ([]store.Subscription, error)
}

func (s stubSubscriptionStore) ListByUser(ctx context.Context, userEmail string) ([]store.Subscription, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userEmail)
}

type stubReferralStore struct {
	createEdgeFn  func(ctx context.Context, tx store.Execer, referrerEmail, referredEmail string, levelDepth int) error
	uplineFn      func(ctx context.Context, referredEmail string, maxDepth int) ([]store.ReferralEdge, error)
	listFn        func(ctx context.Context, referrerEmail string) ([]store.ReferralEdge, error)
	countDirectFn func(ctx context.Context, referrerEmail string) (int, error)
	maxDepthFn    func(ctx context.Context, referrerEmail string) (int, error)
}

func (s stubReferralStore) CreateEdge(ctx context.Context, tx store.Execer, referrerEmail, referredEmail string, levelDepth int) error {
	if s.createEdgeFn == nil {
		return nil
	}
	return s.createEdgeFn(ctx, tx, referrerEmail, referredEmail, levelDepth)
}

func (s stubReferralStore) Upline(ctx context.Context, referredEmail string, maxDepth int) ([]store.ReferralEdge, error) {
	if s.uplineFn == nil {
		return nil, nil
	}
	return s.uplineFn(ctx, referredEmail, maxDepth)
}

func (s stubReferralStore) ListByReferrer(ctx context.Context, referrerEmail string) ([]store.ReferralEdge, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, referrerEmail)
}

func (s stubReferralStore) CountDirect(ctx context.Context, referrerEmail string) (int, error) {
	if s.countDirectFn == nil {
		return 0, nil
	}
	return s.countDirectFn(ctx, referrerEmail)
}

func (s stubReferralStore) MaxDepth(ctx context.Context, referrerEmail string) (int, error) {
	if s.maxDepthFn == nil {
		return 0, nil
	}
	return s.maxDepthFn(ctx, referrerEmail)
}

type stubDistributionStore struct {
	listByUserFn func(ctx context.Context, userEmail string, limit, offset int) ([]store.DistributionRecord, error)
	listByDateFn func(ctx context.Context, date time.Time, limit, offset int) ([]store.DistributionRecord, error)
	summarizeFn  func(ctx context.Context, date time.Time) (store.DistributionSummary, error)
}

func (s stubDistributionStore) ListByUser(ctx context.Context, userEmail string, limit, offset int) ([]store.DistributionRecord, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userEmail, limit, offset)
}

func (s stubDistributionStore) ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]store.DistributionRecord, error) {
	if s.listByDateFn == nil {
		return nil, nil
	}
	return s.listByDateFn(ctx, date, limit, offset)
}

func (s stubDistributionStore) SummarizeDate(ctx context.Context, date time.Time) (store.DistributionSummary, error) {
	if s.summarizeFn == nil {
		return store.DistributionSummary{}, nil
	}
	return s.summarizeFn(ctx, date)
}

type stubCommissionStore struct {
	listByReferrerFn func(ctx context.Context, referrerEmail string, limit, offset int) ([]store.CommissionEvent, error)
	summarizeFn      func(ctx context.Context, date time.Time) (store.CommissionSummary, error)
}

func (s stubCommissionStore) ListByReferrer(ctx context.Context, referrerEmail string, limit, offset int) ([]store.CommissionEvent, error) {
	if s.listByReferrerFn == nil {
		return nil, nil
	}
	return s.listByReferrerFn(ctx, referrerEmail, limit, offset)
}

func (s stubCommissionStore) SummarizeDate(ctx context.Context, date time.Time) (store.CommissionSummary, error) {
	if s.summarizeFn == nil {
		return store.CommissionSummary{}, nil
	}
	return s.summarizeFn(ctx, date)
}

type stubRankBonusStore struct {
	listByUserFn  func(ctx context.Context, userEmail string, limit, offset int) ([]store.RankBonusRecord, error)
	listByMonthFn func(ctx context.Context, month string, limit, offset int) ([]store.RankBonusRecord, error)
}

func (s stubRankBonusStore) ListByUser(ctx context.Context, userEmail string, limit, offset int) ([]store.RankBonusRecord, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userEmail, limit, offset)
}

func (s stubRankBonusStore) ListByMonth(ctx context.Context, month string, limit, offset int) ([]store.RankBonusRecord, error) {
	if s.listByMonthFn == nil {
		return nil, nil
	}
	return s.listByMonthFn(ctx, month, limit, offset)
}

type stubAdminStore struct {
	isAdminFn     func(ctx context.Context, userID string) (bool, bool, error)
	hasRoleFn     func(ctx context.Context, userID, role string) (bool, error)
	createAdminFn func(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
	grantRoleFn   func(ctx context.Context, tx store.Execer, adminUserID, role string) error
	hasAnyAdminFn func(ctx context.Context) (bool, error)
}

func (s stubAdminStore) IsAdmin(ctx context.Context, userID string) (bool, bool, error) {
	if s.isAdminFn == nil {
		return false, false, nil
	}
	return s.isAdminFn(ctx, userID)
}

func (s stubAdminStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if s.hasRoleFn == nil {
		return false, nil
	}
	return s.hasRoleFn(ctx, userID, role)
}

func (s stubAdminStore) CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error {
	if s.createAdminFn == nil {
		return nil
	}
	return s.createAdminFn(ctx, tx, userID, isSuper, createdBy)
}

func (s stubAdminStore) GrantRole(ctx context.Context, tx store.Execer, adminUserID, role string) error {
	if s.grantRoleFn == nil {
		return nil
	}
	return s.grantRoleFn(ctx, tx, adminUserID, role)
}

func (s stubAdminStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	if s.hasAnyAdminFn == nil {
		return true, nil
	}
	return s.hasAnyAdminFn(ctx)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubLedgerService struct {
	applyFn func(ctx context.Context, entry services.EntryRequest) (services.ApplyResult, error)
}

func (s stubLedgerService) ApplyEntry(ctx context.Context, entry services.EntryRequest) (services.ApplyResult, error) {
	if s.applyFn == nil {
		return services.ApplyResult{Applied: true}, nil
	}
	return s.applyFn(ctx, entry)
}

type stubTransferService struct {
	betweenWalletsFn func(ctx context.Context, actorID, email string, fromField, toField token.WalletField, amount decimal.Decimal) (string, error)
	toUserFn         func(ctx context.Context, actorID, fromEmail, toEmail string, amount decimal.Decimal) (string, error)
}

func (s stubTransferService) TransferBetweenWallets(ctx context.Context, actorID, email string, fromField, toField token.WalletField, amount decimal.Decimal) (string, error) {
	if s.betweenWalletsFn == nil {
		return "transfer-1", nil
	}
	return s.betweenWalletsFn(ctx, actorID, email, fromField, toField, amount)
}

func (s stubTransferService) TransferToUser(ctx context.Context, actorID, fromEmail, toEmail string, amount decimal.Decimal) (string, error) {
	if s.toUserFn == nil {
		return "transfer-1", nil
	}
	return s.toUserFn(ctx, actorID, fromEmail, toEmail, amount)
}

type stubSubscriptionService struct {
	purchaseFn func(ctx context.Context, actorID, userEmail, planID string, startDate time.Time) (store.Subscription, error)
	expireFn   func(ctx context.Context, now time.Time) (int64, error)
}

func (s stubSubscriptionService) Purchase(ctx context.Context, actorID, userEmail, planID string, startDate time.Time) (store.Subscription, error) {
	if s.purchaseFn == nil {
		return store.Subscription{}, nil
	}
	return s.purchaseFn(ctx, actorID, userEmail, planID, startDate)
}

func (s stubSubscriptionService) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	if s.expireFn == nil {
		return 0, nil
	}
	return s.expireFn(ctx, now)
}

type stubDistributionService struct {
	runDailyFn func(ctx context.Context, date time.Time) (services.DistributionReport, error)
}

func (s stubDistributionService) RunDaily(ctx context.Context, date time.Time) (services.DistributionReport, error) {
	if s.runDailyFn == nil {
		return services.DistributionReport{}, nil
	}
	return s.runDailyFn(ctx, date)
}

type stubRankService struct {
	runMonthlyFn func(ctx context.Context, month string) (services.RankReport, error)
}

func (s stubRankService) RunMonthly(ctx context.Context, month string) (services.RankReport, error) {
	if s.runMonthlyFn == nil {
		return services.RankReport{}, nil
	}
	return s.runMonthlyFn(ctx, month)
}

// testDeps bundles handler dependencies so tests only set what they assert
// on; everything else defaults to a permissive stub.
type testDeps struct {
	reconcileDB   store.Selecter
	txRunner      fakeTxRunner
	users         UserStore
	accounts      AccountStore
	ledger        LedgerStore
	subscriptions SubscriptionStore
	referrals     ReferralStore
	distributions DistributionStore
	commissions   CommissionStore
	rankBonuses   RankBonusStore
	admin         AdminStore
	audit         AuditStore
	entries       LedgerService
	transfers     TransferService
	subService    SubscriptionService
	distService   DistributionService
	rankService   RankService
}

func newTestHandler(deps testDeps) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		CronSecret:     "cron-secret",
		AllowedOrigins: "*",
	}
	if deps.reconcileDB == nil {
		deps.reconcileDB = stubReconcileDB{}
	}
	if deps.users == nil {
		deps.users = stubUserStore{}
	}
	if deps.accounts == nil {
		deps.accounts = stubAccountStore{}
	}
	if deps.ledger == nil {
		deps.ledger = stubLedgerStore{}
	}
	if deps.subscriptions == nil {
		deps.subscriptions = stubSubscriptionStore{}
	}
	if deps.referrals == nil {
		deps.referrals = stubReferralStore{}
	}
	if deps.distributions == nil {
		deps.distributions = stubDistributionStore{}
	}
	if deps.commissions == nil {
		deps.commissions = stubCommissionStore{}
	}
	if deps.rankBonuses == nil {
		deps.rankBonuses = stubRankBonusStore{}
	}
	if deps.admin == nil {
		deps.admin = stubAdminStore{}
	}
	if deps.audit == nil {
		deps.audit = stubAuditStore{}
	}
	if deps.entries == nil {
		deps.entries = stubLedgerService{}
	}
	if deps.transfers == nil {
		deps.transfers = stubTransferService{}
	}
	if deps.subService == nil {
		deps.subService = stubSubscriptionService{}
	}
	if deps.distService == nil {
		deps.distService = stubDistributionService{}
	}
	if deps.rankService == nil {
		deps.rankService = stubRankService{}
	}
	return New(deps.reconcileDB, deps.txRunner, cfg, deps.users, deps.accounts, deps.ledger, deps.subscriptions, deps.referrals, deps.distributions, deps.commissions, deps.rankBonuses, deps.admin, deps.audit, deps.entries, deps.transfers, deps.subService, deps.distService, deps.rankService, websocket.NewHub())
}

func serveWithAuth(t *testing.T, handler http.HandlerFunc, userID, method string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	jwtToken, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/", body)
	req.Header.Set("Authorization", "Bearer "+jwtToken)
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}

func jsonBody(payload string) io.Reader {
	return strings.NewReader(payload)
}
