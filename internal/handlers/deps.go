package handlers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ticledger/internal/services"
	"ticledger/internal/store"
	"ticledger/internal/token"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (map[string]any, error)
	GetByID(ctx context.Context, userID string) (map[string]any, error)
	EmailByID(ctx context.Context, userID string) (string, error)
	ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, email string) error
	GetByEmail(ctx context.Context, email string) (store.Account, error)
	ListAll(ctx context.Context, limit, offset int) ([]store.Account, error)
}

type LedgerStore interface {
	ListByAccount(ctx context.Context, email string, limit, offset int) ([]store.LedgerEntry, error)
	SumAllWallets(ctx context.Context, email string) ([]store.WalletLedgerSum, error)
}

type SubscriptionStore interface {
	ListByUser(ctx context.Context, userEmail string) ([]store.Subscription, error)
}

type ReferralStore interface {
	CreateEdge(ctx context.Context, tx store.Execer, referrerEmail, referredEmail string, levelDepth int) error
	Upline(ctx context.Context, referredEmail string, maxDepth int) ([]store.ReferralEdge, error)
	ListByReferrer(ctx context.Context, referrerEmail string) ([]store.ReferralEdge, error)
	CountDirect(ctx context.Context, referrerEmail string) (int, error)
	MaxDepth(ctx context.Context, referrerEmail string) (int, error)
}

type DistributionStore interface {
	ListByUser(ctx context.Context, userEmail string, limit, offset int) ([]store.DistributionRecord, error)
	ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]store.DistributionRecord, error)
	SummarizeDate(ctx context.Context, date time.Time) (store.DistributionSummary, error)
}

type CommissionStore interface {
	ListByReferrer(ctx context.Context, referrerEmail string, limit, offset int) ([]store.CommissionEvent, error)
	SummarizeDate(ctx context.Context, date time.Time) (store.CommissionSummary, error)
}

type RankBonusStore interface {
	ListByUser(ctx context.Context, userEmail string, limit, offset int) ([]store.RankBonusRecord, error)
	ListByMonth(ctx context.Context, month string, limit, offset int) ([]store.RankBonusRecord, error)
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, bool, error)
	HasRole(ctx context.Context, userID, role string) (bool, error)
	CreateAdmin(ctx context.Context, tx store.Execer, userID string, isSuper bool, createdBy *string) error
	GrantRole(ctx context.Context, tx store.Execer, adminUserID, role string) error
	HasAnyAdmin(ctx context.Context) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

type LedgerService interface {
	ApplyEntry(ctx context.Context, entry services.EntryRequest) (services.ApplyResult, error)
}

type TransferService interface {
	TransferBetweenWallets(ctx context.Context, actorID, email string, fromField, toField token.WalletField, amount decimal.Decimal) (string, error)
	TransferToUser(ctx context.Context, actorID, fromEmail, toEmail string, amount decimal.Decimal) (string, error)
}

type SubscriptionService interface {
	Purchase(ctx context.Context, actorID, userEmail, planID string, startDate time.Time) (store.Subscription, error)
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

type DistributionService interface {
	RunDaily(ctx context.Context, date time.Time) (services.DistributionReport, error)
}

type RankService interface {
	RunMonthly(ctx context.Context, month string) (services.RankReport, error)
}
