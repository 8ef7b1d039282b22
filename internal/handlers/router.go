package handlers

import (
	"net/http"

	"ticledger/internal/config"
	"ticledger/internal/db"
	"ticledger/internal/middleware"
	"ticledger/internal/store"
	"ticledger/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	reconcileDB   store.Selecter
	txRunner      db.TxRunner
	cfg           config.Config
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
	hub           *websocket.Hub
}

func New(reconcileDB store.Selecter, txRunner db.TxRunner, cfg config.Config, users UserStore, accounts AccountStore, ledger LedgerStore, subscriptions SubscriptionStore, referrals ReferralStore, distributions DistributionStore, commissions CommissionStore, rankBonuses RankBonusStore, admin AdminStore, audit AuditStore, entries LedgerService, transfers TransferService, subService SubscriptionService, distService DistributionService, rankService RankService, hub *websocket.Hub) *Handler {
	return &Handler{
		reconcileDB:   reconcileDB,
		txRunner:      txRunner,
		cfg:           cfg,
		users:         users,
		accounts:      accounts,
		ledger:        ledger,
		subscriptions: subscriptions,
		referrals:     referrals,
		distributions: distributions,
		commissions:   commissions,
		rankBonuses:   rankBonuses,
		admin:         admin,
		audit:         audit,
		entries:       entries,
		transfers:     transfers,
		subService:    subService,
		distService:   distService,
		rankService:   rankService,
		hub:           hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})
	router.Route("/wallets", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/", h.GetWallets)
		r.Get("/history", h.LedgerHistory)
		r.Get("/self-check", h.SelfCheck)
		r.Post("/transfer", h.WalletTransfer)
		r.Post("/send", h.UserTransfer)
	})
	router.Route("/subscriptions", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/", h.ListSubscriptions)
		r.Post("/", h.PurchaseSubscription)
	})
	router.Route("/referrals", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/", h.ListReferrals)
		r.Get("/stats", h.ReferralStats)
	})
	router.Route("/earnings", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/distributions", h.ListMyDistributions)
		r.Get("/commissions", h.ListMyCommissions)
		r.Get("/rank-bonuses", h.ListMyRankBonuses)
	})
	router.Get("/ws/wallets", h.WSWallets)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.With(middleware.RequireAdmin(h.admin, "CanViewUsers")).Get("/users", h.AdminListUsers)
		r.With(middleware.RequireAdmin(h.admin, "CanViewUsers")).Get("/accounts", h.AdminListAccounts)
		r.With(middleware.RequireAdmin(h.admin, "CanManageLedger")).Post("/ledger/deposit", h.AdminDeposit)
		r.With(middleware.RequireAdmin(h.admin, "CanManageLedger")).Post("/ledger/withdraw", h.AdminWithdraw)
		r.With(middleware.RequireAdmin(h.admin, "CanViewLedger")).Get("/distributions", h.AdminListDistributions)
		r.With(middleware.RequireAdmin(h.admin, "CanViewLedger")).Get("/rank-bonuses", h.AdminListRankBonuses)
		r.With(middleware.RequireAdmin(h.admin, "")).Post("/roles/grant", h.GrantRole)
		r.With(middleware.RequireAdmin(h.admin, "")).Post("/promote", h.PromoteAdmin)
		r.With(middleware.RequireAdmin(h.admin, "CanViewLedger")).Get("/audit", h.ListAuditLogs)
		r.With(middleware.RequireAdmin(h.admin, "CanViewLedger")).Get("/reconcile", h.Reconcile)
	})

	router.Route("/cron", func(r chi.Router) {
		r.Use(middleware.CronAuth(h.cfg.CronSecret))
		r.Post("/daily-distribution", h.CronDailyDistribution)
		r.Post("/rank-bonus", h.CronRankBonus)
		r.Post("/expire-subscriptions", h.CronExpireSubscriptions)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
