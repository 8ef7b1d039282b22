package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ticledger/internal/config"
	"ticledger/internal/db"
	"ticledger/internal/handlers"
	"ticledger/internal/logging"
	"ticledger/internal/services"
	"ticledger/internal/store"
	"ticledger/internal/websocket"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	users := store.NewUserStore(database)
	accounts := store.NewAccountStore(database)
	ledger := store.NewLedgerStore(database)
	subscriptions := store.NewSubscriptionStore(database)
	referrals := store.NewReferralStore(database)
	distributions := store.NewDistributionStore(database)
	commissions := store.NewCommissionStore(database)
	rankBonuses := store.NewRankBonusStore(database)
	admin := store.NewAdminStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	ledgerService := services.NewLedgerService(txRunner, accounts, ledger, audit, hub)
	transferService := services.NewTransferService(txRunner, ledgerService, audit)
	commissionService := services.NewCommissionService(txRunner, referrals, commissions, ledgerService, logger)
	distributionService := services.NewDistributionService(txRunner, subscriptions, distributions, ledgerService, commissionService, logger, cfg.DistributionPageRate, cfg.DistributionPageSize)
	rankService := services.NewRankService(txRunner, referrals, rankBonuses, ledgerService, logger, cfg.DistributionPageRate, cfg.DistributionPageSize)
	subscriptionService := services.NewSubscriptionService(txRunner, subscriptions, audit, logger)

	handler := handlers.New(database, txRunner, cfg, users, accounts, ledger, subscriptions, referrals, distributions, commissions, rankBonuses, admin, audit, ledgerService, transferService, subscriptionService, distributionService, rankService, hub)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler.Routes(),
		ReadTimeout: 10 * time.Second,
		// Batch runs are triggered over HTTP, so writes get generous room.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("ledger API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", zap.Error(err))
	}
}
