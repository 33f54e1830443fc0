package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pixvest/settlement/internal/config"
	"github.com/pixvest/settlement/internal/db"
	"github.com/pixvest/settlement/internal/gateway"
	"github.com/pixvest/settlement/internal/observability"
	"github.com/pixvest/settlement/internal/ops"
	"github.com/pixvest/settlement/internal/repository"
	"github.com/pixvest/settlement/internal/service"
	"github.com/pixvest/settlement/internal/worker"
	"go.uber.org/zap"
)

// Run bootstraps the three settlement pipelines and the ops server,
// blocking until shutdown. Pipeline errors never terminate the process;
// only a shutdown signal or an ops server failure does.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	var gw gateway.Client
	if cfg.GatewayMock {
		logger.Warn("using mock payment gateway")
		gw = gateway.NewMock()
	} else {
		gw = gateway.NewPrimePag(cfg.GatewayBaseURL, cfg.GatewayClientID, cfg.GatewayClientSecret, cfg.GatewayTimeout)
	}

	repo := repository.NewRepository(pool)

	reconciliationSvc := service.NewReconciliationService(repo, gw, cfg.DepositExpiry, cfg.TickConcurrency)
	commissionSvc := service.NewCommissionService(repo, cfg.CommissionPercentages)
	withdrawalSvc := service.NewWithdrawalService(repo, gw, cfg.TickConcurrency)

	pipelines := []*worker.Pipeline{
		worker.NewPipeline("deposit_reconciliation", cfg.DepositCheckInterval, reconciliationSvc.CheckPendingDeposits),
		worker.NewPipeline("commission_distribution", cfg.CommissionInterval, commissionSvc.DistributeCommissions),
		worker.NewPipeline("withdrawal_disbursement", cfg.WithdrawalInterval, withdrawalSvc.ProcessPendingWithdrawals),
	}
	stops := make([]func(), 0, len(pipelines))
	for _, p := range pipelines {
		stops = append(stops, p.Run(ctx))
	}
	logger.Info("settlement pipelines started",
		zap.Duration("deposit_check_interval", cfg.DepositCheckInterval),
		zap.Duration("commission_interval", cfg.CommissionInterval),
		zap.Duration("withdrawal_interval", cfg.WithdrawalInterval),
		zap.Int("max_referral_level", commissionSvc.MaxLevel()))

	server := &http.Server{
		Addr:         ":" + cfg.OpsPort,
		Handler:      ops.NewRouter(pool),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("ops server starting", zap.String("port", cfg.OpsPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ops server error: %w", err)
		}
	}

	logger.Info("stopping pipelines")
	for _, stop := range stops {
		stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
