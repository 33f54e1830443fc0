package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pixvest/settlement/internal/domain"
	"github.com/pixvest/settlement/internal/gateway"
	"github.com/pixvest/settlement/internal/models"
	"github.com/pixvest/settlement/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReconciliationService confirms pending PIX deposits against the payment
// gateway. One token is acquired per tick and shared across the batch;
// per-deposit failures never abort the batch.
type ReconciliationService struct {
	store       DepositStore
	gateway     gateway.Client
	expiry      time.Duration
	concurrency int
}

func NewReconciliationService(store DepositStore, gw gateway.Client, expiry time.Duration, concurrency int) *ReconciliationService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ReconciliationService{
		store:       store,
		gateway:     gw,
		expiry:      expiry,
		concurrency: concurrency,
	}
}

// CheckPendingDeposits runs one reconciliation tick. A store or token
// failure aborts the whole tick; everything after that is per-item.
func (s *ReconciliationService) CheckPendingDeposits(ctx context.Context) error {
	deposits, err := s.store.PendingDeposits(ctx, domain.MethodPix)
	if err != nil {
		return fmt.Errorf("fetch pending deposits: %w", err)
	}
	if len(deposits) == 0 {
		return nil
	}

	token, err := s.gateway.AcquireToken(ctx)
	if err != nil {
		return fmt.Errorf("acquire gateway token: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, deposit := range deposits {
		deposit := deposit
		g.Go(func() error {
			s.checkDeposit(gctx, token, deposit)
			return nil
		})
	}
	return g.Wait()
}

func (s *ReconciliationService) checkDeposit(ctx context.Context, token string, deposit models.Deposit) {
	if deposit.ExternalRef == nil || *deposit.ExternalRef == "" {
		s.expire(ctx, deposit, "missing external reference")
		return
	}
	if time.Since(deposit.CreatedAt) > s.expiry {
		s.expire(ctx, deposit, "expiry window exceeded")
		return
	}

	status, err := s.gateway.PaymentStatus(ctx, token, *deposit.ExternalRef)
	if err != nil {
		// Transient: leave pending for the next tick.
		zap.L().Warn("deposit status lookup failed",
			zap.String("deposit_id", deposit.ID.String()),
			zap.String("external_ref", *deposit.ExternalRef),
			zap.String("error_class", "transient"),
			zap.Error(err))
		return
	}
	if status != gateway.StatusPaid {
		return
	}

	if err := s.store.TransitionDeposit(ctx, deposit.ID, domain.DepositPending, domain.DepositConfirmed); err != nil {
		zap.L().Warn("deposit confirmation transition failed",
			zap.String("deposit_id", deposit.ID.String()), zap.Error(err))
		return
	}

	// The steps below are applied independently; a crash in between leaves
	// a confirmed deposit that the ledger catches up with on inspection,
	// never a double credit.
	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		AccountID:   deposit.AccountID,
		Value:       deposit.Value,
		Category:    domain.EntryDeposit,
		Outcome:     domain.OutcomeCompleted,
		Description: "Deposit confirmed via Pix",
		ReferenceID: &deposit.ID,
	}
	if err := s.store.AppendLedgerEntry(ctx, entry); err != nil {
		zap.L().Error("deposit ledger entry failed",
			zap.String("deposit_id", deposit.ID.String()), zap.Error(err))
		return
	}

	if err := s.store.CreditInvestBalance(ctx, deposit.AccountID, deposit.Value); err != nil {
		zap.L().Error("investable balance credit failed",
			zap.String("deposit_id", deposit.ID.String()),
			zap.String("account_id", deposit.AccountID.String()),
			zap.Error(err))
		return
	}

	contract := &models.Contract{
		ID:        uuid.New(),
		AccountID: deposit.AccountID,
		Principal: deposit.Value,
		Yield:     0,
		Status:    domain.ContractActive,
	}
	if err := s.store.CreateContract(ctx, contract); err != nil {
		zap.L().Error("contract creation failed",
			zap.String("deposit_id", deposit.ID.String()), zap.Error(err))
		return
	}

	observability.IncrementDepositOutcome("confirmed")
	zap.L().Info("deposit confirmed",
		zap.String("deposit_id", deposit.ID.String()),
		zap.String("contract_id", contract.ID.String()),
		zap.Int64("value_cents", deposit.Value))
}

func (s *ReconciliationService) expire(ctx context.Context, deposit models.Deposit, reason string) {
	if err := s.store.TransitionDeposit(ctx, deposit.ID, domain.DepositPending, domain.DepositExpired); err != nil {
		zap.L().Warn("deposit expiry transition failed",
			zap.String("deposit_id", deposit.ID.String()), zap.Error(err))
		return
	}
	observability.IncrementDepositOutcome("expired")
	zap.L().Info("deposit expired",
		zap.String("deposit_id", deposit.ID.String()),
		zap.String("reason", reason))
}
