package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pixvest/settlement/internal/domain"
	"github.com/pixvest/settlement/internal/gateway"
	"github.com/pixvest/settlement/internal/models"
	"github.com/pixvest/settlement/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WithdrawalService disburses pending PIX withdrawals through the gateway.
// There is no true rollback across the gateway boundary: a failed payout is
// compensated by re-crediting the withdrawn value, which reverses the debit
// taken when the withdrawal was requested.
type WithdrawalService struct {
	store       WithdrawalStore
	gateway     gateway.Client
	concurrency int
}

func NewWithdrawalService(store WithdrawalStore, gw gateway.Client, concurrency int) *WithdrawalService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &WithdrawalService{store: store, gateway: gw, concurrency: concurrency}
}

// ProcessPendingWithdrawals runs one disbursement tick.
func (s *WithdrawalService) ProcessPendingWithdrawals(ctx context.Context) error {
	withdrawals, err := s.store.PendingWithdrawals(ctx, domain.MethodPix)
	if err != nil {
		return fmt.Errorf("fetch pending withdrawals: %w", err)
	}
	if len(withdrawals) == 0 {
		return nil
	}

	token, err := s.gateway.AcquireToken(ctx)
	if err != nil {
		return fmt.Errorf("acquire gateway token: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, withdrawal := range withdrawals {
		withdrawal := withdrawal
		g.Go(func() error {
			s.processWithdrawal(gctx, token, withdrawal)
			return nil
		})
	}
	return g.Wait()
}

func (s *WithdrawalService) processWithdrawal(ctx context.Context, token string, withdrawal models.Withdrawal) {
	account, err := s.resolveAccount(ctx, withdrawal.AccountID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			s.fail(ctx, withdrawal, "account not found")
			return
		}
		// Transient store error: leave pending for the next tick.
		zap.L().Warn("withdrawal account lookup failed",
			zap.String("withdrawal_id", withdrawal.ID.String()),
			zap.String("error_class", "transient"),
			zap.Error(err))
		return
	}

	keyType, err := domain.ClassifyPixKey(withdrawal.PixKey)
	if err != nil {
		s.fail(ctx, withdrawal, fmt.Sprintf("invalid pix key %q", withdrawal.PixKey))
		return
	}

	// A fresh token per attempt: a retried withdrawal is a new attempt to
	// the gateway, never a replay of the previous one.
	idempotentID := strings.ReplaceAll(uuid.NewString(), "-", "")

	receipt, err := s.gateway.SubmitPayout(ctx, token, gateway.PayoutRequest{
		ValueCents:       withdrawal.Value,
		PixKey:           withdrawal.PixKey,
		PixKeyType:       keyType,
		IdempotentID:     idempotentID,
		ReceiverName:     account.Name,
		ReceiverDocument: withdrawal.Document,
	})
	if err != nil {
		s.fail(ctx, withdrawal, err.Error())
		return
	}

	if err := s.store.TransitionWithdrawal(ctx, withdrawal.ID, domain.WithdrawalPending, domain.WithdrawalPaid); err != nil {
		zap.L().Error("withdrawal paid transition failed",
			zap.String("withdrawal_id", withdrawal.ID.String()), zap.Error(err))
		return
	}

	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		AccountID:   withdrawal.AccountID,
		Value:       withdrawal.Value,
		Category:    domain.EntryWithdrawal,
		Outcome:     domain.OutcomeCompleted,
		Description: "Pix payout completed",
		ReferenceID: &withdrawal.ID,
	}
	if err := s.store.AppendLedgerEntry(ctx, entry); err != nil {
		zap.L().Error("withdrawal ledger entry failed",
			zap.String("withdrawal_id", withdrawal.ID.String()), zap.Error(err))
		return
	}

	observability.IncrementWithdrawalOutcome("paid")
	zap.L().Info("withdrawal paid",
		zap.String("withdrawal_id", withdrawal.ID.String()),
		zap.String("payment_id", receipt.PaymentID),
		zap.Int64("value_cents", withdrawal.Value))
}

// resolveAccount tries the primary account id first, then the secondary
// user id; withdrawal rows created before the identity migration carry the
// latter.
func (s *WithdrawalService) resolveAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.store.AccountByID(ctx, id)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, models.ErrAccountNotFound) {
		return nil, err
	}
	return s.store.AccountByUserID(ctx, id)
}

// fail terminally fails the withdrawal and applies the compensating refund.
// The status transition is the commit point: if another run already moved
// the row, nothing else is applied.
func (s *WithdrawalService) fail(ctx context.Context, withdrawal models.Withdrawal, reason string) {
	if err := s.store.TransitionWithdrawal(ctx, withdrawal.ID, domain.WithdrawalPending, domain.WithdrawalFailed); err != nil {
		zap.L().Error("withdrawal failed transition failed",
			zap.String("withdrawal_id", withdrawal.ID.String()), zap.Error(err))
		return
	}

	if err := s.store.CreditBalance(ctx, withdrawal.AccountID, withdrawal.Value); err != nil {
		zap.L().Error("withdrawal refund credit failed",
			zap.String("withdrawal_id", withdrawal.ID.String()),
			zap.String("account_id", withdrawal.AccountID.String()),
			zap.Int64("value_cents", withdrawal.Value),
			zap.Error(err))
	}

	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		AccountID:   withdrawal.AccountID,
		Value:       withdrawal.Value,
		Category:    domain.EntryWithdrawal,
		Outcome:     domain.OutcomeFailed,
		Description: "Pix payout failed: " + reason,
		ReferenceID: &withdrawal.ID,
	}
	if err := s.store.AppendLedgerEntry(ctx, entry); err != nil {
		zap.L().Error("withdrawal failure ledger entry failed",
			zap.String("withdrawal_id", withdrawal.ID.String()), zap.Error(err))
	}

	observability.IncrementWithdrawalOutcome("failed")
	zap.L().Warn("withdrawal failed",
		zap.String("withdrawal_id", withdrawal.ID.String()),
		zap.String("reason", reason))
}
