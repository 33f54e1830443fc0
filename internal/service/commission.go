package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pixvest/settlement/internal/domain"
	"github.com/pixvest/settlement/internal/models"
	"github.com/pixvest/settlement/internal/observability"
	"go.uber.org/zap"
)

// CommissionService fans out referral commissions for confirmed deposits.
// The percentage table is positional: percentages[0] applies to the direct
// referrer, each later element to one level further up the chain.
type CommissionService struct {
	store       CommissionStore
	percentages []int64
}

func NewCommissionService(store CommissionStore, percentages []int64) *CommissionService {
	return &CommissionService{store: store, percentages: percentages}
}

// MaxLevel is the depth of the referral walk.
func (s *CommissionService) MaxLevel() int {
	return len(s.percentages)
}

// DistributeCommissions runs one distribution tick over all confirmed
// deposits. Each deposit is settled after its walk, whether or not every
// level could be credited.
func (s *CommissionService) DistributeCommissions(ctx context.Context) error {
	deposits, err := s.store.ConfirmedDeposits(ctx)
	if err != nil {
		return fmt.Errorf("fetch confirmed deposits: %w", err)
	}

	for _, deposit := range deposits {
		s.distribute(ctx, deposit)
	}
	return nil
}

func (s *CommissionService) distribute(ctx context.Context, deposit models.Deposit) {
	s.walkChain(ctx, deposit)

	// Settle unconditionally: a truncated walk closes the deposit too,
	// otherwise a broken referral graph would replay commissions forever.
	if err := s.store.TransitionDeposit(ctx, deposit.ID, domain.DepositConfirmed, domain.DepositSettled); err != nil {
		zap.L().Error("deposit settle transition failed",
			zap.String("deposit_id", deposit.ID.String()), zap.Error(err))
	}
}

func (s *CommissionService) walkChain(ctx context.Context, deposit models.Deposit) {
	currentID := deposit.AccountID
	depositorName := "unknown"

	for level := 1; level <= len(s.percentages); level++ {
		account, err := s.store.AccountByID(ctx, currentID)
		if err != nil {
			zap.L().Warn("referral chain account lookup failed",
				zap.String("deposit_id", deposit.ID.String()),
				zap.String("account_id", currentID.String()),
				zap.Int("level", level),
				zap.String("error_class", "referral_graph"),
				zap.Error(err))
			return
		}
		if level == 1 {
			depositorName = account.Name
		}
		if account.ReferrerID == nil {
			return
		}

		referrer, err := s.store.AccountByID(ctx, *account.ReferrerID)
		if err != nil {
			zap.L().Warn("referrer account missing, truncating chain",
				zap.String("deposit_id", deposit.ID.String()),
				zap.String("referrer_id", account.ReferrerID.String()),
				zap.Int("level", level),
				zap.String("error_class", "referral_graph"),
				zap.Error(err))
			return
		}

		commission := domain.Commission(deposit.Value, s.percentages[level-1])
		category := domain.EntryBonusIndirect
		if level == 1 {
			category = domain.EntryBonusDirect
		}

		entry := &models.LedgerEntry{
			ID:          uuid.New(),
			AccountID:   referrer.ID,
			Value:       commission,
			Category:    category,
			Outcome:     domain.OutcomeCompleted,
			Description: fmt.Sprintf("Level %d bonus from deposit by %s", level, depositorName),
			ReferenceID: &deposit.ID,
		}
		if err := s.store.AppendLedgerEntry(ctx, entry); err != nil {
			zap.L().Error("commission ledger entry failed",
				zap.String("deposit_id", deposit.ID.String()),
				zap.String("referrer_id", referrer.ID.String()),
				zap.Int("level", level),
				zap.Error(err))
			return
		}
		if err := s.store.CreditBalance(ctx, referrer.ID, commission); err != nil {
			zap.L().Error("commission balance credit failed",
				zap.String("deposit_id", deposit.ID.String()),
				zap.String("referrer_id", referrer.ID.String()),
				zap.Int("level", level),
				zap.Error(err))
			return
		}

		observability.IncrementCommission(level)
		zap.L().Info("commission credited",
			zap.String("deposit_id", deposit.ID.String()),
			zap.String("referrer_id", referrer.ID.String()),
			zap.Int("level", level),
			zap.Int64("commission_cents", commission))

		currentID = referrer.ID
	}
}
