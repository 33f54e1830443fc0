package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pixvest/settlement/internal/domain"
	"github.com/pixvest/settlement/internal/models"
)

// The pipelines consume the ledger store through narrow per-pipeline
// contracts, all satisfied by *repository.Repository. No method assumes a
// cross-row transaction; every call is an independent idempotent statement
// and the pipelines tolerate partial application between them.

type DepositStore interface {
	PendingDeposits(ctx context.Context, method int16) ([]models.Deposit, error)
	TransitionDeposit(ctx context.Context, id uuid.UUID, from, to domain.DepositStatus) error
	CreditInvestBalance(ctx context.Context, id uuid.UUID, amount int64) error
	AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
	CreateContract(ctx context.Context, contract *models.Contract) error
}

type CommissionStore interface {
	ConfirmedDeposits(ctx context.Context) ([]models.Deposit, error)
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	TransitionDeposit(ctx context.Context, id uuid.UUID, from, to domain.DepositStatus) error
	CreditBalance(ctx context.Context, id uuid.UUID, amount int64) error
	AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
}

type WithdrawalStore interface {
	PendingWithdrawals(ctx context.Context, method int16) ([]models.Withdrawal, error)
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	AccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	TransitionWithdrawal(ctx context.Context, id uuid.UUID, from, to domain.WithdrawalStatus) error
	CreditBalance(ctx context.Context, id uuid.UUID, amount int64) error
	AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
}

type OriginationStore interface {
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	AccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	CreateDeposit(ctx context.Context, deposit *models.Deposit) error
}
