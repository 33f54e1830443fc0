package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pixvest/settlement/internal/domain"
	"github.com/pixvest/settlement/internal/models"
)

// Repository is the pgx-backed ledger store. Every mutation is a single
// statement: status transitions carry their expected current status in the
// WHERE clause and balance credits are atomic increments, so pipelines can
// re-enter safely without cross-row transactions.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const depositColumns = `id, account_id, external_ref, value, method, status, created_at, updated_at`

func (r *Repository) PendingDeposits(ctx context.Context, method int16) ([]models.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE status = $1 AND method = $2 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, domain.DepositPending, method)
	if err != nil {
		return nil, fmt.Errorf("list pending deposits: %w", err)
	}
	defer rows.Close()
	return scanDeposits(rows)
}

func (r *Repository) ConfirmedDeposits(ctx context.Context) ([]models.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE status = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, domain.DepositConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list confirmed deposits: %w", err)
	}
	defer rows.Close()
	return scanDeposits(rows)
}

func scanDeposits(rows pgx.Rows) ([]models.Deposit, error) {
	var deposits []models.Deposit
	for rows.Next() {
		var d models.Deposit
		if err := rows.Scan(&d.ID, &d.AccountID, &d.ExternalRef, &d.Value, &d.Method, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read deposits: %w", err)
	}
	return deposits, nil
}

// TransitionDeposit moves a deposit from one status to another. A zero row
// count means another run got there first and is reported as a conflict.
func (r *Repository) TransitionDeposit(ctx context.Context, id uuid.UUID, from, to domain.DepositStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE deposits SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return fmt.Errorf("transition deposit %s: %w", id, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("transition deposit %s %d->%d: %w", id, from, to, models.ErrStatusConflict)
	}
	return nil
}

func (r *Repository) CreateDeposit(ctx context.Context, deposit *models.Deposit) error {
	query := `INSERT INTO deposits (id, account_id, external_ref, value, method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		deposit.ID, deposit.AccountID, deposit.ExternalRef, deposit.Value, deposit.Method, deposit.Status,
	).Scan(&deposit.CreatedAt, &deposit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create deposit: %w", err)
	}
	return nil
}

func (r *Repository) PendingWithdrawals(ctx context.Context, method int16) ([]models.Withdrawal, error) {
	query := `SELECT id, account_id, value, pix_key, document, method, status, created_at
		FROM withdrawals WHERE status = $1 AND method = $2 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, domain.WithdrawalPending, method)
	if err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.AccountID, &w.Value, &w.PixKey, &w.Document, &w.Method, &w.Status, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (r *Repository) TransitionWithdrawal(ctx context.Context, id uuid.UUID, from, to domain.WithdrawalStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE withdrawals SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return fmt.Errorf("transition withdrawal %s: %w", id, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("transition withdrawal %s %d->%d: %w", id, from, to, models.ErrStatusConflict)
	}
	return nil
}

func (r *Repository) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.account(ctx, `WHERE id = $1`, id)
}

// AccountByUserID is the secondary identity key; origination and withdrawal
// processing fall back to it when the primary lookup misses.
func (r *Repository) AccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	return r.account(ctx, `WHERE user_id = $1`, userID)
}

func (r *Repository) account(ctx context.Context, where string, arg any) (*models.Account, error) {
	account := &models.Account{}
	query := `SELECT id, user_id, referrer_id, name, document, balance, balance_invest, created_at FROM accounts ` + where
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&account.ID, &account.UserID, &account.ReferrerID, &account.Name,
		&account.Document, &account.Balance, &account.BalanceInvest, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// CreditBalance atomically increments the available balance. The guard in
// the WHERE clause keeps the committed balance non-negative even if a
// negative amount ever reaches this path.
func (r *Repository) CreditBalance(ctx context.Context, id uuid.UUID, amount int64) error {
	return r.credit(ctx, `balance`, id, amount)
}

// CreditInvestBalance atomically increments the investable balance.
func (r *Repository) CreditInvestBalance(ctx context.Context, id uuid.UUID, amount int64) error {
	return r.credit(ctx, `balance_invest`, id, amount)
}

func (r *Repository) credit(ctx context.Context, column string, id uuid.UUID, amount int64) error {
	query := fmt.Sprintf(
		`UPDATE accounts SET %s = %s + $1 WHERE id = $2 AND %s + $1 >= 0`,
		column, column, column)
	tag, err := r.db.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("credit %s of account %s: %w", column, id, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("credit %s of account %s by %d: %w", column, id, amount, models.ErrAccountNotFound)
	}
	return nil
}

func (r *Repository) AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, account_id, value, category, outcome, description, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		entry.ID, entry.AccountID, entry.Value, entry.Category, entry.Outcome, entry.Description, entry.ReferenceID,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (r *Repository) CreateContract(ctx context.Context, contract *models.Contract) error {
	query := `INSERT INTO contracts (id, account_id, principal, yield, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		contract.ID, contract.AccountID, contract.Principal, contract.Yield, contract.Status,
	).Scan(&contract.CreatedAt, &contract.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create contract: %w", err)
	}
	return nil
}
