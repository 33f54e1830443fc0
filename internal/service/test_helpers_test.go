package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pixvest/settlement/internal/domain"
	"github.com/pixvest/settlement/internal/gateway"
	"github.com/pixvest/settlement/internal/models"
)

// fakeStore is an in-memory ledger store satisfying every pipeline store
// contract. Error fields inject failures per call site.
type fakeStore struct {
	mu sync.Mutex

	accounts    map[uuid.UUID]*models.Account
	deposits    map[uuid.UUID]*models.Deposit
	withdrawals map[uuid.UUID]*models.Withdrawal
	entries     []models.LedgerEntry
	contracts   []models.Contract

	listDepositsErr    error
	listWithdrawalsErr error
	creditErr          error
	entryErr           error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:    make(map[uuid.UUID]*models.Account),
		deposits:    make(map[uuid.UUID]*models.Deposit),
		withdrawals: make(map[uuid.UUID]*models.Withdrawal),
	}
}

func (f *fakeStore) addAccount(a models.Account) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := a
	f.accounts[a.ID] = &stored
	return &stored
}

func (f *fakeStore) addDeposit(d models.Deposit) *models.Deposit {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := d
	f.deposits[d.ID] = &stored
	return &stored
}

func (f *fakeStore) addWithdrawal(w models.Withdrawal) *models.Withdrawal {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := w
	f.withdrawals[w.ID] = &stored
	return &stored
}

func (f *fakeStore) PendingDeposits(_ context.Context, method int16) ([]models.Deposit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listDepositsErr != nil {
		return nil, f.listDepositsErr
	}
	var out []models.Deposit
	for _, d := range f.deposits {
		if d.Status == domain.DepositPending && d.Method == method {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStore) ConfirmedDeposits(_ context.Context) ([]models.Deposit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listDepositsErr != nil {
		return nil, f.listDepositsErr
	}
	var out []models.Deposit
	for _, d := range f.deposits {
		if d.Status == domain.DepositConfirmed {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStore) TransitionDeposit(_ context.Context, id uuid.UUID, from, to domain.DepositStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.deposits[id]
	if !ok || d.Status != from {
		return fmt.Errorf("transition deposit %s: %w", id, models.ErrStatusConflict)
	}
	d.Status = to
	return nil
}

func (f *fakeStore) CreateDeposit(_ context.Context, deposit *models.Deposit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *deposit
	f.deposits[deposit.ID] = &stored
	return nil
}

func (f *fakeStore) PendingWithdrawals(_ context.Context, method int16) ([]models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listWithdrawalsErr != nil {
		return nil, f.listWithdrawalsErr
	}
	var out []models.Withdrawal
	for _, w := range f.withdrawals {
		if w.Status == domain.WithdrawalPending && w.Method == method {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeStore) TransitionWithdrawal(_ context.Context, id uuid.UUID, from, to domain.WithdrawalStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.withdrawals[id]
	if !ok || w.Status != from {
		return fmt.Errorf("transition withdrawal %s: %w", id, models.ErrStatusConflict)
	}
	w.Status = to
	return nil
}

func (f *fakeStore) AccountByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeStore) AccountByUserID(_ context.Context, userID uuid.UUID) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.UserID == userID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (f *fakeStore) CreditBalance(_ context.Context, id uuid.UUID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.creditErr != nil {
		return f.creditErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.Balance += amount
	return nil
}

func (f *fakeStore) CreditInvestBalance(_ context.Context, id uuid.UUID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.creditErr != nil {
		return f.creditErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.BalanceInvest += amount
	return nil
}

func (f *fakeStore) AppendLedgerEntry(_ context.Context, entry *models.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entryErr != nil {
		return f.entryErr
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeStore) CreateContract(_ context.Context, contract *models.Contract) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contracts = append(f.contracts, *contract)
	return nil
}

func (f *fakeStore) entriesFor(accountID uuid.UUID) []models.LedgerEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeStore) balance(accountID uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[accountID].Balance
}

func (f *fakeStore) depositStatus(id uuid.UUID) domain.DepositStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deposits[id].Status
}

func (f *fakeStore) withdrawalStatus(id uuid.UUID) domain.WithdrawalStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.withdrawals[id].Status
}

// stubGateway returns canned responses and records payout submissions.
type stubGateway struct {
	mu sync.Mutex

	token    string
	tokenErr error

	status    string
	statusErr error

	charge    *gateway.Charge
	chargeErr error

	receipt   *gateway.PayoutReceipt
	payoutErr error

	payoutRequests []gateway.PayoutRequest
	statusLookups  []string
}

func (s *stubGateway) AcquireToken(context.Context) (string, error) {
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	if s.token == "" {
		return "stub-token", nil
	}
	return s.token, nil
}

func (s *stubGateway) PaymentStatus(_ context.Context, _, reference string) (string, error) {
	s.mu.Lock()
	s.statusLookups = append(s.statusLookups, reference)
	s.mu.Unlock()
	if s.statusErr != nil {
		return "", s.statusErr
	}
	return s.status, nil
}

func (s *stubGateway) CreateCharge(context.Context, string, gateway.ChargeRequest) (*gateway.Charge, error) {
	if s.chargeErr != nil {
		return nil, s.chargeErr
	}
	return s.charge, nil
}

func (s *stubGateway) SubmitPayout(_ context.Context, _ string, req gateway.PayoutRequest) (*gateway.PayoutReceipt, error) {
	s.mu.Lock()
	s.payoutRequests = append(s.payoutRequests, req)
	s.mu.Unlock()
	if s.payoutErr != nil {
		return nil, s.payoutErr
	}
	if s.receipt == nil {
		return &gateway.PayoutReceipt{PaymentID: "stub-payment"}, nil
	}
	return s.receipt, nil
}
