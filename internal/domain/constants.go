package domain

// Status values are persisted as small ints and must match the wire values
// used by the deposit-origination side.

type DepositStatus int16

const (
	DepositPending   DepositStatus = 0
	DepositConfirmed DepositStatus = 1
	DepositSettled   DepositStatus = 2
	DepositExpired   DepositStatus = 3
)

type WithdrawalStatus int16

const (
	WithdrawalPending WithdrawalStatus = 0
	WithdrawalPaid    WithdrawalStatus = 1
	WithdrawalFailed  WithdrawalStatus = 2
)

// MethodPix tags deposits and withdrawals settled over instant transfer.
// Other method values exist upstream but are not processed by this core.
const MethodPix int16 = 1

// Ledger entry categories.
const (
	EntryDeposit       = "deposit"
	EntryWithdrawal    = "withdrawal"
	EntryBonusDirect   = "bonus_direct"
	EntryBonusIndirect = "bonus_indirect"
)

// Ledger entry outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Contract status.
const ContractActive = "active"

// PIX key types accepted by the gateway.
const (
	PixKeyEmail = "email"
	PixKeyPhone = "phone"
	PixKeyCPF   = "cpf"
)
