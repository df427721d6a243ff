package ledger

import "context"

// Store is the persistence contract used by Service. Implementations must
// make WithTx atomic and support nesting (an inner WithTx joins the outer
// unit via a savepoint or equivalent).
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	InsertTransaction(ctx context.Context, transaction Transaction) error
	InsertEntry(ctx context.Context, entry Entry) error

	// GetTransactionForUpdate locks one transaction row for the duration of
	// the enclosing unit, so a pending event settles exactly once.
	GetTransactionForUpdate(ctx context.Context, transactionID string) (Transaction, error)
	// UpdateTransactionStatus performs a conditional from→to flip and fails
	// with ErrInvalidState when no row matched.
	UpdateTransactionStatus(ctx context.Context, transactionID string, from, to TransactionStatus) error

	// GetWalletForUpdate returns the user's projection row, locked for the
	// duration of the enclosing transaction so concurrent per-user
	// operations serialize. Creates an empty wallet when none exists yet.
	GetWalletForUpdate(ctx context.Context, userID UserID) (WalletBalance, error)
	GetWallet(ctx context.Context, userID UserID) (WalletBalance, error)
	ApplyWalletDelta(ctx context.Context, userID UserID, accountType AccountType, deltaCents int64) error
	SaveWallet(ctx context.Context, wallet WalletBalance) error

	// SumAccount returns credits minus debits over all entries for the
	// (owner, accountType) pair. A zero owner addresses system accounts.
	SumAccount(ctx context.Context, owner UserID, accountType AccountType) (int64, error)

	CreateWithdrawal(ctx context.Context, withdrawal Withdrawal) error
	GetWithdrawalForUpdate(ctx context.Context, withdrawalID string) (Withdrawal, error)
	// UpdateWithdrawalStatus performs a conditional from→to transition and
	// fails with ErrInvalidState when no row matched, which is the
	// idempotency guard against double approval.
	UpdateWithdrawalStatus(ctx context.Context, withdrawalID string, from, to WithdrawalStatus, remark string, processedUnixUTC int64) error

	// Flexi lot drawdown hooks for the principal leg of a withdrawal.
	ListActiveFlexiLots(ctx context.Context, userID UserID) ([]FlexiLot, error)
	ReduceFlexiLot(ctx context.Context, investmentID string, newAmountCents int64, active bool) error
	AppendLotLedger(ctx context.Context, row LotLedgerRow) error
}

// LotLedgerRow mirrors an investment mutation in the audit sub-ledger.
type LotLedgerRow struct {
	InvestmentID     string
	UserID           string
	Action           string
	AmountDeltaCents int64
	BalanceAfter     int64
	TransactionID    string
	CreatedUnixUTC   int64
}

// Sub-ledger actions.
const (
	LotActionCreation   = "creation"
	LotActionAccrual    = "accrual"
	LotActionRedemption = "redemption"
	LotActionMaturity   = "maturity"
)
