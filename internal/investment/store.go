package investment

import (
	"context"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

// Store is the persistence contract used by Service. WithTx must be atomic
// and nestable; Ledger exposes the same transactional handle to the ledger
// core so a lot mutation and its postings share one atomic unit.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	Ledger() ledger.Store

	CreateDeposit(ctx context.Context, deposit Deposit) error
	GetDepositByOrderID(ctx context.Context, orderID string) (Deposit, error)
	// MarkDepositSuccess performs the atomic conditional pending→success
	// flip and reports whether this call won it. Duplicate webhook
	// deliveries lose the flip and are treated as already processed.
	MarkDepositSuccess(ctx context.Context, orderID string, paymentID string) (bool, error)

	CreateInvestment(ctx context.Context, investment Investment) error
	GetInvestmentForUpdate(ctx context.Context, investmentID string) (Investment, error)
	// DeactivateInvestment flips the one-way is_active latch and reports
	// whether this call won it.
	DeactivateInvestment(ctx context.Context, investmentID string) (bool, error)
	ListMaturedFixedInvestments(ctx context.Context, nowUnixUTC int64, limit int) ([]Investment, error)
	ListActiveInvestments(ctx context.Context, userID string) ([]Investment, error)

	// GetReferrer returns the user id that referred the given depositor,
	// empty when the depositor was not referred.
	GetReferrer(ctx context.Context, userID string) (string, error)
}
