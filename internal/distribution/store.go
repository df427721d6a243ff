package distribution

import (
	"context"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

// Store is the persistence contract used by Service. WithTx must be atomic
// and nestable; Ledger exposes the same transactional handle to the ledger
// core so a lot closure and its postings share one atomic unit.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	Ledger() ledger.Store

	// ListParticipants returns every wallet with positive principal together
	// with its owner's payout preference.
	ListParticipants(ctx context.Context) ([]Participant, error)
	// ListWalletOwners returns every user id that owns a wallet projection
	// row, in a stable order.
	ListWalletOwners(ctx context.Context) ([]string, error)

	CreatePerformancePeriod(ctx context.Context, period PerformancePeriod) error
	GetPerformancePeriod(ctx context.Context, periodID string) (PerformancePeriod, error)
	// LockPerformancePeriod flips the one-way locked latch and reports
	// whether this call won it.
	LockPerformancePeriod(ctx context.Context, periodID string) (bool, error)
	// LinkPerformancePeriod flips distributionLinked exactly once and
	// reports whether this call won it. The losing call of a concurrent
	// double-distribution must not move money.
	LinkPerformancePeriod(ctx context.Context, periodID string, distributionID string) (bool, error)

	CreateDistribution(ctx context.Context, summary DistributionSummary) error

	// Liquidation hooks over the investment lots.
	ListActiveLots(ctx context.Context, userID string) ([]ActiveLot, error)
	// DeactivateLot flips the one-way is_active latch and reports whether
	// this call won it.
	DeactivateLot(ctx context.Context, investmentID string) (bool, error)
}
