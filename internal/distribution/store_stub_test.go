package distribution

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/ledgertest"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
	"go.uber.org/zap"
)

// flakyLedger fails CreateWithdrawal for one user so batch tests can prove
// a bad record never aborts the run.
type flakyLedger struct {
	*ledgertest.Store
	failUserID string
}

func (store *flakyLedger) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	return fn(ctx, store)
}

func (store *flakyLedger) CreateWithdrawal(ctx context.Context, withdrawal ledger.Withdrawal) error {
	if withdrawal.UserID == store.failUserID {
		return fmt.Errorf("stub: withdrawal insert refused for %s", withdrawal.UserID)
	}
	return store.Store.CreateWithdrawal(ctx, withdrawal)
}

type stubStore struct {
	ledgerStore   ledger.Store
	base          *ledgertest.Store
	participants  []Participant
	periods       map[string]*PerformancePeriod
	distributions []DistributionSummary
}

func newStubStore() *stubStore {
	base := ledgertest.New()
	return &stubStore{
		ledgerStore: base,
		base:        base,
		periods:     map[string]*PerformancePeriod{},
	}
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	return fn(ctx, store)
}

func (store *stubStore) Ledger() ledger.Store {
	return store.ledgerStore
}

func (store *stubStore) ListParticipants(ctx context.Context) ([]Participant, error) {
	return append([]Participant{}, store.participants...), nil
}

func (store *stubStore) ListWalletOwners(ctx context.Context) ([]string, error) {
	owners := make([]string, 0, len(store.base.Wallets))
	for owner := range store.base.Wallets {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

func (store *stubStore) CreatePerformancePeriod(ctx context.Context, period PerformancePeriod) error {
	if _, exists := store.periods[period.PeriodID]; exists {
		return fmt.Errorf("stub: period exists")
	}
	copied := period
	store.periods[period.PeriodID] = &copied
	return nil
}

func (store *stubStore) GetPerformancePeriod(ctx context.Context, periodID string) (PerformancePeriod, error) {
	period, ok := store.periods[periodID]
	if !ok {
		return PerformancePeriod{}, fmt.Errorf("%w: %s", ErrPeriodNotFound, periodID)
	}
	return *period, nil
}

func (store *stubStore) LockPerformancePeriod(ctx context.Context, periodID string) (bool, error) {
	period, ok := store.periods[periodID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrPeriodNotFound, periodID)
	}
	if period.Locked {
		return false, nil
	}
	period.Locked = true
	return true, nil
}

func (store *stubStore) LinkPerformancePeriod(ctx context.Context, periodID string, distributionID string) (bool, error) {
	period, ok := store.periods[periodID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrPeriodNotFound, periodID)
	}
	if period.DistributionLinked {
		return false, nil
	}
	period.DistributionLinked = true
	return true, nil
}

func (store *stubStore) CreateDistribution(ctx context.Context, summary DistributionSummary) error {
	store.distributions = append(store.distributions, summary)
	return nil
}

func (store *stubStore) ListActiveLots(ctx context.Context, userID string) ([]ActiveLot, error) {
	lots := []ActiveLot{}
	for _, lot := range store.base.Lots {
		if lot.UserID == userID && lot.Active {
			lots = append(lots, ActiveLot{
				InvestmentID: lot.InvestmentID,
				UserID:       lot.UserID,
				AmountCents:  lot.AmountCents,
				Flexi:        lot.Flexi,
			})
		}
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].InvestmentID < lots[j].InvestmentID })
	return lots, nil
}

func (store *stubStore) DeactivateLot(ctx context.Context, investmentID string) (bool, error) {
	lot, ok := store.base.Lots[investmentID]
	if !ok {
		return false, fmt.Errorf("stub: unknown lot %s", investmentID)
	}
	if !lot.Active {
		return false, nil
	}
	lot.Active = false
	return true, nil
}

func (store *stubStore) seedParticipant(test *testing.T, userID string, principalCents int64, preference PayoutPreference) {
	test.Helper()
	store.participants = append(store.participants, Participant{
		UserID:         userID,
		PrincipalCents: principalCents,
		Preference:     preference,
	})
	store.base.SeedWallet(userID, principalCents, 0, 0, 0)
}

func (store *stubStore) seedLot(test *testing.T, investmentID, userID string, amountCents int64, flexi bool) {
	test.Helper()
	store.base.Lots[investmentID] = &ledgertest.Lot{
		InvestmentID: investmentID,
		UserID:       userID,
		AmountCents:  amountCents,
		Active:       true,
		Flexi:        flexi,
	}
}

func (store *stubStore) seedPeriod(test *testing.T, period PerformancePeriod) {
	test.Helper()
	copied := period
	store.periods[period.PeriodID] = &copied
}

func mustNewService(test *testing.T, store Store) *Service {
	test.Helper()
	service, err := NewService(store, func() int64 { return 1700000000 }, zap.NewNop(), nil, Config{
		AdminUserID: "admin-user",
	})
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}
