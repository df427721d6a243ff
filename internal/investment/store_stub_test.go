package investment

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/ledgertest"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
	"go.uber.org/zap"
)

type stubStore struct {
	ledgerStore *ledgertest.Store
	deposits    map[string]Deposit
	investments map[string]Investment
	referrers   map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{
		ledgerStore: ledgertest.New(),
		deposits:    map[string]Deposit{},
		investments: map[string]Investment{},
		referrers:   map[string]string{},
	}
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	return fn(ctx, store)
}

func (store *stubStore) Ledger() ledger.Store {
	return store.ledgerStore
}

func (store *stubStore) CreateDeposit(ctx context.Context, deposit Deposit) error {
	if _, exists := store.deposits[deposit.DepositID]; exists {
		return fmt.Errorf("duplicate deposit %s", deposit.DepositID)
	}
	store.deposits[deposit.DepositID] = deposit
	return nil
}

func (store *stubStore) GetDepositByOrderID(ctx context.Context, orderID string) (Deposit, error) {
	for _, deposit := range store.deposits {
		if deposit.OrderID == orderID {
			return deposit, nil
		}
	}
	return Deposit{}, fmt.Errorf("%w: order %s", ErrDepositNotFound, orderID)
}

func (store *stubStore) MarkDepositSuccess(ctx context.Context, orderID string, paymentID string) (bool, error) {
	for id, deposit := range store.deposits {
		if deposit.OrderID != orderID {
			continue
		}
		if deposit.Status != DepositPending {
			return false, nil
		}
		deposit.Status = DepositSuccess
		deposit.PaymentID = paymentID
		store.deposits[id] = deposit
		return true, nil
	}
	return false, fmt.Errorf("%w: order %s", ErrDepositNotFound, orderID)
}

func (store *stubStore) CreateInvestment(ctx context.Context, investment Investment) error {
	store.investments[investment.InvestmentID] = investment
	store.ledgerStore.Lots[investment.InvestmentID] = &ledgertest.Lot{
		InvestmentID: investment.InvestmentID,
		UserID:       investment.UserID,
		AmountCents:  investment.AmountCents,
		Active:       investment.IsActive,
		Flexi:        investment.Plan == PlanFlexi,
	}
	return nil
}

func (store *stubStore) GetInvestmentForUpdate(ctx context.Context, investmentID string) (Investment, error) {
	investment, ok := store.investments[investmentID]
	if !ok {
		return Investment{}, fmt.Errorf("%w: %s", ErrNotFound, investmentID)
	}
	return investment, nil
}

func (store *stubStore) DeactivateInvestment(ctx context.Context, investmentID string) (bool, error) {
	investment, ok := store.investments[investmentID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, investmentID)
	}
	if !investment.IsActive {
		return false, nil
	}
	investment.IsActive = false
	store.investments[investmentID] = investment
	if lot, exists := store.ledgerStore.Lots[investmentID]; exists {
		lot.Active = false
	}
	return true, nil
}

func (store *stubStore) ListMaturedFixedInvestments(ctx context.Context, nowUnixUTC int64, limit int) ([]Investment, error) {
	matured := []Investment{}
	for _, investment := range store.investments {
		if investment.IsActive && investment.Plan.IsFixed() && investment.MaturityUnixUTC <= nowUnixUTC {
			matured = append(matured, investment)
		}
	}
	sort.Slice(matured, func(i, j int) bool { return matured[i].InvestmentID < matured[j].InvestmentID })
	if len(matured) > limit {
		matured = matured[:limit]
	}
	return matured, nil
}

func (store *stubStore) ListActiveInvestments(ctx context.Context, userID string) ([]Investment, error) {
	active := []Investment{}
	for _, investment := range store.investments {
		if investment.UserID == userID && investment.IsActive {
			active = append(active, investment)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].InvestmentID < active[j].InvestmentID })
	return active, nil
}

func (store *stubStore) GetReferrer(ctx context.Context, userID string) (string, error) {
	return store.referrers[userID], nil
}

func (store *stubStore) seedDeposit(test *testing.T, deposit Deposit) {
	test.Helper()
	store.deposits[deposit.DepositID] = deposit
}

func (store *stubStore) seedInvestment(test *testing.T, investment Investment) {
	test.Helper()
	store.investments[investment.InvestmentID] = investment
	store.ledgerStore.Lots[investment.InvestmentID] = &ledgertest.Lot{
		InvestmentID: investment.InvestmentID,
		UserID:       investment.UserID,
		AmountCents:  investment.AmountCents,
		Active:       investment.IsActive,
		Flexi:        investment.Plan == PlanFlexi,
	}
}

const testGatewaySecret = "test-gateway-secret"

func mustNewService(test *testing.T, store Store) *Service {
	test.Helper()
	service, err := NewService(store, func() int64 { return 1700000000 }, zap.NewNop(), Config{
		GatewaySecret: []byte(testGatewaySecret),
		AdminUserID:   "admin-user",
	})
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}
