package distribution

import (
	"context"
	"testing"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

func TestRunSettlementSweepsExcessOnly(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.base.SeedWallet("user-rich", 120000, 30000, 0, 0)
	store.base.SeedWallet("user-poor", 50, 0, 0, 0)
	service := mustNewService(test, store)

	summary, err := service.RunSettlement(context.Background(), 100000)
	if err != nil {
		test.Fatalf("settlement: %v", err)
	}
	if summary.UsersSwept != 1 || summary.TotalCents != 50000 || summary.Errors != 0 {
		test.Fatalf("summary = %+v, want 1 user and 50000 cents", summary)
	}
	if len(store.base.Withdrawals) != 1 {
		test.Fatalf("withdrawals = %d, want 1", len(store.base.Withdrawals))
	}
	for _, withdrawal := range store.base.Withdrawals {
		if withdrawal.UserID != "user-rich" || withdrawal.AmountCents != 50000 {
			test.Fatalf("withdrawal = %+v, want 50000 for user-rich", withdrawal)
		}
		if withdrawal.Status != ledger.WithdrawalPending || withdrawal.AdminRemark != settlementRemark {
			test.Fatalf("withdrawal = %+v, want pending settlement sweep", withdrawal)
		}
	}
	// Waterfall drains profit before principal; the kept minimum stays liquid.
	wallet := store.base.Wallets["user-rich"]
	if wallet.ProfitCents != 0 || wallet.PrincipalCents != 100000 || wallet.LockedCents != 50000 {
		test.Fatalf("wallet = %+v, want profit drained and 100000 principal kept", wallet)
	}
}

func TestRunSettlementContinuesPastFailure(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.ledgerStore = &flakyLedger{Store: store.base, failUserID: "user-bad"}
	store.base.SeedWallet("user-bad", 10000, 0, 0, 0)
	store.base.SeedWallet("user-good", 20000, 0, 0, 0)
	service := mustNewService(test, store)

	summary, err := service.RunSettlement(context.Background(), 0)
	if err != nil {
		test.Fatalf("settlement: %v", err)
	}
	if summary.Errors != 1 || summary.UsersSwept != 1 || summary.TotalCents != 20000 {
		test.Fatalf("summary = %+v, want one failure and one sweep of 20000", summary)
	}
	if len(store.base.Withdrawals) != 1 {
		test.Fatalf("withdrawals = %d, want only user-good's", len(store.base.Withdrawals))
	}
}

func TestRunLiquidationCombinesLiquidAndLocked(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.base.SeedWallet("user-1", 200000, 0, 0, 300000)
	store.seedLot(test, "lot-fixed", "user-1", 300000, false)
	store.seedLot(test, "lot-flexi", "user-1", 150000, true)
	service := mustNewService(test, store)

	summary, err := service.RunLiquidation(context.Background(), 0)
	if err != nil {
		test.Fatalf("liquidation: %v", err)
	}
	if summary.UsersSwept != 1 || summary.TotalCents != 500000 || summary.Errors != 0 {
		test.Fatalf("summary = %+v, want one payout of 500000", summary)
	}
	wallet := store.base.Wallets["user-1"]
	if wallet.PrincipalCents != 0 || wallet.LockedCents != 500000 {
		test.Fatalf("wallet = %+v, want everything parked in locked", wallet)
	}
	for _, investmentID := range []string{"lot-fixed", "lot-flexi"} {
		if store.base.Lots[investmentID].Active {
			test.Fatalf("lot %s still active", investmentID)
		}
	}
	if len(store.base.LotLedger) != 2 {
		test.Fatalf("lot ledger rows = %d, want 2 redemptions", len(store.base.LotLedger))
	}
	for _, row := range store.base.LotLedger {
		if row.Action != ledger.LotActionRedemption || row.BalanceAfter != 0 {
			test.Fatalf("lot ledger row = %+v, want closing redemption", row)
		}
	}
	if len(store.base.Withdrawals) != 1 {
		test.Fatalf("withdrawals = %d, want 1", len(store.base.Withdrawals))
	}
	for _, withdrawal := range store.base.Withdrawals {
		if withdrawal.AmountCents != 500000 || withdrawal.AdminRemark != liquidationRemark {
			test.Fatalf("withdrawal = %+v, want full liquidation of 500000", withdrawal)
		}
	}
	settlements := store.base.TransactionsOfType(ledger.TransactionSettlement)
	if len(settlements) != 1 || settlements[0].AmountCents != 500000 {
		test.Fatalf("settlement transactions = %+v, want one of 500000", settlements)
	}
}

func TestRunLiquidationTaxesAboveThreshold(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.base.SeedWallet("user-1", 1000000, 0, 0, 5000000)
	store.seedLot(test, "lot-fixed", "user-1", 5000000, false)
	service := mustNewService(test, store)

	summary, err := service.RunLiquidation(context.Background(), 0)
	if err != nil {
		test.Fatalf("liquidation: %v", err)
	}
	// 1% of the combined 6000000 is withheld.
	if summary.TotalCents != 5940000 {
		test.Fatalf("total = %d, want payout 5940000", summary.TotalCents)
	}
	wallet := store.base.Wallets["user-1"]
	if wallet.LockedCents != 5940000 {
		test.Fatalf("locked = %d, want payout 5940000", wallet.LockedCents)
	}
	taxSum, err := store.base.SumAccount(context.Background(), ledger.UserID{}, ledger.AccountSystemPool)
	if err != nil {
		test.Fatalf("sum system pool: %v", err)
	}
	if taxSum != 60000 {
		test.Fatalf("system pool sum = %d, want 60000", taxSum)
	}
	for _, withdrawal := range store.base.Withdrawals {
		if withdrawal.AmountCents != 5940000 {
			test.Fatalf("withdrawal = %+v, want 5940000 after tax", withdrawal)
		}
	}
}

func TestRunLiquidationSkipsEmptyWallets(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.base.SeedWallet("user-empty", 0, 0, 0, 0)
	service := mustNewService(test, store)

	summary, err := service.RunLiquidation(context.Background(), 0)
	if err != nil {
		test.Fatalf("liquidation: %v", err)
	}
	if summary.UsersSwept != 0 || summary.Errors != 0 {
		test.Fatalf("summary = %+v, want nothing swept", summary)
	}
	if len(store.base.Withdrawals) != 0 {
		test.Fatalf("withdrawals = %d, want none", len(store.base.Withdrawals))
	}
}
