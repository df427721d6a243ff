package ledger

import (
	"context"
	"testing"
)

func TestReconcileWalletRebuildsFromEntries(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	userID := mustUserID(test, "rebuild-user")

	if _, err := service.RecordTransaction(context.Background(), depositInput(test, userID, 50000)); err != nil {
		test.Fatalf("deposit: %v", err)
	}
	if _, _, err := service.RequestWithdrawal(context.Background(), userID, mustAmount(test, 20000)); err != nil {
		test.Fatalf("withdraw: %v", err)
	}

	// Corrupt the projection; entries must win.
	store.wallets["rebuild-user"] = WalletBalance{UserID: "rebuild-user", PrincipalCents: 99999, LockedCents: 1}

	rebuilt, err := service.ReconcileWallet(context.Background(), userID)
	if err != nil {
		test.Fatalf("reconcile: %v", err)
	}
	if rebuilt.PrincipalCents != 30000 {
		test.Fatalf("expected principal 30000 from entry sums, got %d", rebuilt.PrincipalCents)
	}
	if rebuilt.LockedCents != 20000 {
		test.Fatalf("expected locked 20000 from entry sums, got %d", rebuilt.LockedCents)
	}
	if stored := store.wallets["rebuild-user"]; stored != rebuilt {
		test.Fatalf("projection not overwritten: %+v", stored)
	}
}

func TestProjectionMatchesEntrySumsAfterOperations(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	userID := mustUserID(test, "sum-user")

	if _, err := service.RecordTransaction(context.Background(), depositInput(test, userID, 40000)); err != nil {
		test.Fatalf("deposit: %v", err)
	}
	withdrawal, _, _, err := service.OpenWithdrawal(context.Background(), userID, mustAmount(test, 15000), "")
	if err != nil {
		test.Fatalf("open: %v", err)
	}
	if err := service.ApproveWithdrawal(context.Background(), withdrawal.WithdrawalID); err != nil {
		test.Fatalf("approve: %v", err)
	}

	wallet := store.wallets["sum-user"]
	for _, accountType := range []AccountType{AccountPrincipal, AccountProfit, AccountReferral, AccountLocked} {
		sum, err := store.SumAccount(context.Background(), userID, accountType)
		if err != nil {
			test.Fatalf("sum %s: %v", accountType, err)
		}
		bucket, err := wallet.Bucket(accountType)
		if err != nil {
			test.Fatalf("bucket %s: %v", accountType, err)
		}
		if bucket.Int64() != sum {
			test.Fatalf("projection %s=%d disagrees with entry sum %d", accountType, bucket, sum)
		}
	}
}

func TestSystemAccountBalanceFromEntries(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	userID := mustUserID(test, "gw-user")

	if _, err := service.RecordTransaction(context.Background(), depositInput(test, userID, 12345)); err != nil {
		test.Fatalf("deposit: %v", err)
	}
	gateway, err := service.SystemAccountBalance(context.Background(), AccountGateway)
	if err != nil {
		test.Fatalf("system balance: %v", err)
	}
	if gateway != -12345 {
		test.Fatalf("expected gateway -12345 (funds owed in), got %d", gateway)
	}
	if _, err := service.SystemAccountBalance(context.Background(), AccountPrincipal); err == nil {
		test.Fatalf("expected rejection for user account type")
	}
}
