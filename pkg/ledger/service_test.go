package ledger

import (
	"context"
	"errors"
	"testing"
)

func depositInput(test *testing.T, userID UserID, amount int64) TransactionInput {
	test.Helper()
	return TransactionInput{
		UserID: userID,
		Type:   TransactionDeposit,
		Amount: mustAmount(test, amount),
		Movements: []Movement{
			{Account: AccountGateway, Direction: Debit, Amount: mustAmount(test, amount)},
			{Owner: userID, Account: AccountPrincipal, Direction: Credit, Amount: mustAmount(test, amount)},
		},
	}
}

func TestRecordTransactionWritesBalancedEntries(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	userID := mustUserID(test, "user-1")

	transaction, err := service.RecordTransaction(context.Background(), depositInput(test, userID, 10000))
	if err != nil {
		test.Fatalf("record: %v", err)
	}
	if transaction.Status != StatusSuccess {
		test.Fatalf("expected success status, got %s", transaction.Status)
	}
	if len(store.entries) != 2 {
		test.Fatalf("expected 2 entries, got %d", len(store.entries))
	}
	var creditTotal, debitTotal int64
	for _, entry := range store.entries {
		if entry.TransactionID != transaction.TransactionID {
			test.Fatalf("entry not linked to transaction")
		}
		switch entry.Direction {
		case Credit:
			creditTotal += entry.AmountCents.Int64()
		case Debit:
			debitTotal += entry.AmountCents.Int64()
		}
	}
	if creditTotal != debitTotal {
		test.Fatalf("balance law violated: credits %d, debits %d", creditTotal, debitTotal)
	}
}

func TestRecordTransactionUpdatesProjectionSynchronously(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	userID := mustUserID(test, "user-2")

	if _, err := service.RecordTransaction(context.Background(), depositInput(test, userID, 2500)); err != nil {
		test.Fatalf("record: %v", err)
	}
	wallet, err := service.Balance(context.Background(), userID)
	if err != nil {
		test.Fatalf("balance: %v", err)
	}
	if wallet.PrincipalCents != 2500 {
		test.Fatalf("expected principal 2500, got %d", wallet.PrincipalCents)
	}
}

func TestRecordTransactionRejectsUnbalancedMovements(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	userID := mustUserID(test, "user-3")

	input := TransactionInput{
		UserID: userID,
		Type:   TransactionDeposit,
		Amount: mustAmount(test, 1000),
		Movements: []Movement{
			{Account: AccountGateway, Direction: Debit, Amount: mustAmount(test, 900)},
			{Owner: userID, Account: AccountPrincipal, Direction: Credit, Amount: mustAmount(test, 1000)},
		},
	}
	_, err := service.RecordTransaction(context.Background(), input)
	if !errors.Is(err, ErrUnbalancedTransaction) {
		test.Fatalf("expected ErrUnbalancedTransaction, got %v", err)
	}
	if len(store.transactions) != 0 || len(store.entries) != 0 {
		test.Fatalf("expected nothing persisted, got %d transactions and %d entries", len(store.transactions), len(store.entries))
	}
}

func TestRecordTransactionRejectsNegativeResultingBalance(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.seedWallet(test, "user-4", 500, 0, 0, 0)
	service := mustNewService(test, store)
	userID := mustUserID(test, "user-4")

	input := TransactionInput{
		UserID: userID,
		Type:   TransactionAdjustment,
		Amount: mustAmount(test, 900),
		Movements: []Movement{
			{Owner: userID, Account: AccountPrincipal, Direction: Debit, Amount: mustAmount(test, 900)},
			{Account: AccountAdminBank, Direction: Credit, Amount: mustAmount(test, 900)},
		},
	}
	_, err := service.RecordTransaction(context.Background(), input)
	if !errors.Is(err, ErrNegativeBalance) {
		test.Fatalf("expected ErrNegativeBalance, got %v", err)
	}
	wallet, err := service.Balance(context.Background(), userID)
	if err != nil {
		test.Fatalf("balance: %v", err)
	}
	if wallet.PrincipalCents != 500 {
		test.Fatalf("expected principal unchanged at 500, got %d", wallet.PrincipalCents)
	}
}

func TestRecordTransactionRejectsSystemMovementWithOwner(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	userID := mustUserID(test, "user-5")

	input := TransactionInput{
		UserID: userID,
		Type:   TransactionDeposit,
		Amount: mustAmount(test, 100),
		Movements: []Movement{
			{Owner: userID, Account: AccountGateway, Direction: Debit, Amount: mustAmount(test, 100)},
			{Owner: userID, Account: AccountPrincipal, Direction: Credit, Amount: mustAmount(test, 100)},
		},
	}
	_, err := service.RecordTransaction(context.Background(), input)
	if !errors.Is(err, ErrInvalidMovement) {
		test.Fatalf("expected ErrInvalidMovement, got %v", err)
	}
}

func TestRecordTransactionRollsBackOnEntryFailure(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.failInsertEntry = true
	service := mustNewService(test, store)
	userID := mustUserID(test, "user-6")

	if _, err := service.RecordTransaction(context.Background(), depositInput(test, userID, 700)); err == nil {
		test.Fatalf("expected entry insert failure")
	}
	if len(store.transactions) != 0 {
		test.Fatalf("expected transaction row rolled back")
	}
	if wallet := store.wallets["user-6"]; wallet.PrincipalCents != 0 {
		test.Fatalf("expected wallet delta rolled back, got %d", wallet.PrincipalCents)
	}
}

func TestRecordTransactionPendingBonusHasNoPostings(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	userID := mustUserID(test, "user-7")

	input := TransactionInput{
		UserID: userID,
		Type:   TransactionReferralBonus,
		Status: StatusPending,
		Amount: mustAmount(test, 300),
	}
	transaction, err := service.RecordTransaction(context.Background(), input)
	if err != nil {
		test.Fatalf("record: %v", err)
	}
	if transaction.Status != StatusPending {
		test.Fatalf("expected pending status, got %s", transaction.Status)
	}
	if len(store.entries) != 0 {
		test.Fatalf("pending bonus must not post entries, got %d", len(store.entries))
	}
}

func TestPostPendingTransactionSettlesOnce(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.seedWallet(test, "payer-user", 0, 1000, 0, 0)
	service := mustNewService(test, store)
	payerID := mustUserID(test, "payer-user")
	payeeID := mustUserID(test, "payee-user")

	pending, err := service.RecordTransaction(context.Background(), TransactionInput{
		UserID: payeeID,
		Type:   TransactionReferralBonus,
		Status: StatusPending,
		Amount: mustAmount(test, 300),
	})
	if err != nil {
		test.Fatalf("record pending: %v", err)
	}

	movements := []Movement{
		{Owner: payerID, Account: AccountProfit, Direction: Debit, Amount: mustAmount(test, 300)},
		{Owner: payeeID, Account: AccountReferral, Direction: Credit, Amount: mustAmount(test, 300)},
	}
	posted, err := service.PostPendingTransaction(context.Background(), pending.TransactionID, movements)
	if err != nil {
		test.Fatalf("post: %v", err)
	}
	if posted.Status != StatusSuccess {
		test.Fatalf("expected success status, got %s", posted.Status)
	}
	if len(store.entries) != 2 {
		test.Fatalf("expected 2 entries, got %d", len(store.entries))
	}
	if wallet := store.wallets["payer-user"]; wallet.ProfitCents != 700 {
		test.Fatalf("expected payer profit 700, got %d", wallet.ProfitCents)
	}
	if wallet := store.wallets["payee-user"]; wallet.ReferralCents != 300 {
		test.Fatalf("expected payee referral 300, got %d", wallet.ReferralCents)
	}

	_, err = service.PostPendingTransaction(context.Background(), pending.TransactionID, movements)
	if !errors.Is(err, ErrInvalidState) {
		test.Fatalf("expected ErrInvalidState on second post, got %v", err)
	}
	if wallet := store.wallets["payee-user"]; wallet.ReferralCents != 300 {
		test.Fatalf("expected no double credit, got %d", wallet.ReferralCents)
	}
}

func TestPostPendingTransactionRejectsUnbalancedMovements(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.seedWallet(test, "payer-2", 0, 1000, 0, 0)
	service := mustNewService(test, store)
	payerID := mustUserID(test, "payer-2")
	payeeID := mustUserID(test, "payee-2")

	pending, err := service.RecordTransaction(context.Background(), TransactionInput{
		UserID: payeeID,
		Type:   TransactionReferralBonus,
		Status: StatusPending,
		Amount: mustAmount(test, 300),
	})
	if err != nil {
		test.Fatalf("record pending: %v", err)
	}
	_, err = service.PostPendingTransaction(context.Background(), pending.TransactionID, []Movement{
		{Owner: payerID, Account: AccountProfit, Direction: Debit, Amount: mustAmount(test, 200)},
		{Owner: payeeID, Account: AccountReferral, Direction: Credit, Amount: mustAmount(test, 300)},
	})
	if !errors.Is(err, ErrUnbalancedTransaction) {
		test.Fatalf("expected ErrUnbalancedTransaction, got %v", err)
	}
	if len(store.entries) != 0 {
		test.Fatalf("expected nothing posted, got %d entries", len(store.entries))
	}
	if stored := store.transactions[0]; stored.Status != StatusPending {
		test.Fatalf("expected transaction still pending, got %s", stored.Status)
	}
}

func TestRecordTransactionRejectsSuccessWithoutMovements(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store)
	userID := mustUserID(test, "user-8")

	_, err := service.RecordTransaction(context.Background(), TransactionInput{
		UserID: userID,
		Type:   TransactionDeposit,
		Amount: mustAmount(test, 100),
	})
	if !errors.Is(err, ErrInvalidMovement) {
		test.Fatalf("expected ErrInvalidMovement, got %v", err)
	}
}
