package ledger

import (
	"context"
	"fmt"
	"sort"
	"testing"
)

// stubStore is an in-memory Store with snapshot rollback, so failed
// transactions leave no partial state behind, like the real store.
type stubStore struct {
	transactions []Transaction
	entries      []Entry
	wallets      map[string]WalletBalance
	withdrawals  map[string]Withdrawal
	lots         map[string]stubLot
	lotLedger    []LotLedgerRow

	failInsertEntry bool
}

type stubLot struct {
	investmentID string
	userID       string
	amountCents  int64
	active       bool
	flexi        bool
}

func newStubStore() *stubStore {
	return &stubStore{
		wallets:     map[string]WalletBalance{},
		withdrawals: map[string]Withdrawal{},
		lots:        map[string]stubLot{},
	}
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	snapshot := store.snapshot()
	if err := fn(ctx, store); err != nil {
		store.restore(snapshot)
		return err
	}
	return nil
}

func (store *stubStore) snapshot() *stubStore {
	copied := &stubStore{
		transactions: append([]Transaction(nil), store.transactions...),
		entries:      append([]Entry(nil), store.entries...),
		wallets:      map[string]WalletBalance{},
		withdrawals:  map[string]Withdrawal{},
		lots:         map[string]stubLot{},
		lotLedger:    append([]LotLedgerRow(nil), store.lotLedger...),
	}
	for key, value := range store.wallets {
		copied.wallets[key] = value
	}
	for key, value := range store.withdrawals {
		copied.withdrawals[key] = value
	}
	for key, value := range store.lots {
		copied.lots[key] = value
	}
	return copied
}

func (store *stubStore) restore(snapshot *stubStore) {
	store.transactions = snapshot.transactions
	store.entries = snapshot.entries
	store.wallets = snapshot.wallets
	store.withdrawals = snapshot.withdrawals
	store.lots = snapshot.lots
	store.lotLedger = snapshot.lotLedger
}

func (store *stubStore) InsertTransaction(ctx context.Context, transaction Transaction) error {
	store.transactions = append(store.transactions, transaction)
	return nil
}

func (store *stubStore) InsertEntry(ctx context.Context, entry Entry) error {
	if store.failInsertEntry {
		return fmt.Errorf("stub: insert entry failed")
	}
	store.entries = append(store.entries, entry)
	return nil
}

func (store *stubStore) GetTransactionForUpdate(ctx context.Context, transactionID string) (Transaction, error) {
	for _, transaction := range store.transactions {
		if transaction.TransactionID == transactionID {
			return transaction, nil
		}
	}
	return Transaction{}, ErrTransactionNotFound
}

func (store *stubStore) UpdateTransactionStatus(ctx context.Context, transactionID string, from, to TransactionStatus) error {
	for index := range store.transactions {
		if store.transactions[index].TransactionID == transactionID && store.transactions[index].Status == from {
			store.transactions[index].Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: no matching transaction row", ErrInvalidState)
}

func (store *stubStore) GetWalletForUpdate(ctx context.Context, userID UserID) (WalletBalance, error) {
	wallet, ok := store.wallets[userID.String()]
	if !ok {
		wallet = WalletBalance{UserID: userID.String()}
		store.wallets[userID.String()] = wallet
	}
	return wallet, nil
}

func (store *stubStore) GetWallet(ctx context.Context, userID UserID) (WalletBalance, error) {
	wallet, ok := store.wallets[userID.String()]
	if !ok {
		return WalletBalance{}, ErrWalletNotFound
	}
	return wallet, nil
}

func (store *stubStore) ApplyWalletDelta(ctx context.Context, userID UserID, accountType AccountType, deltaCents int64) error {
	wallet := store.wallets[userID.String()]
	wallet.UserID = userID.String()
	switch accountType {
	case AccountPrincipal:
		wallet.PrincipalCents += AmountCents(deltaCents)
	case AccountProfit:
		wallet.ProfitCents += AmountCents(deltaCents)
	case AccountReferral:
		wallet.ReferralCents += AmountCents(deltaCents)
	case AccountLocked:
		wallet.LockedCents += AmountCents(deltaCents)
	default:
		return fmt.Errorf("stub: %q is not a wallet bucket", accountType)
	}
	store.wallets[userID.String()] = wallet
	return nil
}

func (store *stubStore) SaveWallet(ctx context.Context, wallet WalletBalance) error {
	store.wallets[wallet.UserID] = wallet
	return nil
}

func (store *stubStore) SumAccount(ctx context.Context, owner UserID, accountType AccountType) (int64, error) {
	var sum int64
	for _, entry := range store.entries {
		if entry.UserID != owner.String() || entry.Account != accountType {
			continue
		}
		if entry.Direction == Credit {
			sum += entry.AmountCents.Int64()
		} else {
			sum -= entry.AmountCents.Int64()
		}
	}
	return sum, nil
}

func (store *stubStore) CreateWithdrawal(ctx context.Context, withdrawal Withdrawal) error {
	if _, exists := store.withdrawals[withdrawal.WithdrawalID]; exists {
		return fmt.Errorf("stub: withdrawal exists")
	}
	store.withdrawals[withdrawal.WithdrawalID] = withdrawal
	return nil
}

func (store *stubStore) GetWithdrawalForUpdate(ctx context.Context, withdrawalID string) (Withdrawal, error) {
	withdrawal, ok := store.withdrawals[withdrawalID]
	if !ok {
		return Withdrawal{}, ErrWithdrawalNotFound
	}
	return withdrawal, nil
}

func (store *stubStore) UpdateWithdrawalStatus(ctx context.Context, withdrawalID string, from, to WithdrawalStatus, remark string, processedUnixUTC int64) error {
	withdrawal, ok := store.withdrawals[withdrawalID]
	if !ok || withdrawal.Status != from {
		return fmt.Errorf("%w: no matching withdrawal row", ErrInvalidState)
	}
	withdrawal.Status = to
	if remark != "" {
		withdrawal.AdminRemark = remark
	}
	withdrawal.ProcessedUnixUTC = processedUnixUTC
	store.withdrawals[withdrawalID] = withdrawal
	return nil
}

func (store *stubStore) ListActiveFlexiLots(ctx context.Context, userID UserID) ([]FlexiLot, error) {
	lots := []FlexiLot{}
	for _, lot := range store.lots {
		if lot.userID == userID.String() && lot.active && lot.flexi {
			lots = append(lots, FlexiLot{InvestmentID: lot.investmentID, AmountCents: AmountCents(lot.amountCents)})
		}
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].AmountCents > lots[j].AmountCents })
	return lots, nil
}

func (store *stubStore) ReduceFlexiLot(ctx context.Context, investmentID string, newAmountCents int64, active bool) error {
	lot, ok := store.lots[investmentID]
	if !ok {
		return fmt.Errorf("stub: unknown lot %s", investmentID)
	}
	lot.amountCents = newAmountCents
	lot.active = active
	store.lots[investmentID] = lot
	return nil
}

func (store *stubStore) AppendLotLedger(ctx context.Context, row LotLedgerRow) error {
	store.lotLedger = append(store.lotLedger, row)
	return nil
}

func (store *stubStore) seedWallet(test *testing.T, userID string, principal, profit, referral, locked int64) {
	test.Helper()
	store.wallets[userID] = WalletBalance{
		UserID:         userID,
		PrincipalCents: AmountCents(principal),
		ProfitCents:    AmountCents(profit),
		ReferralCents:  AmountCents(referral),
		LockedCents:    AmountCents(locked),
	}
}

func (store *stubStore) seedFlexiLot(test *testing.T, investmentID, userID string, amountCents int64) {
	test.Helper()
	store.lots[investmentID] = stubLot{
		investmentID: investmentID,
		userID:       userID,
		amountCents:  amountCents,
		active:       true,
		flexi:        true,
	}
}

func mustNewService(test *testing.T, store Store) *Service {
	test.Helper()
	service, err := NewService(store, func() int64 { return 1700000000 })
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}

func mustUserID(test *testing.T, raw string) UserID {
	test.Helper()
	userID, err := NewUserID(raw)
	if err != nil {
		test.Fatalf("user id: %v", err)
	}
	return userID
}

func mustAmount(test *testing.T, raw int64) AmountCents {
	test.Helper()
	amount, err := NewAmountCents(raw)
	if err != nil {
		test.Fatalf("amount: %v", err)
	}
	return amount
}

func mustMetadata(test *testing.T, raw string) MetadataJSON {
	test.Helper()
	metadata, err := NewMetadataJSON(raw)
	if err != nil {
		test.Fatalf("metadata: %v", err)
	}
	return metadata
}
