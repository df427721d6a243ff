// Package ledgertest provides an in-memory ledger.Store for service tests.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

// Lot is an in-memory investment lot row visible to the drawdown hooks.
type Lot struct {
	InvestmentID string
	UserID       string
	AmountCents  int64
	Active       bool
	Flexi        bool
}

// Store is an in-memory ledger.Store. WithTx is not isolated; tests drive
// single-threaded scenarios and assert on final state.
type Store struct {
	mu           sync.Mutex
	Transactions []ledger.Transaction
	Entries      []ledger.Entry
	Wallets      map[string]ledger.WalletBalance
	Withdrawals  map[string]ledger.Withdrawal
	Lots         map[string]*Lot
	LotLedger    []ledger.LotLedgerRow
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		Wallets:     map[string]ledger.WalletBalance{},
		Withdrawals: map[string]ledger.Withdrawal{},
		Lots:        map[string]*Lot{},
	}
}

// SeedWallet installs a projection row.
func (store *Store) SeedWallet(userID string, principal, profit, referral, locked int64) {
	store.Wallets[userID] = ledger.WalletBalance{
		UserID:         userID,
		PrincipalCents: ledger.AmountCents(principal),
		ProfitCents:    ledger.AmountCents(profit),
		ReferralCents:  ledger.AmountCents(referral),
		LockedCents:    ledger.AmountCents(locked),
	}
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	return fn(ctx, store)
}

func (store *Store) InsertTransaction(ctx context.Context, transaction ledger.Transaction) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.Transactions = append(store.Transactions, transaction)
	return nil
}

func (store *Store) InsertEntry(ctx context.Context, entry ledger.Entry) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.Entries = append(store.Entries, entry)
	return nil
}

func (store *Store) GetTransactionForUpdate(ctx context.Context, transactionID string) (ledger.Transaction, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, transaction := range store.Transactions {
		if transaction.TransactionID == transactionID {
			return transaction, nil
		}
	}
	return ledger.Transaction{}, ledger.ErrTransactionNotFound
}

func (store *Store) UpdateTransactionStatus(ctx context.Context, transactionID string, from, to ledger.TransactionStatus) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for index := range store.Transactions {
		if store.Transactions[index].TransactionID == transactionID && store.Transactions[index].Status == from {
			store.Transactions[index].Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: no matching transaction row", ledger.ErrInvalidState)
}

func (store *Store) GetWalletForUpdate(ctx context.Context, userID ledger.UserID) (ledger.WalletBalance, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	wallet, ok := store.Wallets[userID.String()]
	if !ok {
		wallet = ledger.WalletBalance{UserID: userID.String()}
		store.Wallets[userID.String()] = wallet
	}
	return wallet, nil
}

func (store *Store) GetWallet(ctx context.Context, userID ledger.UserID) (ledger.WalletBalance, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	wallet, ok := store.Wallets[userID.String()]
	if !ok {
		return ledger.WalletBalance{}, ledger.ErrWalletNotFound
	}
	return wallet, nil
}

func (store *Store) ApplyWalletDelta(ctx context.Context, userID ledger.UserID, accountType ledger.AccountType, deltaCents int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	wallet := store.Wallets[userID.String()]
	wallet.UserID = userID.String()
	switch accountType {
	case ledger.AccountPrincipal:
		wallet.PrincipalCents += ledger.AmountCents(deltaCents)
	case ledger.AccountProfit:
		wallet.ProfitCents += ledger.AmountCents(deltaCents)
	case ledger.AccountReferral:
		wallet.ReferralCents += ledger.AmountCents(deltaCents)
	case ledger.AccountLocked:
		wallet.LockedCents += ledger.AmountCents(deltaCents)
	default:
		return fmt.Errorf("ledgertest: %q is not a wallet bucket", accountType)
	}
	store.Wallets[userID.String()] = wallet
	return nil
}

func (store *Store) SaveWallet(ctx context.Context, wallet ledger.WalletBalance) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.Wallets[wallet.UserID] = wallet
	return nil
}

func (store *Store) SumAccount(ctx context.Context, owner ledger.UserID, accountType ledger.AccountType) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var sum int64
	for _, entry := range store.Entries {
		if entry.UserID != owner.String() || entry.Account != accountType {
			continue
		}
		if entry.Direction == ledger.Credit {
			sum += entry.AmountCents.Int64()
		} else {
			sum -= entry.AmountCents.Int64()
		}
	}
	return sum, nil
}

func (store *Store) CreateWithdrawal(ctx context.Context, withdrawal ledger.Withdrawal) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, exists := store.Withdrawals[withdrawal.WithdrawalID]; exists {
		return fmt.Errorf("ledgertest: withdrawal exists")
	}
	store.Withdrawals[withdrawal.WithdrawalID] = withdrawal
	return nil
}

func (store *Store) GetWithdrawalForUpdate(ctx context.Context, withdrawalID string) (ledger.Withdrawal, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	withdrawal, ok := store.Withdrawals[withdrawalID]
	if !ok {
		return ledger.Withdrawal{}, ledger.ErrWithdrawalNotFound
	}
	return withdrawal, nil
}

func (store *Store) UpdateWithdrawalStatus(ctx context.Context, withdrawalID string, from, to ledger.WithdrawalStatus, remark string, processedUnixUTC int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	withdrawal, ok := store.Withdrawals[withdrawalID]
	if !ok || withdrawal.Status != from {
		return fmt.Errorf("%w: no matching withdrawal row", ledger.ErrInvalidState)
	}
	withdrawal.Status = to
	if remark != "" {
		withdrawal.AdminRemark = remark
	}
	withdrawal.ProcessedUnixUTC = processedUnixUTC
	store.Withdrawals[withdrawalID] = withdrawal
	return nil
}

func (store *Store) ListActiveFlexiLots(ctx context.Context, userID ledger.UserID) ([]ledger.FlexiLot, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	lots := []ledger.FlexiLot{}
	for _, lot := range store.Lots {
		if lot.UserID == userID.String() && lot.Active && lot.Flexi {
			lots = append(lots, ledger.FlexiLot{InvestmentID: lot.InvestmentID, AmountCents: ledger.AmountCents(lot.AmountCents)})
		}
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].AmountCents > lots[j].AmountCents })
	return lots, nil
}

func (store *Store) ReduceFlexiLot(ctx context.Context, investmentID string, newAmountCents int64, active bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	lot, ok := store.Lots[investmentID]
	if !ok {
		return fmt.Errorf("ledgertest: unknown lot %s", investmentID)
	}
	lot.AmountCents = newAmountCents
	lot.Active = active
	return nil
}

func (store *Store) AppendLotLedger(ctx context.Context, row ledger.LotLedgerRow) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.LotLedger = append(store.LotLedger, row)
	return nil
}

// TransactionsOfType filters recorded transactions.
func (store *Store) TransactionsOfType(transactionType ledger.TransactionType) []ledger.Transaction {
	store.mu.Lock()
	defer store.mu.Unlock()
	matches := []ledger.Transaction{}
	for _, transaction := range store.Transactions {
		if transaction.Type == transactionType {
			matches = append(matches, transaction)
		}
	}
	return matches
}
