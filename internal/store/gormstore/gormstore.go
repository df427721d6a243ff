// Package gormstore persists the ledger, investment, and distribution
// contracts on one GORM database. Nested WithTx calls join the outer
// transaction through savepoints, so a workflow mutation and its postings
// commit or roll back together.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

const (
	defaultMetadataJSON   = "{}"
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19

	errorOperationStore     = "store"
	errorSubjectTransaction = "transaction"
	errorSubjectEntry       = "entry"
	errorSubjectWallet      = "wallet"
	errorSubjectWithdrawal  = "withdrawal"
	errorSubjectLot         = "lot"
	errorCodeCreate         = "create"
	errorCodeDuplicate      = "duplicate"
	errorCodeGet            = "get"
	errorCodeInsert         = "insert"
	errorCodeInvalid        = "invalid"
	errorCodeList           = "list"
	errorCodeSum            = "sum"
	errorCodeUpdate         = "update"
	errorCodeUpdateStatus   = "update_status"
)

// Store implements ledger.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore ledger.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) InsertTransaction(ctx context.Context, transaction ledger.Transaction) error {
	model := Transaction{
		TransactionID: transaction.TransactionID,
		UserID:        transaction.UserID,
		Type:          transaction.Type.String(),
		Status:        transaction.Status.String(),
		AmountCents:   transaction.AmountCents.Int64(),
		FeeCents:      transaction.FeeCents.Int64(),
		NetCents:      transaction.NetCents.Int64(),
		ReferenceType: transaction.ReferenceType,
		ReferenceID:   transaction.ReferenceID,
		Description:   transaction.Description,
		Metadata:      datatypesJSON(transaction.MetadataJSON),
		CreatedAt:     time.Unix(transaction.CreatedUnixUTC, 0).UTC(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectTransaction, errorCodeDuplicate, err)
	}
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) GetTransactionForUpdate(ctx context.Context, transactionID string) (ledger.Transaction, error) {
	var model Transaction
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ?", transactionID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeGet, ledger.ErrTransactionNotFound)
	}
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeGet, err)
	}
	return mapTransaction(model)
}

func (store *Store) UpdateTransactionStatus(ctx context.Context, transactionID string, from, to ledger.TransactionStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("transaction_id = ? AND status = ?", transactionID, from.String()).
		Update("status", to.String())
	if result.Error != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdateStatus, ledger.ErrInvalidState)
	}
	return nil
}

func (store *Store) InsertEntry(ctx context.Context, entry ledger.Entry) error {
	model := LedgerEntry{
		EntryID:       entry.EntryID,
		UserID:        entry.UserID,
		Account:       entry.Account.String(),
		Direction:     entry.Direction.String(),
		AmountCents:   entry.AmountCents.Int64(),
		TransactionID: entry.TransactionID,
		ReferenceType: entry.ReferenceType,
		ReferenceID:   entry.ReferenceID,
		CreatedAt:     time.Unix(entry.CreatedUnixUTC, 0).UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) GetWalletForUpdate(ctx context.Context, userID ledger.UserID) (ledger.WalletBalance, error) {
	var model Wallet
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID.String()).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		model = Wallet{UserID: userID.String()}
		if createErr := store.db.WithContext(ctx).Create(&model).Error; createErr != nil {
			return ledger.WalletBalance{}, wrapStoreError(errorSubjectWallet, errorCodeCreate, createErr)
		}
		return mapWallet(model), nil
	}
	if err != nil {
		return ledger.WalletBalance{}, wrapStoreError(errorSubjectWallet, errorCodeGet, err)
	}
	return mapWallet(model), nil
}

func (store *Store) GetWallet(ctx context.Context, userID ledger.UserID) (ledger.WalletBalance, error) {
	var model Wallet
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.WalletBalance{}, wrapStoreError(errorSubjectWallet, errorCodeGet, ledger.ErrWalletNotFound)
	}
	if err != nil {
		return ledger.WalletBalance{}, wrapStoreError(errorSubjectWallet, errorCodeGet, err)
	}
	return mapWallet(model), nil
}

func (store *Store) ApplyWalletDelta(ctx context.Context, userID ledger.UserID, accountType ledger.AccountType, deltaCents int64) error {
	column, err := walletColumn(accountType)
	if err != nil {
		return wrapStoreError(errorSubjectWallet, errorCodeInvalid, err)
	}
	result := store.db.WithContext(ctx).
		Model(&Wallet{}).
		Where("user_id = ?", userID.String()).
		Updates(map[string]interface{}{
			column:       gorm.Expr(column+" + ?", deltaCents),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdate, ledger.ErrWalletNotFound)
	}
	return nil
}

func (store *Store) SaveWallet(ctx context.Context, wallet ledger.WalletBalance) error {
	model := Wallet{
		UserID:         wallet.UserID,
		PrincipalCents: wallet.PrincipalCents.Int64(),
		ProfitCents:    wallet.ProfitCents.Int64(),
		ReferralCents:  wallet.ReferralCents.Int64(),
		LockedCents:    wallet.LockedCents.Int64(),
		UpdatedAt:      time.Now().UTC(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
	if err != nil {
		return wrapStoreError(errorSubjectWallet, errorCodeUpdate, err)
	}
	return nil
}

func (store *Store) SumAccount(ctx context.Context, owner ledger.UserID, accountType ledger.AccountType) (int64, error) {
	var sum sqlSum
	err := store.db.WithContext(ctx).
		Model(&LedgerEntry{}).
		Select("coalesce(sum(case when direction = 'credit' then amount_cents else -amount_cents end),0) as total").
		Where("user_id = ? AND account = ?", owner.String(), accountType.String()).
		Scan(&sum).Error
	if err != nil {
		return 0, wrapStoreError(errorSubjectEntry, errorCodeSum, err)
	}
	return sum.Total, nil
}

func (store *Store) CreateWithdrawal(ctx context.Context, withdrawal ledger.Withdrawal) error {
	model := Withdrawal{
		WithdrawalID:  withdrawal.WithdrawalID,
		UserID:        withdrawal.UserID,
		AmountCents:   withdrawal.AmountCents.Int64(),
		Status:        withdrawal.Status.String(),
		TransactionID: withdrawal.TransactionID,
		AdminRemark:   withdrawal.AdminRemark,
		CreatedAt:     time.Unix(withdrawal.CreatedUnixUTC, 0).UTC(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectWithdrawal, errorCodeDuplicate, err)
	}
	if err != nil {
		return wrapStoreError(errorSubjectWithdrawal, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetWithdrawalForUpdate(ctx context.Context, withdrawalID string) (ledger.Withdrawal, error) {
	var model Withdrawal
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("withdrawal_id = ?", withdrawalID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Withdrawal{}, wrapStoreError(errorSubjectWithdrawal, errorCodeGet, ledger.ErrWithdrawalNotFound)
	}
	if err != nil {
		return ledger.Withdrawal{}, wrapStoreError(errorSubjectWithdrawal, errorCodeGet, err)
	}
	return mapWithdrawal(model)
}

func (store *Store) UpdateWithdrawalStatus(ctx context.Context, withdrawalID string, from, to ledger.WithdrawalStatus, remark string, processedUnixUTC int64) error {
	updates := map[string]interface{}{
		"status":       to.String(),
		"processed_at": time.Unix(processedUnixUTC, 0).UTC(),
	}
	if remark != "" {
		updates["admin_remark"] = remark
	}
	result := store.db.WithContext(ctx).
		Model(&Withdrawal{}).
		Where("withdrawal_id = ? AND status = ?", withdrawalID, from.String()).
		Updates(updates)
	if result.Error != nil {
		return wrapStoreError(errorSubjectWithdrawal, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectWithdrawal, errorCodeUpdateStatus, ledger.ErrInvalidState)
	}
	return nil
}

func (store *Store) ListActiveFlexiLots(ctx context.Context, userID ledger.UserID) ([]ledger.FlexiLot, error) {
	var rows []Investment
	err := store.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND plan = ?", userID.String(), true, "flexi").
		Order("amount_cents DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectLot, errorCodeList, err)
	}
	lots := make([]ledger.FlexiLot, 0, len(rows))
	for _, row := range rows {
		lots = append(lots, ledger.FlexiLot{
			InvestmentID: row.InvestmentID,
			AmountCents:  ledger.AmountCents(row.AmountCents),
		})
	}
	return lots, nil
}

func (store *Store) ReduceFlexiLot(ctx context.Context, investmentID string, newAmountCents int64, active bool) error {
	result := store.db.WithContext(ctx).
		Model(&Investment{}).
		Where("investment_id = ?", investmentID).
		Updates(map[string]interface{}{
			"amount_cents": newAmountCents,
			"is_active":    active,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectLot, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectLot, errorCodeUpdate, fmt.Errorf("unknown lot %s", investmentID))
	}
	return nil
}

func (store *Store) AppendLotLedger(ctx context.Context, row ledger.LotLedgerRow) error {
	model := InvestmentLedger{
		InvestmentID:      row.InvestmentID,
		UserID:            row.UserID,
		Action:            row.Action,
		AmountDeltaCents:  row.AmountDeltaCents,
		BalanceAfterCents: row.BalanceAfter,
		TransactionID:     row.TransactionID,
		CreatedAt:         time.Unix(row.CreatedUnixUTC, 0).UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectLot, errorCodeInsert, err)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return ledger.WrapError(errorOperationStore, subject, code, err)
}

type sqlSum struct {
	Total int64
}

func mapWallet(model Wallet) ledger.WalletBalance {
	return ledger.WalletBalance{
		UserID:         model.UserID,
		PrincipalCents: ledger.AmountCents(model.PrincipalCents),
		ProfitCents:    ledger.AmountCents(model.ProfitCents),
		ReferralCents:  ledger.AmountCents(model.ReferralCents),
		LockedCents:    ledger.AmountCents(model.LockedCents),
	}
}

func mapWithdrawal(model Withdrawal) (ledger.Withdrawal, error) {
	status, err := ledger.ParseWithdrawalStatus(model.Status)
	if err != nil {
		return ledger.Withdrawal{}, wrapStoreError(errorSubjectWithdrawal, errorCodeInvalid, err)
	}
	withdrawal := ledger.Withdrawal{
		WithdrawalID:   model.WithdrawalID,
		UserID:         model.UserID,
		AmountCents:    ledger.AmountCents(model.AmountCents),
		Status:         status,
		TransactionID:  model.TransactionID,
		AdminRemark:    model.AdminRemark,
		CreatedUnixUTC: model.CreatedAt.Unix(),
	}
	if model.ProcessedAt != nil {
		withdrawal.ProcessedUnixUTC = model.ProcessedAt.Unix()
	}
	return withdrawal, nil
}

func mapTransaction(model Transaction) (ledger.Transaction, error) {
	transactionType, err := ledger.ParseTransactionType(model.Type)
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	status, err := ledger.ParseTransactionStatus(model.Status)
	if err != nil {
		return ledger.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	return ledger.Transaction{
		TransactionID:  model.TransactionID,
		UserID:         model.UserID,
		Type:           transactionType,
		Status:         status,
		AmountCents:    ledger.AmountCents(model.AmountCents),
		FeeCents:       ledger.AmountCents(model.FeeCents),
		NetCents:       ledger.AmountCents(model.NetCents),
		ReferenceType:  model.ReferenceType,
		ReferenceID:    model.ReferenceID,
		Description:    model.Description,
		MetadataJSON:   string(model.Metadata),
		CreatedUnixUTC: model.CreatedAt.Unix(),
	}, nil
}

func walletColumn(accountType ledger.AccountType) (string, error) {
	switch accountType {
	case ledger.AccountPrincipal:
		return "principal_cents", nil
	case ledger.AccountProfit:
		return "profit_cents", nil
	case ledger.AccountReferral:
		return "referral_cents", nil
	case ledger.AccountLocked:
		return "locked_cents", nil
	default:
		return "", fmt.Errorf("%w: %q is not a wallet bucket", ledger.ErrInvalidAccountType, accountType)
	}
}

func datatypesJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultMetadataJSON))
	}
	return datatypes.JSON([]byte(raw))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
