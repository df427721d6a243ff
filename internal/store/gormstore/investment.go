package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/investment"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

const (
	errorSubjectDeposit    = "deposit"
	errorSubjectInvestment = "investment"
	errorSubjectUser       = "user"
)

// InvestmentStore implements investment.Store on the shared database.
type InvestmentStore struct {
	db *gorm.DB
}

// NewInvestmentStore returns an InvestmentStore backed by gorm.DB.
func NewInvestmentStore(db *gorm.DB) *InvestmentStore {
	return &InvestmentStore{db: db}
}

// WithTx executes fn within a transaction.
func (store *InvestmentStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore investment.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &InvestmentStore{db: transaction})
	})
}

// Ledger returns the ledger contract bound to the same transactional handle.
func (store *InvestmentStore) Ledger() ledger.Store {
	return &Store{db: store.db}
}

// CreateDeposit records a pending gateway order awaiting verification.
func (store *InvestmentStore) CreateDeposit(ctx context.Context, deposit investment.Deposit) error {
	model := Deposit{
		DepositID:   deposit.DepositID,
		UserID:      deposit.UserID,
		OrderID:     deposit.OrderID,
		PaymentID:   deposit.PaymentID,
		AmountCents: deposit.AmountCents,
		Plan:        deposit.Plan.String(),
		Status:      string(deposit.Status),
		CreatedAt:   time.Unix(deposit.CreatedUnixUTC, 0).UTC(),
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectDeposit, errorCodeDuplicate, err)
	}
	if err != nil {
		return wrapStoreError(errorSubjectDeposit, errorCodeCreate, err)
	}
	return nil
}

func (store *InvestmentStore) GetDepositByOrderID(ctx context.Context, orderID string) (investment.Deposit, error) {
	var model Deposit
	err := store.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return investment.Deposit{}, wrapStoreError(errorSubjectDeposit, errorCodeGet, investment.ErrDepositNotFound)
	}
	if err != nil {
		return investment.Deposit{}, wrapStoreError(errorSubjectDeposit, errorCodeGet, err)
	}
	return mapDeposit(model)
}

func (store *InvestmentStore) MarkDepositSuccess(ctx context.Context, orderID string, paymentID string) (bool, error) {
	result := store.db.WithContext(ctx).
		Model(&Deposit{}).
		Where("order_id = ? AND status = ?", orderID, string(investment.DepositPending)).
		Updates(map[string]interface{}{
			"status":     string(investment.DepositSuccess),
			"payment_id": paymentID,
		})
	if result.Error != nil {
		return false, wrapStoreError(errorSubjectDeposit, errorCodeUpdateStatus, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (store *InvestmentStore) CreateInvestment(ctx context.Context, lot investment.Investment) error {
	model := Investment{
		InvestmentID:    lot.InvestmentID,
		UserID:          lot.UserID,
		AmountCents:     lot.AmountCents,
		Plan:            lot.Plan.String(),
		StartAt:         time.Unix(lot.StartUnixUTC, 0).UTC(),
		IsActive:        lot.IsActive,
		SourceDepositID: lot.SourceDepositID,
		CreatedAt:       time.Now().UTC(),
	}
	if lot.MaturityUnixUTC != 0 {
		maturity := time.Unix(lot.MaturityUnixUTC, 0).UTC()
		model.MaturityAt = &maturity
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectInvestment, errorCodeCreate, err)
	}
	return nil
}

func (store *InvestmentStore) GetInvestmentForUpdate(ctx context.Context, investmentID string) (investment.Investment, error) {
	var model Investment
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("investment_id = ?", investmentID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return investment.Investment{}, wrapStoreError(errorSubjectInvestment, errorCodeGet, investment.ErrNotFound)
	}
	if err != nil {
		return investment.Investment{}, wrapStoreError(errorSubjectInvestment, errorCodeGet, err)
	}
	return mapInvestment(model)
}

func (store *InvestmentStore) DeactivateInvestment(ctx context.Context, investmentID string) (bool, error) {
	result := store.db.WithContext(ctx).
		Model(&Investment{}).
		Where("investment_id = ? AND is_active = ?", investmentID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, wrapStoreError(errorSubjectInvestment, errorCodeUpdateStatus, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (store *InvestmentStore) ListMaturedFixedInvestments(ctx context.Context, nowUnixUTC int64, limit int) ([]investment.Investment, error) {
	var rows []Investment
	err := store.db.WithContext(ctx).
		Where("is_active = ? AND plan <> ? AND maturity_at IS NOT NULL AND maturity_at <= ?",
			true, investment.PlanFlexi.String(), time.Unix(nowUnixUTC, 0).UTC()).
		Order("maturity_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectInvestment, errorCodeList, err)
	}
	return mapInvestments(rows)
}

func (store *InvestmentStore) ListActiveInvestments(ctx context.Context, userID string) ([]investment.Investment, error) {
	var rows []Investment
	err := store.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectInvestment, errorCodeList, err)
	}
	return mapInvestments(rows)
}

func (store *InvestmentStore) GetReferrer(ctx context.Context, userID string) (string, error) {
	var model User
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", wrapStoreError(errorSubjectUser, errorCodeGet, err)
	}
	return model.ReferredBy, nil
}

func mapDeposit(model Deposit) (investment.Deposit, error) {
	plan, err := investment.ParsePlan(model.Plan)
	if err != nil {
		return investment.Deposit{}, wrapStoreError(errorSubjectDeposit, errorCodeInvalid, err)
	}
	return investment.Deposit{
		DepositID:      model.DepositID,
		UserID:         model.UserID,
		OrderID:        model.OrderID,
		PaymentID:      model.PaymentID,
		AmountCents:    model.AmountCents,
		Plan:           plan,
		Status:         investment.DepositStatus(model.Status),
		CreatedUnixUTC: model.CreatedAt.Unix(),
	}, nil
}

func mapInvestment(model Investment) (investment.Investment, error) {
	plan, err := investment.ParsePlan(model.Plan)
	if err != nil {
		return investment.Investment{}, wrapStoreError(errorSubjectInvestment, errorCodeInvalid, err)
	}
	lot := investment.Investment{
		InvestmentID:    model.InvestmentID,
		UserID:          model.UserID,
		AmountCents:     model.AmountCents,
		Plan:            plan,
		StartUnixUTC:    model.StartAt.Unix(),
		IsActive:        model.IsActive,
		SourceDepositID: model.SourceDepositID,
	}
	if model.MaturityAt != nil {
		lot.MaturityUnixUTC = model.MaturityAt.Unix()
	}
	return lot, nil
}

func mapInvestments(rows []Investment) ([]investment.Investment, error) {
	lots := make([]investment.Investment, 0, len(rows))
	for _, row := range rows {
		lot, err := mapInvestment(row)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}
