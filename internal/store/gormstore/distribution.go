package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/distribution"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/internal/investment"
	"github.com/Janvi-Rao-2108/Invest-hub-sub001/pkg/ledger"
)

const (
	errorSubjectPeriod       = "period"
	errorSubjectDistribution = "distribution"
)

// DistributionStore implements distribution.Store on the shared database.
type DistributionStore struct {
	db *gorm.DB
}

// NewDistributionStore returns a DistributionStore backed by gorm.DB.
func NewDistributionStore(db *gorm.DB) *DistributionStore {
	return &DistributionStore{db: db}
}

// WithTx executes fn within a transaction.
func (store *DistributionStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore distribution.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &DistributionStore{db: transaction})
	})
}

// Ledger returns the ledger contract bound to the same transactional handle.
func (store *DistributionStore) Ledger() ledger.Store {
	return &Store{db: store.db}
}

func (store *DistributionStore) ListParticipants(ctx context.Context) ([]distribution.Participant, error) {
	type participantRow struct {
		UserID           string
		PrincipalCents   int64
		PayoutPreference string
		Email            string
	}
	var rows []participantRow
	err := store.db.WithContext(ctx).
		Table("wallets").
		Select("wallets.user_id, wallets.principal_cents, coalesce(users.payout_preference, 'payout') as payout_preference, coalesce(users.email, '') as email").
		Joins("LEFT JOIN users ON users.user_id = wallets.user_id").
		Where("wallets.principal_cents > 0").
		Order("wallets.user_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectWallet, errorCodeList, err)
	}
	participants := make([]distribution.Participant, 0, len(rows))
	for _, row := range rows {
		preference, err := distribution.ParsePayoutPreference(row.PayoutPreference)
		if err != nil {
			preference = distribution.PreferencePayout
		}
		participants = append(participants, distribution.Participant{
			UserID:         row.UserID,
			PrincipalCents: row.PrincipalCents,
			Preference:     preference,
			Email:          row.Email,
		})
	}
	return participants, nil
}

func (store *DistributionStore) ListWalletOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := store.db.WithContext(ctx).
		Model(&Wallet{}).
		Order("user_id ASC").
		Pluck("user_id", &owners).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectWallet, errorCodeList, err)
	}
	return owners, nil
}

func (store *DistributionStore) CreatePerformancePeriod(ctx context.Context, period distribution.PerformancePeriod) error {
	model := PerformancePeriod{
		PeriodID:             period.PeriodID,
		Label:                period.Label,
		GrossProfitCents:     period.GrossProfitCents,
		GrossLossCents:       period.GrossLossCents,
		CapitalDeployedCents: period.CapitalDeployedCents,
		Locked:               period.Locked,
		DistributionLinked:   period.DistributionLinked,
		CreatedAt:            time.Unix(period.CreatedUnixUTC, 0).UTC(),
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectPeriod, errorCodeDuplicate, err)
	}
	if err != nil {
		return wrapStoreError(errorSubjectPeriod, errorCodeCreate, err)
	}
	return nil
}

func (store *DistributionStore) GetPerformancePeriod(ctx context.Context, periodID string) (distribution.PerformancePeriod, error) {
	var model PerformancePeriod
	err := store.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return distribution.PerformancePeriod{}, wrapStoreError(errorSubjectPeriod, errorCodeGet, distribution.ErrPeriodNotFound)
	}
	if err != nil {
		return distribution.PerformancePeriod{}, wrapStoreError(errorSubjectPeriod, errorCodeGet, err)
	}
	return distribution.PerformancePeriod{
		PeriodID:             model.PeriodID,
		Label:                model.Label,
		GrossProfitCents:     model.GrossProfitCents,
		GrossLossCents:       model.GrossLossCents,
		CapitalDeployedCents: model.CapitalDeployedCents,
		Locked:               model.Locked,
		DistributionLinked:   model.DistributionLinked,
		CreatedUnixUTC:       model.CreatedAt.Unix(),
	}, nil
}

func (store *DistributionStore) LockPerformancePeriod(ctx context.Context, periodID string) (bool, error) {
	result := store.db.WithContext(ctx).
		Model(&PerformancePeriod{}).
		Where("period_id = ? AND locked = ?", periodID, false).
		Update("locked", true)
	if result.Error != nil {
		return false, wrapStoreError(errorSubjectPeriod, errorCodeUpdateStatus, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (store *DistributionStore) LinkPerformancePeriod(ctx context.Context, periodID string, distributionID string) (bool, error) {
	result := store.db.WithContext(ctx).
		Model(&PerformancePeriod{}).
		Where("period_id = ? AND distribution_linked = ?", periodID, false).
		Updates(map[string]interface{}{
			"distribution_linked": true,
			"distribution_id":     distributionID,
		})
	if result.Error != nil {
		return false, wrapStoreError(errorSubjectPeriod, errorCodeUpdateStatus, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (store *DistributionStore) CreateDistribution(ctx context.Context, summary distribution.DistributionSummary) error {
	model := ProfitDistribution{
		DistributionID:     summary.DistributionID,
		PeriodID:           summary.PeriodID,
		Recipients:         summary.Recipients,
		TotalProfitCents:   summary.TotalProfitCents,
		AdminShareCents:    summary.AdminShareCents,
		InvestorShareCents: summary.InvestorShareCents,
		TaxWithheldCents:   summary.TaxWithheldCents,
		Errors:             summary.Errors,
		CreatedAt:          time.Unix(summary.CreatedUnixUTC, 0).UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectDistribution, errorCodeCreate, err)
	}
	return nil
}

func (store *DistributionStore) ListActiveLots(ctx context.Context, userID string) ([]distribution.ActiveLot, error) {
	var rows []Investment
	err := store.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("investment_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectLot, errorCodeList, err)
	}
	lots := make([]distribution.ActiveLot, 0, len(rows))
	for _, row := range rows {
		lots = append(lots, distribution.ActiveLot{
			InvestmentID: row.InvestmentID,
			UserID:       row.UserID,
			AmountCents:  row.AmountCents,
			Flexi:        row.Plan == investment.PlanFlexi.String(),
		})
	}
	return lots, nil
}

func (store *DistributionStore) DeactivateLot(ctx context.Context, investmentID string) (bool, error) {
	result := store.db.WithContext(ctx).
		Model(&Investment{}).
		Where("investment_id = ? AND is_active = ?", investmentID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, wrapStoreError(errorSubjectLot, errorCodeUpdateStatus, result.Error)
	}
	return result.RowsAffected > 0, nil
}
